package handler

import (
	"net/http"
	"strconv"
	"time"

	"assetverse/internal/middleware"
	"assetverse/internal/model"
	"assetverse/internal/service"
	"assetverse/pkg/pagination"
	"assetverse/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EmployeeHandler struct {
	affiliationService service.AffiliationService
	assetService       service.AssetService
	log                *zap.Logger
	now                func() time.Time
}

func NewEmployeeHandler(affiliationService service.AffiliationService, assetService service.AssetService, log *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		affiliationService: affiliationService,
		assetService:       assetService,
		log:                log,
		now:                time.Now,
	}
}

func (h *EmployeeHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	hrOnly := middleware.RequireRole(model.RoleHR)
	employeeOnly := middleware.RequireRole(model.RoleEmployee)

	employees := router.Group("/api/employees", requireAuth)
	{
		employees.GET("/my-assets", employeeOnly, h.MyAssets)
		employees.GET("/my-team", employeeOnly, h.MyTeam)
		employees.GET("/team-birthdays", employeeOnly, h.TeamBirthdays)
		employees.GET("/my-affiliations", employeeOnly, h.MyAffiliations)

		employees.GET("/hr-employees", hrOnly, h.HREmployees)
		employees.DELETE("/remove/:email", hrOnly, h.RemoveEmployee)
	}
}

// MyAssets lists the caller's assignments
// @Summary      My assets
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Search by asset name"
// @Param        type    query     string  false  "Returnable | Non-returnable | all"
// @Success      200     {object}  response.Response{data=[]model.Assignment}
// @Router       /api/employees/my-assets [get]
func (h *EmployeeHandler) MyAssets(c *gin.Context) {
	assignments, err := h.assetService.ListMyAssets(c.Request.Context(), middleware.CurrentPrincipal(c).Email, c.Query("search"), c.Query("type"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, assignments))
}

// @Summary      My team
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.CompanyTeam}
// @Router       /api/employees/my-team [get]
func (h *EmployeeHandler) MyTeam(c *gin.Context) {
	teams, err := h.affiliationService.MyTeam(c.Request.Context(), middleware.CurrentPrincipal(c).Email)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, teams))
}

// TeamBirthdays lists teammates born in the given month (current month by default)
// @Summary      Team birthdays
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Param        month  query     int  false  "Month 1-12"
// @Success      200    {object}  response.Response{data=[]service.Birthday}
// @Failure      400    {object}  response.Response
// @Router       /api/employees/team-birthdays [get]
func (h *EmployeeHandler) TeamBirthdays(c *gin.Context) {
	month := h.now().Month()
	if raw := c.Query("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "month must be between 1 and 12"))
			return
		}
		month = time.Month(m)
	}

	birthdays, err := h.affiliationService.TeamBirthdays(c.Request.Context(), middleware.CurrentPrincipal(c).Email, month)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, birthdays))
}

// @Summary      My affiliations
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Affiliation}
// @Router       /api/employees/my-affiliations [get]
func (h *EmployeeHandler) MyAffiliations(c *gin.Context) {
	affiliations, err := h.affiliationService.MyAffiliations(c.Request.Context(), middleware.CurrentPrincipal(c).Email)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, affiliations))
}

// HREmployees lists the caller's active employees
// @Summary      List employees
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Search by name or email"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 10)"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /api/employees/hr-employees [get]
func (h *EmployeeHandler) HREmployees(c *gin.Context) {
	p := pagination.Parse(c)
	members, total, err := h.affiliationService.HREmployees(c.Request.Context(), middleware.CurrentPrincipal(c).Email, c.Query("search"), p.Page, p.Limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, members, total, p.Page, p.Limit))
}

// RemoveEmployee ends an employee's affiliation with the caller
// @Summary      Remove employee
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Param        email  path      string  true  "Employee email"
// @Success      200    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /api/employees/remove/{email} [delete]
func (h *EmployeeHandler) RemoveEmployee(c *gin.Context) {
	if err := h.affiliationService.Deactivate(c.Request.Context(), c.Param("email"), middleware.CurrentPrincipal(c).Email); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Employee removed from team"))
}
