package handler

import (
	"net/http"

	"assetverse/internal/middleware"
	"assetverse/internal/model"
	"assetverse/internal/service"
	"assetverse/pkg/pagination"
	"assetverse/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RequestHandler struct {
	requestService service.RequestService
	log            *zap.Logger
}

func NewRequestHandler(requestService service.RequestService, log *zap.Logger) *RequestHandler {
	return &RequestHandler{requestService: requestService, log: log}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	hrOnly := middleware.RequireRole(model.RoleHR)
	employeeOnly := middleware.RequireRole(model.RoleEmployee)

	requests := router.Group("/api/requests", requireAuth)
	{
		requests.POST("", employeeOnly, h.CreateRequest)
		requests.GET("/my-requests", employeeOnly, h.ListMyRequests)
		requests.PUT("/return/:assignmentId", employeeOnly, h.ReturnAsset)

		requests.GET("/hr-requests", hrOnly, h.ListHRRequests)
		requests.PUT("/:id/approve", hrOnly, h.ApproveRequest)
		requests.PUT("/:id/reject", hrOnly, h.RejectRequest)
	}
}

// CreateRequest files a pending request for one unit of an asset
// @Summary      Request an asset
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRequestDTO  true  "Request"
// @Success      201      {object}  response.Response{data=model.AssetRequest}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	created, err := h.requestService.CreateRequest(c.Request.Context(), middleware.CurrentPrincipal(c).Email, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// ListHRRequests lists requests addressed to the caller
// @Summary      List incoming requests
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "pending | approved | rejected | returned | all"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 10)"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /api/requests/hr-requests [get]
func (h *RequestHandler) ListHRRequests(c *gin.Context) {
	p := pagination.Parse(c)
	requests, total, err := h.requestService.ListHRRequests(c.Request.Context(), middleware.CurrentPrincipal(c).Email, service.RequestFilter{
		Status: c.Query("status"),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, requests, total, p.Page, p.Limit))
}

// @Summary      My requests
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.AssetRequest}
// @Router       /api/requests/my-requests [get]
func (h *RequestHandler) ListMyRequests(c *gin.Context) {
	requests, err := h.requestService.ListMyRequests(c.Request.Context(), middleware.CurrentPrincipal(c).Email)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// ApproveRequest approves a pending request and assigns the unit
// @Summary      Approve request
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.ApprovalResult}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/approve [put]
func (h *RequestHandler) ApproveRequest(c *gin.Context) {
	result, err := h.requestService.ApproveRequest(c.Request.Context(), middleware.CurrentPrincipal(c).Email, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// RejectRequest rejects a pending request
// @Summary      Reject request
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true   "Request ID"
// @Param        payload  body      service.RejectRequestDTO  false  "Reason"
// @Success      200      {object}  response.Response{data=model.AssetRequest}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/requests/{id}/reject [put]
func (h *RequestHandler) RejectRequest(c *gin.Context) {
	var req service.RejectRequestDTO
	// The body is optional.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	rejected, err := h.requestService.RejectRequest(c.Request.Context(), middleware.CurrentPrincipal(c).Email, c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rejected))
}

// ReturnAsset hands a returnable unit back to inventory
// @Summary      Return asset
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        assignmentId  path      string  true  "Assignment ID"
// @Success      200           {object}  response.Response{data=model.Assignment}
// @Failure      404           {object}  response.Response
// @Failure      422           {object}  response.Response
// @Router       /api/requests/return/{assignmentId} [put]
func (h *RequestHandler) ReturnAsset(c *gin.Context) {
	assignment, err := h.requestService.ReturnAsset(c.Request.Context(), middleware.CurrentPrincipal(c).Email, c.Param("assignmentId"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, assignment))
}
