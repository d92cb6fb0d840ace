package handler

import (
	"net/http"

	"assetverse/internal/middleware"
	"assetverse/internal/model"
	"assetverse/internal/service"
	"assetverse/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PackageHandler struct {
	packageService service.PackageService
	log            *zap.Logger
}

func NewPackageHandler(packageService service.PackageService, log *zap.Logger) *PackageHandler {
	return &PackageHandler{packageService: packageService, log: log}
}

func (h *PackageHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	hrOnly := middleware.RequireRole(model.RoleHR)

	router.GET("/api/packages", requireAuth, h.ListPackages)
	router.GET("/api/packages/my-package", requireAuth, hrOnly, h.MyPackage)

	payments := router.Group("/api/payments", requireAuth, hrOnly)
	{
		payments.POST("/confirm-payment", h.ConfirmPayment)
		payments.GET("/history", h.PaymentHistory)
	}
}

// ListPackages returns the subscription catalog
// @Summary      List packages
// @Tags         packages
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Package}
// @Router       /api/packages [get]
func (h *PackageHandler) ListPackages(c *gin.Context) {
	packages, err := h.packageService.ListPackages(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, packages))
}

// MyPackage reports the caller's tier and seat usage
// @Summary      My package
// @Tags         packages
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.PackageInfo}
// @Router       /api/packages/my-package [get]
func (h *PackageHandler) MyPackage(c *gin.Context) {
	info, err := h.packageService.MyPackage(c.Request.Context(), middleware.CurrentPrincipal(c).Email)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, info))
}

// ConfirmPayment records a completed payment and raises the capacity limit
// @Summary      Confirm package upgrade
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ConfirmUpgradeRequest  true  "Payment"
// @Success      200      {object}  response.Response{data=model.Payment}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/payments/confirm-payment [post]
func (h *PackageHandler) ConfirmPayment(c *gin.Context) {
	var req service.ConfirmUpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	payment, err := h.packageService.ConfirmUpgrade(c.Request.Context(), middleware.CurrentPrincipal(c).Email, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// @Summary      Payment history
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Payment}
// @Router       /api/payments/history [get]
func (h *PackageHandler) PaymentHistory(c *gin.Context) {
	payments, err := h.packageService.PaymentHistory(c.Request.Context(), middleware.CurrentPrincipal(c).Email)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}
