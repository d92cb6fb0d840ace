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

type AssetHandler struct {
	assetService service.AssetService
	log          *zap.Logger
}

func NewAssetHandler(assetService service.AssetService, log *zap.Logger) *AssetHandler {
	return &AssetHandler{assetService: assetService, log: log}
}

func (h *AssetHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	hrOnly := middleware.RequireRole(model.RoleHR)

	assets := router.Group("/api/assets", requireAuth)
	{
		assets.GET("", hrOnly, h.ListHRAssets)
		assets.POST("", hrOnly, h.CreateAsset)
		assets.GET("/available", h.ListAvailable)
		assets.GET("/:id", h.GetAsset)
		assets.PUT("/:id", hrOnly, h.UpdateAsset)
		assets.DELETE("/:id", hrOnly, h.DeleteAsset)
	}
}

// ListHRAssets lists the caller's own inventory
// @Summary      List HR assets
// @Tags         assets
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 10)"
// @Param        search  query     string  false  "Search by asset name"
// @Param        type    query     string  false  "Returnable | Non-returnable | all"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /api/assets [get]
func (h *AssetHandler) ListHRAssets(c *gin.Context) {
	p := pagination.Parse(c)
	assets, total, err := h.assetService.ListHRAssets(c.Request.Context(), middleware.CurrentPrincipal(c).Email, service.AssetQuery{
		Search: c.Query("search"),
		Type:   c.Query("type"),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, assets, total, p.Page, p.Limit))
}

// ListAvailable lists assets with at least one unit in stock
// @Summary      Browse available assets
// @Tags         assets
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 10)"
// @Param        search  query     string  false  "Search by asset name"
// @Param        type    query     string  false  "Returnable | Non-returnable | all"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /api/assets/available [get]
func (h *AssetHandler) ListAvailable(c *gin.Context) {
	p := pagination.Parse(c)
	assets, total, err := h.assetService.ListAvailable(c.Request.Context(), service.AssetQuery{
		Search: c.Query("search"),
		Type:   c.Query("type"),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, assets, total, p.Page, p.Limit))
}

// GetAsset returns one asset by id
// @Summary      Get asset
// @Tags         assets
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Asset ID"
// @Success      200  {object}  response.Response{data=model.Asset}
// @Failure      404  {object}  response.Response
// @Router       /api/assets/{id} [get]
func (h *AssetHandler) GetAsset(c *gin.Context) {
	asset, err := h.assetService.GetAsset(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, asset))
}

// CreateAsset adds an inventory line owned by the caller
// @Summary      Create asset
// @Tags         assets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateAssetRequest  true  "Asset"
// @Success      201      {object}  response.Response{data=model.Asset}
// @Failure      400      {object}  response.Response
// @Router       /api/assets [post]
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	var req service.CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	asset, err := h.assetService.CreateAsset(c.Request.Context(), middleware.CurrentPrincipal(c).Email, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, asset))
}

// UpdateAsset edits an asset owned by the caller
// @Summary      Update asset
// @Tags         assets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Asset ID"
// @Param        payload  body      service.UpdateAssetRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=model.Asset}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/assets/{id} [put]
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	var req service.UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	asset, err := h.assetService.UpdateAsset(c.Request.Context(), middleware.CurrentPrincipal(c).Email, c.Param("id"), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, asset))
}

// DeleteAsset soft deletes an asset owned by the caller
// @Summary      Delete asset
// @Tags         assets
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Asset ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/assets/{id} [delete]
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	if err := h.assetService.DeleteAsset(c.Request.Context(), middleware.CurrentPrincipal(c).Email, c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Asset deleted successfully"))
}
