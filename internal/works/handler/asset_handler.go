package handler

import (
	"github.com/civista/nirman/internal/works/service"
	"github.com/gin-gonic/gin"
)

type AssetHandler struct {
	svc *service.AssetService
}

func NewAssetHandler(svc *service.AssetService) *AssetHandler {
	return &AssetHandler{svc: svc}
}

// Replace PUT /files/:id/assets
func (h *AssetHandler) Replace(c *gin.Context) {
	var req service.ReplaceAssetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	assets, err := h.svc.Replace(c.Request.Context(), Actor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": assets})
}

// List GET /files/:id/assets
func (h *AssetHandler) List(c *gin.Context) {
	assets, err := h.svc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": assets})
}
