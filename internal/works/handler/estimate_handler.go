package handler

import (
	"github.com/civista/nirman/internal/works/service"
	"github.com/gin-gonic/gin"
)

type EstimateHandler struct {
	svc *service.EstimateService
}

func NewEstimateHandler(svc *service.EstimateService) *EstimateHandler {
	return &EstimateHandler{svc: svc}
}

// Save PUT /files/:id/estimate
func (h *EstimateHandler) Save(c *gin.Context) {
	var req service.SaveEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	est, err := h.svc.Save(c.Request.Context(), Actor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, est)
}

// Active GET /files/:id/estimate
func (h *EstimateHandler) Active(c *gin.Context) {
	est, err := h.svc.Active(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, est)
}

// Versions GET /files/:id/estimate/versions
func (h *EstimateHandler) Versions(c *gin.Context) {
	versions, err := h.svc.Versions(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": versions})
}
