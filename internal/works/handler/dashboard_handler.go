package handler

import (
	"github.com/civista/nirman/internal/works/service"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	svc *service.DashboardService
}

func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// InboxCounts GET /dashboard/inbox
func (h *DashboardHandler) InboxCounts(c *gin.Context) {
	counts, err := h.svc.InboxCounts(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"pending_by_role": counts})
}
