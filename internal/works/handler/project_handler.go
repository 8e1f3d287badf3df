package handler

import (
	"github.com/civista/nirman/internal/works/service"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	svc *service.ProjectService
}

func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// List GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	result, err := h.svc.List(c.Request.Context(), page, pageSize, c.Query("category"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// Get GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, project)
}
