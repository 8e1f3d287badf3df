package handler

import (
	"github.com/civista/nirman/internal/works/repository"
	"github.com/civista/nirman/internal/works/service"
	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	svc *service.FileService
}

func NewFileHandler(svc *service.FileService) *FileHandler {
	return &FileHandler{svc: svc}
}

// Create POST /files
func (h *FileHandler) Create(c *gin.Context) {
	var req service.CreateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	file, err := h.svc.Create(c.Request.Context(), Actor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, file)
}

// List GET /files
func (h *FileHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := repository.FileFilters{
		Status:     c.Query("status"),
		HolderRole: c.Query("holder_role"),
		Category:   c.Query("category"),
		Search:     c.Query("search"),
	}
	mine := c.Query("mine") == "true"

	result, err := h.svc.List(c.Request.Context(), Actor(c), page, pageSize, filters, mine)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// Get GET /files/:id
func (h *FileHandler) Get(c *gin.Context) {
	file, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, file)
}

// Update PUT /files/:id
func (h *FileHandler) Update(c *gin.Context) {
	var req service.UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	file, err := h.svc.UpdateMetadata(c.Request.Context(), Actor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, file)
}

// Delete DELETE /files/:id
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), Actor(c), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// Movements GET /files/:id/movements
func (h *FileHandler) Movements(c *gin.Context) {
	views, err := h.svc.Movements(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": views})
}
