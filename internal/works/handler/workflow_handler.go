package handler

import (
	"github.com/civista/nirman/internal/works/service"
	"github.com/gin-gonic/gin"
)

type WorkflowHandler struct {
	svc *service.WorkflowService
}

func NewWorkflowHandler(svc *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

type remarksRequest struct {
	Remarks string `json:"remarks"`
}

// bindRemarks reads an optional remarks body. An empty body is fine.
func bindRemarks(c *gin.Context) (remarksRequest, bool) {
	var req remarksRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "invalid request: "+err.Error())
			return req, false
		}
	}
	return req, true
}

// Forward POST /files/:id/forward
func (h *WorkflowHandler) Forward(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	file, err := h.svc.Forward(c.Request.Context(), Actor(c), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, file)
}

// Return POST /files/:id/return
func (h *WorkflowHandler) Return(c *gin.Context) {
	req, ok := bindRemarks(c)
	if !ok {
		return
	}

	file, err := h.svc.Return(c.Request.Context(), Actor(c), c.Param("id"), req.Remarks)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, file)
}

// Approve POST /files/:id/approve
func (h *WorkflowHandler) Approve(c *gin.Context) {
	req, ok := bindRemarks(c)
	if !ok {
		return
	}

	file, project, err := h.svc.Approve(c.Request.Context(), Actor(c), c.Param("id"), req.Remarks)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"file": file, "project": project})
}

// Reject POST /files/:id/reject
func (h *WorkflowHandler) Reject(c *gin.Context) {
	req, ok := bindRemarks(c)
	if !ok {
		return
	}

	file, err := h.svc.Reject(c.Request.Context(), Actor(c), c.Param("id"), req.Remarks)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, file)
}
