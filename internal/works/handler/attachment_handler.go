package handler

import (
	"io"

	"github.com/civista/nirman/internal/works/service"
	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	svc *service.AttachmentService
}

func NewAttachmentHandler(svc *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

// Upload POST /files/:id/attachments
func (h *AttachmentHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file field")
		return
	}

	src, err := fh.Open()
	if err != nil {
		BadRequest(c, "open upload: "+err.Error())
		return
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	att, err := h.svc.Upload(c.Request.Context(), Actor(c), c.Param("id"), fh.Filename, contentType, fh.Size, src)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, att)
}

// List GET /files/:id/attachments
func (h *AttachmentHandler) List(c *gin.Context) {
	atts, err := h.svc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": atts})
}

// Download GET /files/:id/attachments/:attachmentId/download
func (h *AttachmentHandler) Download(c *gin.Context) {
	obj, att, err := h.svc.Download(c.Request.Context(), c.Param("id"), c.Param("attachmentId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	defer obj.Close()

	c.Header("Content-Type", att.ContentType)
	c.Header("Content-Disposition", "attachment; filename=\""+att.Name+"\"")

	if _, err := io.Copy(c.Writer, obj); err != nil {
		// headers already sent, nothing sensible to return
		_ = c.Error(err)
	}
}
