package handler

import (
	"github.com/civista/nirman/internal/works/service"
	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	svc *service.ExportService
}

func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// EstimateAbstract GET /files/:id/estimate/export
func (h *ExportHandler) EstimateAbstract(c *gin.Context) {
	f, filename, err := h.svc.EstimateAbstract(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}

// MovementRegister GET /files/:id/movements/export
func (h *ExportHandler) MovementRegister(c *gin.Context) {
	f, filename, err := h.svc.MovementRegister(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
