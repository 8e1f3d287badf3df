package handler

import (
	"errors"
	"strconv"

	"github.com/civista/nirman/internal/works/repository"
	"github.com/civista/nirman/internal/works/service"
	"github.com/gin-gonic/gin"
)

// Handlers bundles every works handler.
type Handlers struct {
	File       *FileHandler
	Estimate   *EstimateHandler
	Asset      *AssetHandler
	Workflow   *WorkflowHandler
	Project    *ProjectHandler
	Dashboard  *DashboardHandler
	Attachment *AttachmentHandler
	Export     *ExportHandler
	SSE        *SSEHandler
}

func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		File:       NewFileHandler(svc.File),
		Estimate:   NewEstimateHandler(svc.Estimate),
		Asset:      NewAssetHandler(svc.Asset),
		Workflow:   NewWorkflowHandler(svc.Workflow),
		Project:    NewProjectHandler(svc.Project),
		Dashboard:  NewDashboardHandler(svc.Dashboard),
		Attachment: NewAttachmentHandler(svc.Attachment),
		Export:     NewExportHandler(svc.Export),
		SSE:        NewSSEHandler(),
	}
}

// Response is the common envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes an error envelope; the HTTP status is code/100.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func Unprocessable(c *gin.Context, message string) {
	Error(c, 42200, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// HandleError maps the service error taxonomy onto the envelope. Every
// recoverable kind surfaces its message verbatim so the caller knows what
// to fix; invariant violations stay opaque.
func HandleError(c *gin.Context, err error) {
	var (
		validation    *service.ValidationError
		precondition  *service.PreconditionError
		authorization *service.AuthorizationError
		conflict      *service.ConflictError
		invariant     *service.InvariantViolation
	)
	switch {
	case errors.As(err, &validation):
		BadRequest(c, validation.Error())
	case errors.As(err, &precondition):
		Unprocessable(c, precondition.Error())
	case errors.As(err, &authorization):
		Forbidden(c, authorization.Error())
	case errors.As(err, &conflict):
		Conflict(c, conflict.Error())
	case errors.As(err, &invariant):
		InternalError(c, "internal error")
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "record not found")
	default:
		InternalError(c, err.Error())
	}
}

// Actor reads the authenticated principal off the context.
func Actor(c *gin.Context) service.Principal {
	return service.Principal{
		UserID: c.GetString("user_id"),
		Role:   c.GetString("role"),
	}
}

// GetPagination reads page/page_size query params with sane bounds.
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}
	return page, pageSize
}
