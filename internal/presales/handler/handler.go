package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/lymau/lead-app/internal/middleware"
	"github.com/lymau/lead-app/internal/presales/service"
	"github.com/lymau/lead-app/internal/shared/apperror"
)

// Handlers presales handler set
type Handlers struct {
	Opportunity *OpportunityHandler
	Master      *MasterHandler
	Export      *ExportHandler
}

func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Opportunity: NewOpportunityHandler(svc.Opportunity, svc.Query),
		Master:      NewMasterHandler(svc.Master),
		Export:      NewExportHandler(svc.Export),
	}
}

// Response common envelope
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse list envelope
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

// ErrorDetail tells the client whether resubmitting may succeed.
type ErrorDetail struct {
	Kind      apperror.Kind `json:"kind"`
	Retryable bool          `json:"retryable"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{Code: 0, Message: "success", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{Code: 0, Message: "success", Data: data})
}

// Error writes an error envelope. The HTTP status is code/100.
func Error(c *gin.Context, code int, message string, detail ...ErrorDetail) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	resp := Response{Code: code, Message: message}
	if len(detail) > 0 {
		resp.Data = detail[0]
	}
	c.JSON(statusCode, resp)
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message, ErrorDetail{Kind: apperror.KindValidation})
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message, ErrorDetail{Kind: apperror.KindNotFound})
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// Fail maps a service error onto the envelope.
func Fail(c *gin.Context, err error) {
	c.Error(err)

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		InternalError(c, err.Error())
		return
	}
	detail := ErrorDetail{Kind: appErr.Kind, Retryable: appErr.Retryable()}
	switch appErr.Kind {
	case apperror.KindValidation:
		Error(c, 40000, appErr.Error(), detail)
	case apperror.KindNotFound:
		Error(c, 40400, appErr.Error(), detail)
	case apperror.KindConflict:
		Error(c, 40900, appErr.Error(), detail)
	case apperror.KindStorage:
		Error(c, 50300, appErr.Error(), detail)
	case apperror.KindExhausted:
		Error(c, 50700, appErr.Error(), detail)
	default:
		Error(c, 50000, appErr.Error(), detail)
	}
}

// actingUser returns the presales name the caller acts as.
func actingUser(c *gin.Context) string {
	return middleware.ActingUser(c)
}
