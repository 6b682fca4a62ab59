// Package handler holds the gin handlers of the bookshop API.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/infrastructure/logger"
	"github.com/bookshop/backend/internal/interfaces/http/dto"
	"github.com/bookshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := middleware.GetRequestID(c); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 response with a transport-level code
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.abort(c, http.StatusBadRequest, dto.ErrorInfo{
		Code:     dto.ErrCodeBadRequest,
		Category: string(shared.CategoryInvalidArgument),
		Message:  message,
	})
}

// ValidationError sends a 400 response listing the rejected fields
func (h *BaseHandler) ValidationError(c *gin.Context, fields []dto.ValidationDetail) {
	h.abort(c, http.StatusBadRequest, dto.ErrorInfo{
		Code:     dto.ErrCodeValidation,
		Category: string(shared.CategoryInvalidArgument),
		Message:  "Request validation failed",
		Fields:   fields,
	})
}

// HandleError maps err onto the error envelope. Unexpected errors are logged
// with their cause and answered with an opaque message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	status := dto.GetHTTPStatus(err)
	info := dto.ErrorInfoFor(err, getRequestID(c))

	log := logger.L(c.Request.Context())
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
	case shared.IsRetryable(err):
		log.Warn("request contended", zap.String("code", info.Code), zap.String("path", c.FullPath()))
	}

	h.abort(c, status, info)
}

func (h *BaseHandler) abort(c *gin.Context, status int, info dto.ErrorInfo) {
	if info.RequestID == "" {
		info.RequestID = getRequestID(c)
	}
	c.Set(middleware.ErrorCodeKey, info.Code)
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(info))
}

// bindJSON binds the body into req and answers 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.bindFailed(c, err)
		return false
	}
	return true
}

// bindQuery binds the query string into req and answers 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.bindFailed(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) bindFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		h.ValidationError(c, validationDetails(verrs))
		return
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.abort(c, http.StatusRequestEntityTooLarge, dto.ErrorInfo{
			Code:    dto.ErrCodeBodyTooLarge,
			Message: "Request body exceeds maximum allowed size",
		})
		return
	}
	h.BadRequest(c, "Malformed request: "+err.Error())
}

func validationDetails(verrs validator.ValidationErrors) []dto.ValidationDetail {
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, dto.ValidationDetail{
			Field:   fieldPath(fe.Namespace()),
			Rule:    fe.Tag(),
			Message: validationMessage(fe),
		})
	}
	return details
}

// fieldPath drops the struct name from a validator namespace
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "email":
		return fe.Field() + " must be a valid email address"
	default:
		return fe.Field() + " failed rule " + fe.Tag()
	}
}

// uuidParam parses a path parameter as a UUID and answers 400 on failure
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		h.abort(c, http.StatusBadRequest, dto.ErrorInfo{
			Code:     "INVALID_ID",
			Category: string(shared.CategoryInvalidArgument),
			Message:  "Invalid " + name + ": " + raw,
		})
		return uuid.Nil, false
	}
	return id, true
}

// intQuery reads an optional non-negative integer query parameter
func (h *BaseHandler) intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		h.BadRequest(c, "Invalid "+name+": "+raw)
		return 0, false
	}
	return n, true
}
