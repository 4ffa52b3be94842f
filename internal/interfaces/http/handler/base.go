// Package handler contains the gin handlers for the storefront and admin APIs.
// Handlers bind and validate input, call one application service and write the
// standard response envelope.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

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

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ErrorWithCode sends an error response, deriving the status code from the error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps an application error to the response envelope.
// Domain errors carry their own code; provider sentinels map to gateway statuses.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	if de, ok := shared.AsDomainError(err); ok {
		h.ErrorWithCode(c, dto.NormalizeErrorCode(de.Code), de.Message)
		return
	}

	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, payment.ErrInvalidSignature):
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidSignature, "Webhook signature could not be verified")
	case errors.Is(err, payment.ErrInvalidWebhookPayload):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidPayload, "Webhook payload could not be parsed")
	case errors.Is(err, payment.ErrProviderNotConfigured):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Card payments are not available")
	case errors.Is(err, payment.ErrProviderRequestFailed), errors.Is(err, payment.ErrSessionNotFound):
		h.Error(c, http.StatusBadGateway, dto.ErrCodeUpstream, "Payment provider request failed")
	case errors.As(err, &maxBytes):
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size")
	default:
		logger.L(c.Request.Context()).Error("Unhandled request error",
			zap.String("route", c.FullPath()),
			zap.Error(err))
		h.InternalError(c, "An unexpected error occurred")
	}
}

// respondPage writes a paginated result with its meta block
func respondPage[T any](h *BaseHandler, c *gin.Context, page *shared.Paginated[T]) {
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
