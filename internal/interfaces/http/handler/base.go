// Package handler contains the gin handlers of the storefront API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/infrastructure/logger"
	"github.com/dshop/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}

// OK sends the bare {success:true} result
func (h *BaseHandler) OK(c *gin.Context) {
	c.JSON(http.StatusOK, dto.OK())
}

// Fail sends a {success:false} result with the given status
func (h *BaseHandler) Fail(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.Failure(message))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Fail(c, http.StatusBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Fail(c, http.StatusNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Fail(c, http.StatusInternalServerError, message)
}

// HandleError is a generic error handler that handles both domain and standard errors
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Fail(c, dto.StatusForDomainCode(domainErr.Code), domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error",
		zap.Error(err),
		zap.String("request_id", getRequestID(c)),
	)
	h.InternalError(c, "An unexpected error occurred")
}
