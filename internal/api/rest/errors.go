package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/flightstake-indexer/internal/logger"
)

// ErrorCode classifies a failed request
type ErrorCode string

const (
	ErrCodeBadRequest       ErrorCode = "bad_request"
	ErrCodeValidationFailed ErrorCode = "validation_failed"
	ErrCodeInternalError    ErrorCode = "internal_error"
	ErrCodeServiceError     ErrorCode = "service_error"
)

// APIError is the JSON body of every failed request
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code ErrorCode, message string, details ...string) {
	c.AbortWithStatusJSON(status, APIError{
		Code:    code,
		Message: message,
		Details: strings.Join(details, ", "),
	})
}

func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondError(c, http.StatusBadRequest, ErrCodeBadRequest, message, details...)
}

func respondValidationError(c *gin.Context, details string) {
	respondError(c, http.StatusUnprocessableEntity, ErrCodeValidationFailed, "Validation failed", details)
}

// respondServiceError logs the cause, clients only see the message
func respondServiceError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.ErrorCtx(c.Request.Context(), err, append(fields, zap.String("path", c.Request.URL.Path))...)
	respondError(c, http.StatusInternalServerError, ErrCodeServiceError, message)
}

func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.ErrorCtx(c.Request.Context(), err, append(fields, zap.String("path", c.Request.URL.Path))...)
	respondError(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}
