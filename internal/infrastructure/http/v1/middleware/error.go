package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"kadryhr/internal/core/apperror"
	"kadryhr/pkg/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string                `json:"error"`
	Code    string                `json:"code"`
	Details []apperror.FieldError `json:"details,omitempty"`
}

// NewErrorResponse converts err into the client-facing envelope and its status.
// Only validation errors expose field details; unknown errors become a generic 500.
func NewErrorResponse(err error) (int, ErrorResponse) {
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code == apperror.CodeInternal {
		return http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  apperror.CodeInternal,
		}
	}

	body := ErrorResponse{Error: appErr.Message, Code: appErr.Code}
	if appErr.Code == apperror.CodeValidation && len(appErr.Fields) > 0 {
		body.Details = appErr.Fields
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return status, body
}

// ErrorHandler writes the error envelope for the last error a handler attached with c.Error.
// Internal causes are logged with the request id and never sent to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		status, body := NewErrorResponse(err)
		ctx := c.Request.Context()
		if status >= http.StatusInternalServerError {
			logger.Error(ctx, "unhandled error", "error", err, "path", c.FullPath())
		} else if appErr, ok := apperror.AsAppError(err); ok && (appErr.Err != nil || len(appErr.Context) > 0) {
			logger.Debug(ctx, "request rejected", "code", appErr.Code, "cause", appErr.Err, "context", appErr.Context)
		}

		failIdempotency(c, status, body)
		c.JSON(status, body)
	}
}

func failIdempotency(c *gin.Context, status int, body ErrorResponse) {
	state := idempotencyFrom(c)
	if state == nil {
		return
	}
	data, err := json.Marshal(body)
	if err != nil {
		return
	}
	if err := state.store.FailKey(c.Request.Context(), state.key, status, "application/json; charset=utf-8", data); err != nil {
		logger.Warn(c.Request.Context(), "mark idempotency key failed", "error", err)
	}
}
