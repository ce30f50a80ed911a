package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"kadryhr/pkg/logger"
)

// Recovery recovers from panics and answers with the generic 500 envelope.
// The stack trace is logged but never exposed to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)

				if !c.Writer.Written() {
					status, body := NewErrorResponse(fmt.Errorf("panic: %v", rec))
					c.AbortWithStatusJSON(status, body)
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
