// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"github.com/gin-gonic/gin"

	"kadryhr/internal/core/apperror"
	appctx "kadryhr/internal/core/context"
	"kadryhr/internal/core/security"
)

// RequirePermission rejects the request unless the caller's role may perform action.
// It runs before the handler, so a denied request never reaches the domain layer.
func RequirePermission(action security.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := appctx.GetIdentity(c.Request.Context())
		if ident == nil {
			abortUnauthorized(c, "Authentication required")
			return
		}

		if !security.Allowed(ident.Role, action) {
			_ = c.Error(
				apperror.NewForbidden("Insufficient permissions").
					WithContext("required_action", string(action)).
					WithContext("role", string(ident.Role)),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}
