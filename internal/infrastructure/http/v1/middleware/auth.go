package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"kadryhr/internal/core/apperror"
	appctx "kadryhr/internal/core/context"
	"kadryhr/internal/domain/auth"
)

// SessionCookie carries the opaque session token issued at login.
const SessionCookie = "kadry_session"

// IdentityResolver turns a request credential into the caller identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, cred auth.Credential) (*appctx.Identity, error)
}

// Auth resolves the session cookie or bearer token and stores the identity in the request context.
// Requests without a valid credential are rejected with 401 before any handler runs.
func Auth(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred, ok := credentialFrom(c)
		if !ok {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}
		if cred.Empty() {
			abortUnauthorized(c, "Authentication required")
			return
		}

		ident, err := resolver.Resolve(c.Request.Context(), cred)
		if err != nil {
			if !apperror.IsAppError(err) {
				err = apperror.NewInternal(err)
			}
			_ = c.Error(err)
			c.Abort()
			return
		}

		setIdentity(c, ident)
		c.Next()
	}
}

// OptionalAuth resolves a credential when one is present and proceeds anonymously otherwise.
func OptionalAuth(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred, ok := credentialFrom(c)
		if !ok || cred.Empty() {
			c.Next()
			return
		}
		if ident, err := resolver.Resolve(c.Request.Context(), cred); err == nil && ident != nil {
			setIdentity(c, ident)
		}
		c.Next()
	}
}

// credentialFrom reads the bearer token and session cookie.
// ok is false when an Authorization header is present but malformed.
func credentialFrom(c *gin.Context) (auth.Credential, bool) {
	var cred auth.Credential
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		cred.SessionToken = cookie
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		return cred, true
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return cred, false
	}
	cred.BearerToken = strings.TrimSpace(parts[1])
	return cred, true
}

func setIdentity(c *gin.Context, ident *appctx.Identity) {
	c.Request = c.Request.WithContext(appctx.WithIdentity(c.Request.Context(), ident))
	c.Set("user_id", ident.UserID.String())
	c.Set("organisation_id", ident.OrganisationID.String())
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
