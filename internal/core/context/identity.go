// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"kadryhr/internal/core/id"
	"kadryhr/internal/core/security"
)

// Tenant describes the organisation a request is bound to.
type Tenant struct {
	ID   id.ID  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Identity is the authenticated caller resolved from a session or bearer token.
type Identity struct {
	UserID         id.ID
	OrganisationID id.ID
	Email          string
	Name           string
	Role           security.Role
	Tenant         Tenant
	SessionID      id.ID
}

type identityKey struct{}

// WithIdentity adds Identity to context.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentity returns Identity from context or nil.
func GetIdentity(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	return nil
}

// GetUserID returns the caller's user ID or the nil ID.
func GetUserID(ctx context.Context) id.ID {
	if u := GetIdentity(ctx); u != nil {
		return u.UserID
	}
	return id.Nil()
}

// GetRole returns the caller's role or an empty role.
func GetRole(ctx context.Context) security.Role {
	if u := GetIdentity(ctx); u != nil {
		return u.Role
	}
	return ""
}
