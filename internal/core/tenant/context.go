// Package tenant provides organisation scoping for row-level multi-tenancy.
// Every tenant-owned row carries organisation_id; the value used to scope
// reads and writes comes only from the resolved identity.
package tenant

import (
	"context"

	"kadryhr/internal/core/apperror"
	appctx "kadryhr/internal/core/context"
	"kadryhr/internal/core/id"
)

// OrganisationID returns the caller's organisation from the resolved identity.
func OrganisationID(ctx context.Context) (id.ID, error) {
	identity := appctx.GetIdentity(ctx)
	if identity == nil || id.IsNil(identity.OrganisationID) {
		return id.Nil(), ErrNoIdentity
	}
	return identity.OrganisationID, nil
}

// Scope returns the caller's organisation and user ids, failing with 401
// when the request carries no identity.
func Scope(ctx context.Context) (orgID, actorID id.ID, err error) {
	identity := appctx.GetIdentity(ctx)
	if identity == nil || id.IsNil(identity.OrganisationID) {
		return id.Nil(), id.Nil(), apperror.NewUnauthorized("authentication required").WithCause(ErrNoIdentity)
	}
	return identity.OrganisationID, identity.UserID, nil
}

// Current returns the tenant descriptor of the caller, or nil.
func Current(ctx context.Context) *appctx.Tenant {
	if identity := appctx.GetIdentity(ctx); identity != nil {
		return &identity.Tenant
	}
	return nil
}
