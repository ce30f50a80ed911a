package employee

import (
	"context"

	"kadryhr/internal/core/apperror"
	appctx "kadryhr/internal/core/context"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/security"
	"kadryhr/internal/domain"
)

// Directory looks up employees of the caller's organisation.
type Directory interface {
	domain.Existence
	Get(ctx context.Context, employeeID id.ID) (*Employee, error)
}

// RequireActor checks that employeeID exists in the caller's organisation.
// Callers below manager may only act on the employee linked to their own account.
func RequireActor(ctx context.Context, dir Directory, field string, employeeID id.ID) error {
	ident := appctx.GetIdentity(ctx)
	if ident == nil {
		return apperror.NewUnauthorized("Authentication required")
	}
	if ident.Role.Includes(security.RoleManager) {
		return domain.RequireReference(ctx, dir, field, employeeID)
	}

	e, err := dir.Get(ctx, employeeID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewFieldValidation(apperror.FieldError{Field: field, Message: "does not exist"})
		}
		return err
	}
	if e.UserID == nil || *e.UserID != ident.UserID {
		return apperror.NewForbidden("Employees can only act on their own record")
	}
	return nil
}
