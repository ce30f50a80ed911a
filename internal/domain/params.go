package domain

import (
	"context"
	"strings"
	"time"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/entity"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/validation"
	"kadryhr/internal/domain/filter"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Params turns raw query parameters into filter items, collecting field errors.
type Params struct {
	errs  validation.Errors
	items []filter.Item
}

// ID adds column = value when raw is a valid id.
func (p *Params) ID(field, column, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	v, err := id.Parse(raw)
	if err != nil {
		p.errs.Add(field, "must be a valid id")
		return
	}
	p.items = append(p.items, filter.Eq(column, v))
}

// Enum adds column = value when raw is one of allowed.
func (p *Params) Enum(field, column, raw string, allowed ...string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	for _, a := range allowed {
		if raw == a {
			p.items = append(p.items, filter.Eq(column, raw))
			return
		}
	}
	p.errs.OneOf(field, raw, allowed...)
}

// Date parses raw as a calendar date. Returns nil when raw is empty or invalid.
func (p *Params) Date(field, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		p.errs.Add(field, "must be a date in YYYY-MM-DD format")
		return nil
	}
	return &t
}

// Add appends conditions built by the caller.
func (p *Params) Add(items ...filter.Item) {
	p.items = append(p.items, items...)
}

// Invalid records a field error.
func (p *Params) Invalid(field, message string) {
	p.errs.Add(field, message)
}

// Filter returns the collected items or a validation error.
func (p *Params) Filter(base ListFilter) (ListFilter, error) {
	if err := p.errs.Err(); err != nil {
		return base, err
	}
	return base.With(p.items...), nil
}

// Existence is satisfied by services that can check an id within the caller's organisation.
type Existence interface {
	Exists(ctx context.Context, entityID id.ID) (bool, error)
}

// RequireReference fails with a field-level validation error when ref does not
// exist in the caller's organisation. A foreign id looks the same as a missing one.
func RequireReference(ctx context.Context, checker Existence, field string, ref id.ID) error {
	ok, err := checker.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewFieldValidation(apperror.FieldError{Field: field, Message: "does not exist"})
	}
	return nil
}

// Referrer reports whether rows of the caller's organisation point at parentID through column.
type Referrer interface {
	ReferencedBy(ctx context.Context, column string, parentID id.ID) (bool, error)
}

// RestrictDelete refuses to delete a parent while dependents still reference it.
// The database enforces the same rule with ON DELETE RESTRICT.
func RestrictDelete[T entity.Scoped](hooks *HookRegistry[T], entityName, column, dependents string, r Referrer) {
	hooks.OnBeforeDelete(func(ctx context.Context, parent T) error {
		used, err := r.ReferencedBy(ctx, column, parent.GetID())
		if err != nil {
			return err
		}
		if used {
			return apperror.NewConflict(entityName+" is referenced by "+dependents).
				WithContext("dependents", dependents)
		}
		return nil
	})
}
