// Package dto provides data transfer objects for the HTTP API.
// Request DTOs carry gin binding rules; domain entities are returned as-is.
package dto

import (
	"time"

	"kadryhr/internal/core/id"
	"kadryhr/internal/core/validation"
	"kadryhr/internal/domain"
)

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// refs parses ids and dates from request strings, collecting field errors.
type refs struct {
	errs validation.Errors
}

func (r *refs) id(field, raw string) id.ID {
	v, err := id.Parse(raw)
	if err != nil {
		r.errs.Add(field, "must be a valid id")
		return id.Nil()
	}
	return v
}

func (r *refs) optionalID(field string, raw *string) *id.ID {
	if raw == nil || *raw == "" {
		return nil
	}
	v, err := id.Parse(*raw)
	if err != nil {
		r.errs.Add(field, "must be a valid id")
		return nil
	}
	return &v
}

func (r *refs) date(field, raw string) time.Time {
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		r.errs.Add(field, "must be a date in YYYY-MM-DD format")
		return time.Time{}
	}
	return t
}

func (r *refs) err() error {
	return r.errs.Err()
}
