// Package shift manages scheduled working time.
package shift

import (
	"context"
	"time"

	"kadryhr/internal/core/entity"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/validation"
)

// Shift is one scheduled block of work for an employee.
type Shift struct {
	entity.TenantEntity

	EmployeeID id.ID     `db:"employee_id" json:"employeeId"`
	LocationID *id.ID    `db:"location_id" json:"locationId,omitempty"`
	StartsAt   time.Time `db:"starts_at" json:"startsAt"`
	EndsAt     time.Time `db:"ends_at" json:"endsAt"`
	Position   string    `db:"position" json:"position"`
	Notes      string    `db:"notes" json:"notes"`
}

// New creates a shift.
func New(employeeID id.ID, startsAt, endsAt time.Time) *Shift {
	return &Shift{
		TenantEntity: entity.NewTenantEntity(),
		EmployeeID:   employeeID,
		StartsAt:     startsAt.UTC(),
		EndsAt:       endsAt.UTC(),
	}
}

// Duration returns the scheduled length.
func (s *Shift) Duration() time.Duration {
	return s.EndsAt.Sub(s.StartsAt)
}

// Validate implements entity.Validatable.
func (s *Shift) Validate(_ context.Context) error {
	var errs validation.Errors
	errs.Check(!id.IsNil(s.EmployeeID), "employeeId", "is required")
	errs.Check(!s.StartsAt.IsZero(), "startsAt", "is required")
	errs.Check(!s.EndsAt.IsZero(), "endsAt", "is required")
	if !s.StartsAt.IsZero() && !s.EndsAt.IsZero() {
		errs.Check(s.StartsAt.Before(s.EndsAt), "endsAt", "must be after startsAt")
	}
	errs.MaxLength("position", s.Position, 100)
	errs.MaxLength("notes", s.Notes, 2000)
	return errs.Err()
}
