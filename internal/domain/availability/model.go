// Package availability manages when employees declare they can work.
package availability

import (
	"context"
	"time"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/entity"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/validation"
)

// MinutesPerDay bounds StartMinutes and EndMinutes.
const MinutesPerDay = 1440

// Status of an availability entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Statuses lists the accepted status values.
func Statuses() []string {
	return []string{string(StatusPending), string(StatusApproved), string(StatusRejected)}
}

// Availability is a window on either one date or a recurring weekday (0 = Sunday).
type Availability struct {
	entity.TenantEntity

	EmployeeID   id.ID      `db:"employee_id" json:"employeeId"`
	Date         *time.Time `db:"date" json:"date,omitempty"`
	Weekday      *int       `db:"weekday" json:"weekday,omitempty"`
	StartMinutes int        `db:"start_minutes" json:"startMinutes"`
	EndMinutes   int        `db:"end_minutes" json:"endMinutes"`
	Status       Status     `db:"status" json:"status"`
	Notes        string     `db:"notes" json:"notes"`
}

// New creates a pending entry.
func New(employeeID id.ID, startMinutes, endMinutes int) *Availability {
	return &Availability{
		TenantEntity: entity.NewTenantEntity(),
		EmployeeID:   employeeID,
		StartMinutes: startMinutes,
		EndMinutes:   endMinutes,
		Status:       StatusPending,
	}
}

// Validate implements entity.Validatable.
func (a *Availability) Validate(_ context.Context) error {
	var errs validation.Errors
	errs.Check(!id.IsNil(a.EmployeeID), "employeeId", "is required")
	switch {
	case a.Date == nil && a.Weekday == nil:
		errs.Add("date", "either date or weekday is required")
	case a.Date != nil && a.Weekday != nil:
		errs.Add("weekday", "must not be set together with date")
	case a.Weekday != nil:
		errs.Check(*a.Weekday >= 0 && *a.Weekday <= 6, "weekday", "must be between 0 and 6")
	}
	errs.Check(a.StartMinutes >= 0 && a.StartMinutes <= MinutesPerDay, "startMinutes", "must be between 0 and 1440")
	errs.Check(a.EndMinutes >= 0 && a.EndMinutes <= MinutesPerDay, "endMinutes", "must be between 0 and 1440")
	errs.Check(a.StartMinutes < a.EndMinutes, "endMinutes", "must be greater than startMinutes")
	errs.OneOf("status", string(a.Status), Statuses()...)
	errs.MaxLength("notes", a.Notes, 1000)
	return errs.Err()
}

// Decide moves a pending entry to approved or rejected.
func (a *Availability) Decide(to Status) error {
	if a.Status != StatusPending {
		return apperror.NewInvalidState("Availability", string(a.Status), string(to))
	}
	a.Status = to
	return nil
}
