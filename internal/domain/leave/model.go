// Package leave manages leave requests and their decision workflow.
package leave

import (
	"context"
	"time"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/entity"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/validation"
)

// Category of leave.
type Category string

const (
	CategoryPaid   Category = "paid"
	CategorySick   Category = "sick"
	CategoryUnpaid Category = "unpaid"
	CategoryOther  Category = "other"
)

// Categories lists the accepted categories.
func Categories() []string {
	return []string{string(CategoryPaid), string(CategorySick), string(CategoryUnpaid), string(CategoryOther)}
}

// Status of a leave request. Every status except pending is terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Statuses lists the accepted status values.
func Statuses() []string {
	return []string{string(StatusPending), string(StatusApproved), string(StatusRejected), string(StatusCancelled)}
}

// Request is a leave request for a closed date range.
type Request struct {
	entity.TenantEntity

	EmployeeID id.ID      `db:"employee_id" json:"employeeId"`
	Category   Category   `db:"category" json:"category"`
	Status     Status     `db:"status" json:"status"`
	StartDate  time.Time  `db:"start_date" json:"startDate"`
	EndDate    time.Time  `db:"end_date" json:"endDate"`
	Reason     string     `db:"reason" json:"reason"`
	DecidedBy  *id.ID     `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt  *time.Time `db:"decided_at" json:"decidedAt,omitempty"`
}

// New creates a pending request.
func New(employeeID id.ID, category Category, startDate, endDate time.Time) *Request {
	return &Request{
		TenantEntity: entity.NewTenantEntity(),
		EmployeeID:   employeeID,
		Category:     category,
		Status:       StatusPending,
		StartDate:    startDate.UTC(),
		EndDate:      endDate.UTC(),
	}
}

// Days returns the number of calendar days covered, inclusive.
func (r *Request) Days() int {
	return int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
}

// Validate implements entity.Validatable.
func (r *Request) Validate(_ context.Context) error {
	var errs validation.Errors
	errs.Check(!id.IsNil(r.EmployeeID), "employeeId", "is required")
	errs.OneOf("category", string(r.Category), Categories()...)
	errs.OneOf("status", string(r.Status), Statuses()...)
	errs.Check(!r.StartDate.IsZero(), "startDate", "is required")
	errs.Check(!r.EndDate.IsZero(), "endDate", "is required")
	if !r.StartDate.IsZero() && !r.EndDate.IsZero() {
		errs.Check(!r.EndDate.Before(r.StartDate), "endDate", "must not be before startDate")
	}
	errs.MaxLength("reason", r.Reason, 1000)
	return errs.Err()
}

// Approve records a positive decision.
func (r *Request) Approve(by id.ID, at time.Time) error {
	return r.decide(StatusApproved, by, at)
}

// Reject records a negative decision.
func (r *Request) Reject(by id.ID, at time.Time) error {
	return r.decide(StatusRejected, by, at)
}

// Cancel withdraws a pending request.
func (r *Request) Cancel() error {
	if r.Status != StatusPending {
		return apperror.NewInvalidState("Leave request", string(r.Status), string(StatusCancelled))
	}
	r.Status = StatusCancelled
	return nil
}

func (r *Request) decide(to Status, by id.ID, at time.Time) error {
	if r.Status != StatusPending {
		return apperror.NewInvalidState("Leave request", string(r.Status), string(to))
	}
	at = at.UTC()
	r.Status = to
	r.DecidedBy = &by
	r.DecidedAt = &at
	return nil
}
