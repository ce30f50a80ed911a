// Package employee manages the organisation's roster records.
package employee

import (
	"context"
	"strings"

	"kadryhr/internal/core/entity"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/validation"
)

// Status of a roster record.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusTerminated Status = "terminated"
)

// Statuses lists the accepted status values.
func Statuses() []string {
	return []string{string(StatusActive), string(StatusInactive), string(StatusTerminated)}
}

// Employee is a roster record. It may be linked to a login user.
type Employee struct {
	entity.TenantEntity

	UserID    *id.ID   `db:"user_id" json:"userId,omitempty"`
	FirstName string   `db:"first_name" json:"firstName"`
	LastName  string   `db:"last_name" json:"lastName"`
	Email     string   `db:"email" json:"email"`
	Phone     string   `db:"phone" json:"phone"`
	Position  string   `db:"position" json:"position"`
	Status    Status   `db:"status" json:"status"`
	Tags      []string `db:"tags" json:"tags"`
}

// New creates an active employee.
func New(firstName, lastName string) *Employee {
	return &Employee{
		TenantEntity: entity.NewTenantEntity(),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Status:       StatusActive,
		Tags:         []string{},
	}
}

// FullName returns "First Last".
func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Validate implements entity.Validatable.
func (e *Employee) Validate(_ context.Context) error {
	var errs validation.Errors
	errs.Required("firstName", e.FirstName)
	errs.Required("lastName", e.LastName)
	errs.MaxLength("firstName", e.FirstName, 100)
	errs.MaxLength("lastName", e.LastName, 100)
	errs.Email("email", e.Email)
	errs.OneOf("status", string(e.Status), Statuses()...)
	for _, tag := range e.Tags {
		if strings.TrimSpace(tag) == "" {
			errs.Add("tags", "must not contain empty values")
			break
		}
	}
	return errs.Err()
}
