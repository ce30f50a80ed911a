package dto

import (
	"time"

	"kadryhr/internal/domain/shift"
)

// CreateShiftRequest schedules a shift. Times are RFC 3339.
type CreateShiftRequest struct {
	EmployeeID string    `json:"employeeId" binding:"required"`
	LocationID *string   `json:"locationId"`
	StartsAt   time.Time `json:"startsAt"`
	EndsAt     time.Time `json:"endsAt"`
	Position   string    `json:"position" binding:"max=100"`
	Notes      string    `json:"notes" binding:"max=2000"`
}

// ToEntity converts to a new shift.
func (r *CreateShiftRequest) ToEntity() (*shift.Shift, error) {
	var p refs
	s := shift.New(p.id("employeeId", r.EmployeeID), r.StartsAt, r.EndsAt)
	s.LocationID = p.optionalID("locationId", r.LocationID)
	s.Position = r.Position
	s.Notes = r.Notes
	return s, p.err()
}

// UpdateShiftRequest changes the provided fields only.
type UpdateShiftRequest struct {
	EmployeeID *string    `json:"employeeId"`
	LocationID *string    `json:"locationId"`
	StartsAt   *time.Time `json:"startsAt"`
	EndsAt     *time.Time `json:"endsAt"`
	Position   *string    `json:"position" binding:"omitempty,max=100"`
	Notes      *string    `json:"notes" binding:"omitempty,max=2000"`
}

// ApplyTo merges the request into s.
func (r *UpdateShiftRequest) ApplyTo(s *shift.Shift) error {
	var p refs
	if r.EmployeeID != nil {
		s.EmployeeID = p.id("employeeId", *r.EmployeeID)
	}
	if r.LocationID != nil {
		s.LocationID = p.optionalID("locationId", r.LocationID)
	}
	if r.StartsAt != nil {
		s.StartsAt = r.StartsAt.UTC()
	}
	if r.EndsAt != nil {
		s.EndsAt = r.EndsAt.UTC()
	}
	if r.Position != nil {
		s.Position = *r.Position
	}
	if r.Notes != nil {
		s.Notes = *r.Notes
	}
	return p.err()
}
