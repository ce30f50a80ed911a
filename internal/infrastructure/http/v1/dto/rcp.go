package dto

import (
	"time"

	"kadryhr/internal/domain/rcp"
)

// ClockRequest records a clock-in or clock-out. occurredAt defaults to now.
type ClockRequest struct {
	EmployeeID string     `json:"employeeId" binding:"required"`
	Kind       string     `json:"kind" binding:"required,oneof=clock_in clock_out"`
	OccurredAt *time.Time `json:"occurredAt"`
	Latitude   *float64   `json:"latitude" binding:"omitempty,latitude"`
	Longitude  *float64   `json:"longitude" binding:"omitempty,longitude"`
	Source     string     `json:"source" binding:"omitempty,oneof=panel mobile kiosk"`
}

// ToEntity converts to a new event.
func (r *ClockRequest) ToEntity() (*rcp.Event, error) {
	var p refs
	var at time.Time
	if r.OccurredAt != nil {
		at = *r.OccurredAt
	}
	e := rcp.New(p.id("employeeId", r.EmployeeID), rcp.Kind(r.Kind), at)
	e.Latitude = r.Latitude
	e.Longitude = r.Longitude
	if r.Source != "" {
		e.Source = r.Source
	}
	return e, p.err()
}
