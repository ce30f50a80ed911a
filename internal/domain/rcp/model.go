// Package rcp records time and attendance (clock-in / clock-out) events.
package rcp

import (
	"context"
	"time"

	"kadryhr/internal/core/entity"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/validation"
)

// Kind of attendance event.
type Kind string

const (
	KindClockIn  Kind = "clock_in"
	KindClockOut Kind = "clock_out"
)

// Source of an event.
const (
	SourcePanel  = "panel"
	SourceMobile = "mobile"
	SourceKiosk  = "kiosk"
)

// Event is an append-only attendance record.
type Event struct {
	entity.TenantEntity

	EmployeeID id.ID     `db:"employee_id" json:"employeeId"`
	Kind       Kind      `db:"kind" json:"kind"`
	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`
	Latitude   *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude  *float64  `db:"longitude" json:"longitude,omitempty"`
	Source     string    `db:"source" json:"source"`
}

// New creates an event occurring at occurredAt.
func New(employeeID id.ID, kind Kind, occurredAt time.Time) *Event {
	return &Event{
		TenantEntity: entity.NewTenantEntity(),
		EmployeeID:   employeeID,
		Kind:         kind,
		OccurredAt:   occurredAt.UTC(),
		Source:       SourcePanel,
	}
}

// Validate implements entity.Validatable.
func (e *Event) Validate(_ context.Context) error {
	var errs validation.Errors
	errs.Check(!id.IsNil(e.EmployeeID), "employeeId", "is required")
	errs.OneOf("kind", string(e.Kind), string(KindClockIn), string(KindClockOut))
	errs.Check(!e.OccurredAt.IsZero(), "occurredAt", "is required")
	errs.OneOf("source", e.Source, SourcePanel, SourceMobile, SourceKiosk)
	if e.Latitude != nil {
		errs.Check(*e.Latitude >= -90 && *e.Latitude <= 90, "latitude", "must be between -90 and 90")
	}
	if e.Longitude != nil {
		errs.Check(*e.Longitude >= -180 && *e.Longitude <= 180, "longitude", "must be between -180 and 180")
	}
	errs.Check((e.Latitude == nil) == (e.Longitude == nil), "longitude", "latitude and longitude go together")
	return errs.Err()
}
