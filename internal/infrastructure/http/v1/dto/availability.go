package dto

import (
	"kadryhr/internal/domain/availability"
)

// CreateAvailabilityRequest declares a window on a date or a recurring weekday.
// Minutes count from midnight; 0 and 1440 are both valid bounds.
type CreateAvailabilityRequest struct {
	EmployeeID   string  `json:"employeeId" binding:"required"`
	Date         *string `json:"date"`
	Weekday      *int    `json:"weekday" binding:"omitempty,gte=0,lte=6"`
	StartMinutes *int    `json:"startMinutes" binding:"required,gte=0,lte=1440"`
	EndMinutes   *int    `json:"endMinutes" binding:"required,gte=0,lte=1440"`
	Notes        string  `json:"notes" binding:"max=1000"`
}

// ToEntity converts to a new pending entry.
func (r *CreateAvailabilityRequest) ToEntity() (*availability.Availability, error) {
	var p refs
	a := availability.New(p.id("employeeId", r.EmployeeID), *r.StartMinutes, *r.EndMinutes)
	if r.Date != nil {
		d := p.date("date", *r.Date)
		a.Date = &d
	}
	a.Weekday = r.Weekday
	a.Notes = r.Notes
	return a, p.err()
}

// UpdateAvailabilityRequest changes the provided fields only.
// Setting date clears weekday and the other way round.
type UpdateAvailabilityRequest struct {
	Date         *string `json:"date"`
	Weekday      *int    `json:"weekday" binding:"omitempty,gte=0,lte=6"`
	StartMinutes *int    `json:"startMinutes" binding:"omitempty,gte=0,lte=1440"`
	EndMinutes   *int    `json:"endMinutes" binding:"omitempty,gte=0,lte=1440"`
	Notes        *string `json:"notes" binding:"omitempty,max=1000"`
}

// ApplyTo merges the request into a.
func (r *UpdateAvailabilityRequest) ApplyTo(a *availability.Availability) error {
	var p refs
	switch {
	case r.Date != nil && r.Weekday != nil:
		p.errs.Add("weekday", "must not be set together with date")
	case r.Date != nil:
		d := p.date("date", *r.Date)
		a.Date, a.Weekday = &d, nil
	case r.Weekday != nil:
		w := *r.Weekday
		a.Date, a.Weekday = nil, &w
	}
	if r.StartMinutes != nil {
		a.StartMinutes = *r.StartMinutes
	}
	if r.EndMinutes != nil {
		a.EndMinutes = *r.EndMinutes
	}
	if r.Notes != nil {
		a.Notes = *r.Notes
	}
	return p.err()
}
