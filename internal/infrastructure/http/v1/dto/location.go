package dto

import (
	"strings"

	"kadryhr/internal/domain/location"
)

// CreateLocationRequest for creating a workplace.
type CreateLocationRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Address string `json:"address" binding:"max=500"`
}

// ToEntity converts to a new location.
func (r *CreateLocationRequest) ToEntity() (*location.Location, error) {
	return location.New(r.Name, r.Address), nil
}

// UpdateLocationRequest changes the provided fields only.
type UpdateLocationRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=200"`
	Address *string `json:"address" binding:"omitempty,max=500"`
}

// ApplyTo merges the request into l.
func (r *UpdateLocationRequest) ApplyTo(l *location.Location) error {
	if r.Name != nil {
		l.Name = strings.TrimSpace(*r.Name)
	}
	if r.Address != nil {
		l.Address = strings.TrimSpace(*r.Address)
	}
	return nil
}
