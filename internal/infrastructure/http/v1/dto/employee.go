package dto

import (
	"strings"

	"kadryhr/internal/domain/employee"
)

// CreateEmployeeRequest for creating a roster record.
type CreateEmployeeRequest struct {
	FirstName string   `json:"firstName" binding:"required,max=100"`
	LastName  string   `json:"lastName" binding:"required,max=100"`
	Email     string   `json:"email" binding:"omitempty,email"`
	Phone     string   `json:"phone" binding:"max=50"`
	Position  string   `json:"position" binding:"max=100"`
	Status    string   `json:"status" binding:"omitempty,oneof=active inactive terminated"`
	Tags      []string `json:"tags"`
	UserID    *string  `json:"userId"`
}

// ToEntity converts to a new employee.
func (r *CreateEmployeeRequest) ToEntity() (*employee.Employee, error) {
	var p refs
	e := employee.New(r.FirstName, r.LastName)
	e.Email = strings.TrimSpace(r.Email)
	e.Phone = strings.TrimSpace(r.Phone)
	e.Position = strings.TrimSpace(r.Position)
	if r.Status != "" {
		e.Status = employee.Status(r.Status)
	}
	if r.Tags != nil {
		e.Tags = r.Tags
	}
	e.UserID = p.optionalID("userId", r.UserID)
	return e, p.err()
}

// UpdateEmployeeRequest changes the provided fields only.
type UpdateEmployeeRequest struct {
	FirstName *string   `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string   `json:"lastName" binding:"omitempty,max=100"`
	Email     *string   `json:"email" binding:"omitempty,email"`
	Phone     *string   `json:"phone" binding:"omitempty,max=50"`
	Position  *string   `json:"position" binding:"omitempty,max=100"`
	Status    *string   `json:"status" binding:"omitempty,oneof=active inactive terminated"`
	Tags      *[]string `json:"tags"`
	UserID    *string   `json:"userId"`
}

// ApplyTo merges the request into e.
func (r *UpdateEmployeeRequest) ApplyTo(e *employee.Employee) error {
	var p refs
	if r.FirstName != nil {
		e.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		e.LastName = strings.TrimSpace(*r.LastName)
	}
	if r.Email != nil {
		e.Email = strings.TrimSpace(*r.Email)
	}
	if r.Phone != nil {
		e.Phone = strings.TrimSpace(*r.Phone)
	}
	if r.Position != nil {
		e.Position = strings.TrimSpace(*r.Position)
	}
	if r.Status != nil {
		e.Status = employee.Status(*r.Status)
	}
	if r.Tags != nil {
		e.Tags = *r.Tags
	}
	if r.UserID != nil {
		// An empty string unlinks the login user.
		e.UserID = p.optionalID("userId", r.UserID)
	}
	return p.err()
}
