// Package entity provides the base shapes shared by tenant-owned records.
package entity

import (
	"context"
	"time"

	"kadryhr/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants without database access.
type Validatable interface {
	Validate(ctx context.Context) error
}

// Scoped is a tenant-owned entity handled by the generic scoped service.
type Scoped interface {
	Validatable
	GetID() id.ID
	GetOrganisationID() id.ID
	AssignOrganisation(orgID id.ID)
	Touch(now time.Time)
}

// TenantEntity contains the columns every tenant-owned table has.
type TenantEntity struct {
	ID             id.ID     `db:"id" json:"id"`
	OrganisationID id.ID     `db:"organisation_id" json:"organisationId"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// NewTenantEntity creates a TenantEntity with a generated ID.
func NewTenantEntity() TenantEntity {
	now := time.Now().UTC()
	return TenantEntity{
		ID:        id.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetID returns the primary key.
func (e *TenantEntity) GetID() id.ID {
	return e.ID
}

// GetOrganisationID returns the owning organisation.
func (e *TenantEntity) GetOrganisationID() id.ID {
	return e.OrganisationID
}

// AssignOrganisation stamps the owning organisation.
func (e *TenantEntity) AssignOrganisation(orgID id.ID) {
	e.OrganisationID = orgID
}

// Touch updates the UpdatedAt timestamp.
func (e *TenantEntity) Touch(now time.Time) {
	e.UpdatedAt = now.UTC()
}
