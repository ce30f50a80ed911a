// Package location manages workplaces shifts are scheduled at.
package location

import (
	"context"
	"strings"

	"kadryhr/internal/core/entity"
	"kadryhr/internal/core/tx"
	"kadryhr/internal/core/validation"
	"kadryhr/internal/domain"
	"kadryhr/internal/domain/audit"
)

// EntityType is the audit entity type of locations.
const EntityType = "location"

// Location is a named workplace.
type Location struct {
	entity.TenantEntity

	Name    string `db:"name" json:"name"`
	Address string `db:"address" json:"address"`
}

// New creates a location.
func New(name, address string) *Location {
	return &Location{
		TenantEntity: entity.NewTenantEntity(),
		Name:         strings.TrimSpace(name),
		Address:      strings.TrimSpace(address),
	}
}

// Validate implements entity.Validatable.
func (l *Location) Validate(_ context.Context) error {
	var errs validation.Errors
	errs.Required("name", l.Name)
	errs.MaxLength("name", l.Name, 200)
	errs.MaxLength("address", l.Address, 500)
	return errs.Err()
}

// ListQuery holds the list endpoint parameters.
type ListQuery struct {
	Search string `form:"search"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// Service provides location operations.
type Service struct {
	*domain.ScopedService[*Location]
}

// NewService creates the location service.
func NewService(repo domain.ScopedRepository[*Location], txm tx.Manager, recorder *audit.Recorder) *Service {
	return &Service{
		ScopedService: domain.NewScopedService(domain.ScopedServiceConfig[*Location]{
			Repo:       repo,
			TxManager:  txm,
			Recorder:   recorder,
			EntityType: EntityType,
			EntityName: "Location",
		}),
	}
}

// List returns locations ordered by name.
func (s *Service) List(ctx context.Context, q ListQuery) (domain.ListResult[*Location], error) {
	return s.ScopedService.List(ctx, domain.ListFilter{
		Search:  q.Search,
		OrderBy: "name",
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
}

// RestrictDelete keeps locations from being deleted while dependents reference them.
func (s *Service) RestrictDelete(dependents string, r domain.Referrer) {
	domain.RestrictDelete(s.Hooks(), "Location", "location_id", dependents, r)
}
