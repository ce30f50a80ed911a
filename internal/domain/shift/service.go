package shift

import (
	"context"

	"kadryhr/internal/core/tx"
	"kadryhr/internal/domain"
	"kadryhr/internal/domain/audit"
	"kadryhr/internal/domain/filter"
)

// EntityType is the audit entity type of shifts.
const EntityType = "shift"

// ListQuery holds the list endpoint parameters.
// startDate/endDate select shifts overlapping the closed date range.
type ListQuery struct {
	EmployeeID string `form:"employeeId"`
	LocationID string `form:"locationId"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// Service provides shift operations.
type Service struct {
	*domain.ScopedService[*Shift]
	employees domain.Existence
	locations domain.Existence
}

// NewService creates the shift service.
func NewService(
	repo domain.ScopedRepository[*Shift],
	txm tx.Manager,
	recorder *audit.Recorder,
	employees, locations domain.Existence,
) *Service {
	s := &Service{
		ScopedService: domain.NewScopedService(domain.ScopedServiceConfig[*Shift]{
			Repo:       repo,
			TxManager:  txm,
			Recorder:   recorder,
			EntityType: EntityType,
			EntityName: "Shift",
		}),
		employees: employees,
		locations: locations,
	}
	s.Hooks().OnBeforeCreate(s.checkReferences)
	s.Hooks().OnBeforeUpdate(s.checkReferences)
	return s
}

func (s *Service) checkReferences(ctx context.Context, sh *Shift) error {
	if err := domain.RequireReference(ctx, s.employees, "employeeId", sh.EmployeeID); err != nil {
		return err
	}
	if sh.LocationID != nil {
		return domain.RequireReference(ctx, s.locations, "locationId", *sh.LocationID)
	}
	return nil
}

// List returns shifts ordered by start time.
func (s *Service) List(ctx context.Context, q ListQuery) (domain.ListResult[*Shift], error) {
	var p domain.Params
	p.ID("employeeId", "employee_id", q.EmployeeID)
	p.ID("locationId", "location_id", q.LocationID)
	start := p.Date("startDate", q.StartDate)
	end := p.Date("endDate", q.EndDate)
	if start != nil && end != nil && end.Before(*start) {
		p.Invalid("endDate", "must not be before startDate")
	}
	// Overlap with [startDate 00:00, endDate+1 00:00).
	if start != nil {
		p.Add(filter.Gt("ends_at", *start))
	}
	if end != nil {
		p.Add(filter.Lt("starts_at", end.AddDate(0, 0, 1)))
	}

	f, err := p.Filter(domain.ListFilter{
		OrderBy: "starts_at",
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		return domain.ListResult[*Shift]{}, err
	}
	return s.ScopedService.List(ctx, f)
}
