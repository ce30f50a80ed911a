package rcp

import (
	"context"
	"time"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/tx"
	"kadryhr/internal/domain"
	"kadryhr/internal/domain/audit"
	"kadryhr/internal/domain/employee"
	"kadryhr/internal/domain/filter"
)

// EntityType is the audit entity type of attendance events.
const EntityType = "time_event"

// maxClockSkew bounds how far in the future an event may be stamped.
const maxClockSkew = 5 * time.Minute

// ListQuery holds the list endpoint parameters.
type ListQuery struct {
	EmployeeID string `form:"employeeId"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// Service records attendance events.
type Service struct {
	scoped    *domain.ScopedService[*Event]
	employees employee.Directory
	now       func() time.Time
}

// NewService creates the attendance service.
func NewService(repo domain.ScopedRepository[*Event], txm tx.Manager, recorder *audit.Recorder, employees employee.Directory) *Service {
	s := &Service{
		scoped: domain.NewScopedService(domain.ScopedServiceConfig[*Event]{
			Repo:       repo,
			TxManager:  txm,
			Recorder:   recorder,
			EntityType: EntityType,
			EntityName: "Time event",
		}),
		employees: employees,
		now:       time.Now,
	}
	s.scoped.Hooks().OnBeforeCreate(s.checkSequence)
	return s
}

// Record appends an event. OccurredAt defaults to now.
func (s *Service) Record(ctx context.Context, e *Event) (*Event, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now().UTC()
	}
	if e.OccurredAt.After(s.now().Add(maxClockSkew)) {
		return nil, apperror.NewFieldValidation(apperror.FieldError{Field: "occurredAt", Message: "must not be in the future"})
	}
	return s.scoped.Create(ctx, e)
}

// ReferencedBy implements domain.Referrer.
func (s *Service) ReferencedBy(ctx context.Context, column string, parentID id.ID) (bool, error) {
	return s.scoped.ReferencedBy(ctx, column, parentID)
}

// checkSequence enforces alternating clock_in / clock_out per employee.
func (s *Service) checkSequence(ctx context.Context, e *Event) error {
	if err := employee.RequireActor(ctx, s.employees, "employeeId", e.EmployeeID); err != nil {
		return err
	}

	last, err := s.scoped.List(ctx, domain.ListFilter{
		Items:   []filter.Item{filter.Eq("employee_id", e.EmployeeID)},
		OrderBy: "-occurred_at",
		Limit:   1,
	})
	if err != nil {
		return err
	}

	open := len(last.Items) > 0 && last.Items[0].Kind == KindClockIn
	switch {
	case e.Kind == KindClockIn && open:
		return apperror.NewConflict("Employee is already clocked in")
	case e.Kind == KindClockOut && !open:
		return apperror.NewConflict("Employee is not clocked in")
	case len(last.Items) > 0 && e.OccurredAt.Before(last.Items[0].OccurredAt):
		return apperror.NewConflict("Event is older than the previous event")
	}
	return nil
}

// List returns events newest first.
func (s *Service) List(ctx context.Context, q ListQuery) (domain.ListResult[*Event], error) {
	var p domain.Params
	p.ID("employeeId", "employee_id", q.EmployeeID)
	if start := p.Date("startDate", q.StartDate); start != nil {
		p.Add(filter.Gte("occurred_at", *start))
	}
	if end := p.Date("endDate", q.EndDate); end != nil {
		p.Add(filter.Lt("occurred_at", end.AddDate(0, 0, 1)))
	}
	f, err := p.Filter(domain.ListFilter{
		OrderBy: "-occurred_at",
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		return domain.ListResult[*Event]{}, err
	}
	return s.scoped.List(ctx, f)
}
