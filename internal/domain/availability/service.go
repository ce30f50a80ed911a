package availability

import (
	"context"

	"kadryhr/internal/core/id"
	"kadryhr/internal/core/tx"
	"kadryhr/internal/domain"
	"kadryhr/internal/domain/audit"
	"kadryhr/internal/domain/employee"
	"kadryhr/internal/domain/filter"
)

// EntityType is the audit entity type of availability entries.
const EntityType = "availability"

// ListQuery holds the list endpoint parameters.
// startDate/endDate narrow the result to dated entries in that range.
type ListQuery struct {
	Status     string `form:"status"`
	EmployeeID string `form:"employeeId"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// Service provides availability operations.
type Service struct {
	*domain.ScopedService[*Availability]
	employees employee.Directory
}

// NewService creates the availability service.
func NewService(repo domain.ScopedRepository[*Availability], txm tx.Manager, recorder *audit.Recorder, employees employee.Directory) *Service {
	s := &Service{
		ScopedService: domain.NewScopedService(domain.ScopedServiceConfig[*Availability]{
			Repo:       repo,
			TxManager:  txm,
			Recorder:   recorder,
			EntityType: EntityType,
			EntityName: "Availability",
		}),
		employees: employees,
	}
	s.Hooks().OnBeforeCreate(s.checkEmployee)
	s.Hooks().OnBeforeUpdate(s.checkEmployee)
	return s
}

func (s *Service) checkEmployee(ctx context.Context, a *Availability) error {
	return employee.RequireActor(ctx, s.employees, "employeeId", a.EmployeeID)
}

// List returns entries ordered by date, weekday and start time.
func (s *Service) List(ctx context.Context, q ListQuery) (domain.ListResult[*Availability], error) {
	var p domain.Params
	p.Enum("status", "status", q.Status, Statuses()...)
	p.ID("employeeId", "employee_id", q.EmployeeID)
	if start := p.Date("startDate", q.StartDate); start != nil {
		p.Add(filter.Gte("date", *start))
	}
	if end := p.Date("endDate", q.EndDate); end != nil {
		p.Add(filter.Lte("date", *end))
	}
	f, err := p.Filter(domain.ListFilter{
		OrderBy: "date,weekday,start_minutes",
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		return domain.ListResult[*Availability]{}, err
	}
	return s.ScopedService.List(ctx, f)
}

// Approve accepts a pending entry.
func (s *Service) Approve(ctx context.Context, entryID id.ID) (*Availability, error) {
	return s.decide(ctx, entryID, StatusApproved, "APPROVE")
}

// Reject declines a pending entry.
func (s *Service) Reject(ctx context.Context, entryID id.ID) (*Availability, error) {
	return s.decide(ctx, entryID, StatusRejected, "REJECT")
}

func (s *Service) decide(ctx context.Context, entryID id.ID, to Status, verb string) (*Availability, error) {
	return s.Transition(ctx, entryID, verb, func(_ context.Context, a *Availability) error {
		return a.Decide(to)
	})
}
