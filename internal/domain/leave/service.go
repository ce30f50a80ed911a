package leave

import (
	"context"
	"fmt"
	"time"

	"kadryhr/internal/core/id"
	"kadryhr/internal/core/tenant"
	"kadryhr/internal/core/tx"
	"kadryhr/internal/domain"
	"kadryhr/internal/domain/audit"
	"kadryhr/internal/domain/employee"
	"kadryhr/internal/domain/filter"
	"kadryhr/internal/domain/notification"
)

// EntityType is the audit entity type of leave requests.
const EntityType = "leave_request"

// ListQuery holds the list endpoint parameters.
// startDate/endDate select requests overlapping the closed date range.
type ListQuery struct {
	Status     string `form:"status"`
	EmployeeID string `form:"employeeId"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// Service provides leave request operations.
type Service struct {
	*domain.ScopedService[*Request]
	employees employee.Directory
	publisher notification.Publisher
	now       func() time.Time
}

// NewService creates the leave service. publisher may be nil.
func NewService(
	repo domain.ScopedRepository[*Request],
	txm tx.Manager,
	recorder *audit.Recorder,
	employees employee.Directory,
	publisher notification.Publisher,
) *Service {
	s := &Service{
		ScopedService: domain.NewScopedService(domain.ScopedServiceConfig[*Request]{
			Repo:       repo,
			TxManager:  txm,
			Recorder:   recorder,
			EntityType: EntityType,
			EntityName: "Leave request",
		}),
		employees: employees,
		publisher: publisher,
		now:       time.Now,
	}
	s.Hooks().OnBeforeCreate(func(ctx context.Context, r *Request) error {
		return employee.RequireActor(ctx, s.employees, "employeeId", r.EmployeeID)
	})
	return s
}

// List returns requests ordered by start date.
func (s *Service) List(ctx context.Context, q ListQuery) (domain.ListResult[*Request], error) {
	var p domain.Params
	p.Enum("status", "status", q.Status, Statuses()...)
	p.ID("employeeId", "employee_id", q.EmployeeID)
	start := p.Date("startDate", q.StartDate)
	end := p.Date("endDate", q.EndDate)
	if start != nil {
		p.Add(filter.Gte("end_date", *start))
	}
	if end != nil {
		p.Add(filter.Lte("start_date", *end))
	}
	f, err := p.Filter(domain.ListFilter{
		OrderBy: "start_date",
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		return domain.ListResult[*Request]{}, err
	}
	return s.ScopedService.List(ctx, f)
}

// Approve accepts a pending request and queues a notification to the employee.
func (s *Service) Approve(ctx context.Context, requestID id.ID) (*Request, error) {
	return s.Transition(ctx, requestID, "APPROVE", func(ctx context.Context, r *Request) error {
		_, actorID, err := tenant.Scope(ctx)
		if err != nil {
			return err
		}
		if err := r.Approve(actorID, s.now()); err != nil {
			return err
		}
		return s.notify(ctx, r)
	})
}

// Reject declines a pending request and queues a notification to the employee.
func (s *Service) Reject(ctx context.Context, requestID id.ID) (*Request, error) {
	return s.Transition(ctx, requestID, "REJECT", func(ctx context.Context, r *Request) error {
		_, actorID, err := tenant.Scope(ctx)
		if err != nil {
			return err
		}
		if err := r.Reject(actorID, s.now()); err != nil {
			return err
		}
		return s.notify(ctx, r)
	})
}

// Cancel withdraws a pending request. Employees may cancel only their own.
func (s *Service) Cancel(ctx context.Context, requestID id.ID) (*Request, error) {
	return s.Transition(ctx, requestID, "CANCEL", func(ctx context.Context, r *Request) error {
		if err := employee.RequireActor(ctx, s.employees, "employeeId", r.EmployeeID); err != nil {
			return err
		}
		return r.Cancel()
	})
}

// notify runs inside the decision transaction so the message is queued iff the decision commits.
func (s *Service) notify(ctx context.Context, r *Request) error {
	if s.publisher == nil {
		return nil
	}
	emp, err := s.employees.Get(ctx, r.EmployeeID)
	if err != nil {
		return fmt.Errorf("load employee for notification: %w", err)
	}
	if emp.Email == "" {
		return nil
	}
	return s.publisher.Publish(ctx, r.OrganisationID, notification.KindLeaveDecision, notification.LeaveDecision{
		LeaveRequestID: r.ID,
		EmployeeName:   emp.FullName(),
		Email:          emp.Email,
		Status:         string(r.Status),
		Category:       string(r.Category),
		StartDate:      r.StartDate.Format(domain.DateLayout),
		EndDate:        r.EndDate.Format(domain.DateLayout),
	})
}
