package employee

import (
	"context"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/tenant"
	"kadryhr/internal/core/tx"
	"kadryhr/internal/domain"
	"kadryhr/internal/domain/audit"
)

// EntityType is the audit entity type of employees.
const EntityType = "employee"

// UserDirectory checks login users when an employee is linked to one.
type UserDirectory interface {
	UserExists(ctx context.Context, orgID, userID id.ID) (bool, error)
}

// ListQuery holds the list endpoint parameters.
type ListQuery struct {
	Status string `form:"status"`
	Search string `form:"search"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// Service provides employee operations.
type Service struct {
	*domain.ScopedService[*Employee]
	users UserDirectory
}

// NewService creates the employee service. users may be nil.
func NewService(repo domain.ScopedRepository[*Employee], txm tx.Manager, recorder *audit.Recorder, users UserDirectory) *Service {
	s := &Service{
		ScopedService: domain.NewScopedService(domain.ScopedServiceConfig[*Employee]{
			Repo:       repo,
			TxManager:  txm,
			Recorder:   recorder,
			EntityType: EntityType,
			EntityName: "Employee",
		}),
		users: users,
	}
	s.Hooks().OnBeforeCreate(s.checkUserLink)
	s.Hooks().OnBeforeUpdate(s.checkUserLink)
	return s
}

// RestrictDelete keeps employees from being deleted while dependents reference them.
func (s *Service) RestrictDelete(dependents string, r domain.Referrer) {
	domain.RestrictDelete(s.Hooks(), "Employee", "employee_id", dependents, r)
}

func (s *Service) checkUserLink(ctx context.Context, e *Employee) error {
	if e.UserID == nil || s.users == nil {
		return nil
	}
	orgID, err := tenant.OrganisationID(ctx)
	if err != nil {
		return err
	}
	ok, err := s.users.UserExists(ctx, orgID, *e.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewFieldValidation(apperror.FieldError{Field: "userId", Message: "does not exist"})
	}
	return nil
}

// List returns employees ordered by last name, first name.
func (s *Service) List(ctx context.Context, q ListQuery) (domain.ListResult[*Employee], error) {
	var p domain.Params
	p.Enum("status", "status", q.Status, Statuses()...)
	f, err := p.Filter(domain.ListFilter{
		Search:  q.Search,
		OrderBy: "last_name,first_name",
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		return domain.ListResult[*Employee]{}, err
	}
	return s.ScopedService.List(ctx, f)
}
