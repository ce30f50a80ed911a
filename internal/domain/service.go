package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/entity"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/tenant"
	"kadryhr/internal/core/tx"
	"kadryhr/internal/domain/audit"
	"kadryhr/internal/domain/filter"
)

// ScopedService provides tenant-scoped CRUD with audit for one entity type.
// The organisation always comes from the resolved identity in ctx.
type ScopedService[T entity.Scoped] struct {
	repo      ScopedRepository[T]
	txManager tx.Manager
	recorder  *audit.Recorder
	hooks     *HookRegistry[T]
	now       func() time.Time

	// entityType is the snake_case audit entity type, e.g. "leave_request".
	entityType string
	// entityName is used in error messages, e.g. "Leave request".
	entityName string
}

// ScopedServiceConfig configures the scoped service.
type ScopedServiceConfig[T entity.Scoped] struct {
	Repo       ScopedRepository[T]
	TxManager  tx.Manager
	Recorder   *audit.Recorder
	EntityType string
	EntityName string
}

// NewScopedService creates a new scoped service.
func NewScopedService[T entity.Scoped](cfg ScopedServiceConfig[T]) *ScopedService[T] {
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Passthrough
	}
	return &ScopedService[T]{
		repo:       cfg.Repo,
		txManager:  txm,
		recorder:   cfg.Recorder,
		hooks:      NewHookRegistry[T](),
		now:        time.Now,
		entityType: cfg.EntityType,
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *ScopedService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// EntityType returns the audit entity type.
func (s *ScopedService[T]) EntityType() string {
	return s.entityType
}

func (s *ScopedService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *ScopedService[T]) normalizeGetErr(err error, entityID id.ID) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, entityID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithContext("entity", s.entityName).WithContext("id", entityID.String())
}

// Create stamps the caller's organisation, validates and persists the entity.
func (s *ScopedService[T]) Create(ctx context.Context, e T) (T, error) {
	orgID, actorID, err := tenant.Scope(ctx)
	if err != nil {
		return e, err
	}

	e.AssignOrganisation(orgID)
	e.Touch(s.now())

	if err := e.Validate(ctx); err != nil {
		return e, s.normalizeValidationErr(err)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeCreate, e); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, orgID, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityType, err)
		}
		return nil
	})
	if err != nil {
		return e, err
	}

	s.record(ctx, orgID, actorID, audit.VerbCreate, e.GetID(), nil, audit.Snapshot(e))
	return e, nil
}

// Get returns the entity when it belongs to the caller's organisation.
func (s *ScopedService[T]) Get(ctx context.Context, entityID id.ID) (T, error) {
	var zero T
	orgID, _, err := tenant.Scope(ctx)
	if err != nil {
		return zero, err
	}
	e, err := s.repo.GetByID(ctx, orgID, entityID)
	if err != nil {
		return zero, s.normalizeGetErr(err, entityID)
	}
	return e, nil
}

// Exists reports whether the entity exists in the caller's organisation.
func (s *ScopedService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	orgID, _, err := tenant.Scope(ctx)
	if err != nil {
		return false, err
	}
	return s.repo.Exists(ctx, orgID, entityID)
}

// ReferencedBy reports whether any of the caller organisation's rows has column equal to parentID.
func (s *ScopedService[T]) ReferencedBy(ctx context.Context, column string, parentID id.ID) (bool, error) {
	orgID, _, err := tenant.Scope(ctx)
	if err != nil {
		return false, err
	}
	res, err := s.repo.List(ctx, orgID, ListFilter{
		Items: []filter.Item{filter.Eq(column, parentID)},
		Limit: 1,
	})
	if err != nil {
		return false, err
	}
	return res.TotalCount > 0, nil
}

// List retrieves the caller organisation's entities.
func (s *ScopedService[T]) List(ctx context.Context, f ListFilter) (ListResult[T], error) {
	orgID, _, err := tenant.Scope(ctx)
	if err != nil {
		return ListResult[T]{}, err
	}
	f.Normalize()
	return s.repo.List(ctx, orgID, f)
}

// Update applies mutate to the current row and persists it, audited as UPDATE.
func (s *ScopedService[T]) Update(ctx context.Context, entityID id.ID, mutate func(ctx context.Context, e T) error) (T, error) {
	return s.apply(ctx, entityID, audit.VerbUpdate, mutate)
}

// Transition is Update audited under a domain verb such as APPROVE or CANCEL.
func (s *ScopedService[T]) Transition(ctx context.Context, entityID id.ID, verb string, mutate func(ctx context.Context, e T) error) (T, error) {
	return s.apply(ctx, entityID, verb, mutate)
}

func (s *ScopedService[T]) apply(ctx context.Context, entityID id.ID, verb string, mutate func(ctx context.Context, e T) error) (T, error) {
	var zero T
	orgID, actorID, err := tenant.Scope(ctx)
	if err != nil {
		return zero, err
	}

	var updated T
	var beforeSnap json.RawMessage
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, orgID, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		beforeSnap = audit.Snapshot(current)

		if err := mutate(ctx, current); err != nil {
			return s.normalizeValidationErr(err)
		}
		// Ownership is not client-editable.
		current.AssignOrganisation(orgID)
		current.Touch(s.now())

		if err := current.Validate(ctx); err != nil {
			return s.normalizeValidationErr(err)
		}
		if err := s.hooks.Run(ctx, BeforeUpdate, current); err != nil {
			return err
		}

		updated, err = s.repo.Update(ctx, orgID, current)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		return nil
	})
	if err != nil {
		return zero, err
	}

	s.record(ctx, orgID, actorID, verb, updated.GetID(), beforeSnap, audit.Snapshot(updated))
	return updated, nil
}

// Delete removes the entity from the caller's organisation, audited with the deleted row.
func (s *ScopedService[T]) Delete(ctx context.Context, entityID id.ID) error {
	orgID, actorID, err := tenant.Scope(ctx)
	if err != nil {
		return err
	}

	var deleted T
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, orgID, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		if err := s.hooks.Run(ctx, BeforeDelete, current); err != nil {
			return err
		}
		deleted, err = s.repo.Delete(ctx, orgID, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.record(ctx, orgID, actorID, audit.VerbDelete, entityID, audit.Snapshot(deleted), nil)
	return nil
}

func (s *ScopedService[T]) record(ctx context.Context, orgID, actorID id.ID, verb string, entityID id.ID, before, after json.RawMessage) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(context.WithoutCancel(ctx), audit.Entry{
		OrganisationID: orgID,
		ActorID:        actorID,
		Action:         audit.Action(s.entityType, verb),
		EntityType:     s.entityType,
		EntityID:       entityID,
		Before:         before,
		After:          after,
	})
}
