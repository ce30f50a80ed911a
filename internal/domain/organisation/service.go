package organisation

import (
	"context"
	"strings"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/tenant"
	"kadryhr/internal/core/validation"
	"kadryhr/internal/domain/audit"
)

// EntityType is the audit entity type of organisations.
const EntityType = "organisation"

// Service provides organisation operations. It is the single owner of the organisation cache.
type Service struct {
	repo     Repository
	cache    Cache
	recorder *audit.Recorder
}

// NewService creates the organisation service. cache and recorder may be nil.
func NewService(repo Repository, cache Cache, recorder *audit.Recorder) *Service {
	return &Service{repo: repo, cache: cache, recorder: recorder}
}

// Create validates and stores a new organisation.
func (s *Service) Create(ctx context.Context, org *Organisation) error {
	if err := org.Validate(ctx); err != nil {
		return err
	}
	taken, err := s.repo.SlugExists(ctx, org.Slug)
	if err != nil {
		return err
	}
	if taken {
		return apperror.NewDuplicate("Organisation", "slug")
	}
	return s.repo.Create(ctx, org)
}

// Lookup returns an organisation by id, served from the cache when possible.
func (s *Service) Lookup(ctx context.Context, orgID id.ID) (*Organisation, error) {
	if s.cache != nil {
		if org, ok := s.cache.Get(orgID); ok {
			return org, nil
		}
	}
	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("Organisation", orgID.String())
		}
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(orgID, org)
	}
	return org, nil
}

// Current returns the caller's organisation.
func (s *Service) Current(ctx context.Context) (*Organisation, error) {
	orgID, _, err := tenant.Scope(ctx)
	if err != nil {
		return nil, err
	}
	return s.Lookup(ctx, orgID)
}

// Rename changes the caller organisation's display name. The slug is immutable.
func (s *Service) Rename(ctx context.Context, name string) (*Organisation, error) {
	orgID, actorID, err := tenant.Scope(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	var errs validation.Errors
	errs.Required("name", name)
	errs.MaxLength("name", name, 200)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	before, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateName(ctx, orgID, name)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(orgID)
	}

	if s.recorder != nil {
		s.recorder.Record(context.WithoutCancel(ctx), audit.Entry{
			OrganisationID: orgID,
			ActorID:        actorID,
			Action:         audit.Action(EntityType, audit.VerbUpdate),
			EntityType:     EntityType,
			EntityID:       orgID,
			Before:         audit.Snapshot(before),
			After:          audit.Snapshot(updated),
		})
	}
	return updated, nil
}

// List returns all organisations. Used by operator tooling, never by tenant requests.
func (s *Service) List(ctx context.Context) ([]*Organisation, error) {
	return s.repo.List(ctx)
}
