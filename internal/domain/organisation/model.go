// Package organisation manages tenants. Organisations are never hard-deleted
// and their slug never changes after creation.
package organisation

import (
	"context"
	"strings"
	"time"

	"kadryhr/internal/core/id"
	"kadryhr/internal/core/tenant"
	"kadryhr/internal/core/validation"
)

// Organisation is the isolation boundary for all HR data.
type Organisation struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// New creates an organisation. An empty slug is derived from the name.
func New(name, slug string) *Organisation {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = tenant.Slugify(name)
	}
	return &Organisation{
		ID:        id.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate implements entity.Validatable.
func (o *Organisation) Validate(_ context.Context) error {
	var errs validation.Errors
	errs.Required("name", o.Name)
	errs.MaxLength("name", o.Name, 200)
	if err := tenant.ValidateSlug(o.Slug); err != nil {
		errs.Add("slug", "must be 2-63 lowercase letters, digits or dashes")
	}
	return errs.Err()
}

// Repository persists organisations.
type Repository interface {
	Create(ctx context.Context, org *Organisation) error
	GetByID(ctx context.Context, orgID id.ID) (*Organisation, error)
	GetBySlug(ctx context.Context, slug string) (*Organisation, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	UpdateName(ctx context.Context, orgID id.ID, name string) (*Organisation, error)
	List(ctx context.Context) ([]*Organisation, error)
}

// Cache holds organisations by id.
type Cache interface {
	Get(key id.ID) (*Organisation, bool)
	Set(key id.ID, value *Organisation)
	Invalidate(key id.ID)
}
