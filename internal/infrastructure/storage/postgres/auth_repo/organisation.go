package auth_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
	"kadryhr/internal/domain/organisation"
	"kadryhr/internal/infrastructure/storage/postgres"
)

const organisationColumns = "id, name, slug, created_at"

var _ organisation.Repository = (*OrganisationRepo)(nil)

// OrganisationRepo implements organisation.Repository.
// Renames fire the organisation_changed notification from a table trigger.
type OrganisationRepo struct {
	txm *postgres.TxManager
}

// NewOrganisationRepo creates a new organisation repository.
func NewOrganisationRepo(txm *postgres.TxManager) *OrganisationRepo {
	return &OrganisationRepo{txm: txm}
}

// Create inserts an organisation.
func (r *OrganisationRepo) Create(ctx context.Context, org *organisation.Organisation) error {
	_, err := r.txm.Querier(ctx).Exec(ctx,
		`INSERT INTO organisations (`+organisationColumns+`) VALUES ($1, $2, $3, $4)`,
		org.ID, org.Name, org.Slug, org.CreatedAt)
	if isUnique(err, "organisations_slug_key") {
		return apperror.NewDuplicate("Organisation", "slug").WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("insert organisation: %w", err)
	}
	return nil
}

func (r *OrganisationRepo) getOne(ctx context.Context, key, sql string, args ...any) (*organisation.Organisation, error) {
	var org organisation.Organisation
	if err := pgxscan.Get(ctx, r.txm.Querier(ctx), &org, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("Organisation", key)
		}
		return nil, fmt.Errorf("query organisation: %w", err)
	}
	return &org, nil
}

// GetByID retrieves an organisation.
func (r *OrganisationRepo) GetByID(ctx context.Context, orgID id.ID) (*organisation.Organisation, error) {
	return r.getOne(ctx, orgID.String(), `SELECT `+organisationColumns+` FROM organisations WHERE id = $1`, orgID)
}

// GetBySlug retrieves an organisation by slug.
func (r *OrganisationRepo) GetBySlug(ctx context.Context, slug string) (*organisation.Organisation, error) {
	return r.getOne(ctx, slug, `SELECT `+organisationColumns+` FROM organisations WHERE slug = $1`, slug)
}

// SlugExists checks if slug is taken.
func (r *OrganisationRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.txm.Querier(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM organisations WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slug exists: %w", err)
	}
	return exists, nil
}

// UpdateName renames an organisation and returns the stored row.
func (r *OrganisationRepo) UpdateName(ctx context.Context, orgID id.ID, name string) (*organisation.Organisation, error) {
	return r.getOne(ctx, orgID.String(),
		`UPDATE organisations SET name = $2 WHERE id = $1 RETURNING `+organisationColumns, orgID, name)
}

// List returns every organisation ordered by name.
func (r *OrganisationRepo) List(ctx context.Context) ([]*organisation.Organisation, error) {
	orgs := []*organisation.Organisation{}
	if err := pgxscan.Select(ctx, r.txm.Querier(ctx), &orgs,
		`SELECT `+organisationColumns+` FROM organisations ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list organisations: %w", err)
	}
	return orgs, nil
}
