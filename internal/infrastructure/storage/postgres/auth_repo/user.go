// Package auth_repo provides PostgreSQL implementations for identity repositories:
// users, sessions and organisations.
package auth_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
	"kadryhr/internal/domain/auth"
	"kadryhr/internal/infrastructure/storage/postgres"
)

const userColumns = `id, organisation_id, email, password_hash, display_name, role, avatar_url,
	is_active, failed_login_attempts, locked_until, last_login_at, created_at, updated_at`

var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txm *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{txm: txm}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// isUnique reports a unique violation on the given constraint.
func isUnique(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, u *auth.User) error {
	_, err := r.txm.Querier(ctx).Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		u.ID, u.OrganisationID, u.Email, u.PasswordHash, u.DisplayName, u.Role, u.AvatarURL,
		u.IsActive, u.FailedLoginAttempts, u.LockedUntil, u.LastLoginAt, u.CreatedAt, u.UpdatedAt,
	)
	if isUnique(err, "users_email_key") {
		return apperror.NewDuplicate("User", "email").WithCause(err)
	}
	if err != nil {
		return postgres.MapError(fmt.Errorf("insert user: %w", err), "User")
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, key string, where squirrel.Sqlizer) (*auth.User, error) {
	sql, args, err := builder().Select(userColumns).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var u auth.User
	if err := pgxscan.Get(ctx, r.txm.Querier(ctx), &u, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("User", key)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, userID.String(), squirrel.Eq{"id": userID})
}

// GetByEmail retrieves user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getOne(ctx, email, squirrel.Eq{"email": email})
}

// GetInOrganisation retrieves a user constrained to orgID.
func (r *UserRepo) GetInOrganisation(ctx context.Context, orgID, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, userID.String(), squirrel.Eq{"id": userID, "organisation_id": orgID})
}

// EmailExists checks if email is taken.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.txm.Querier(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// UserExists reports whether userID belongs to orgID. Used to validate employee links.
func (r *UserRepo) UserExists(ctx context.Context, orgID, userID id.ID) (bool, error) {
	var one int
	err := r.txm.Querier(ctx).QueryRow(ctx,
		`SELECT 1 FROM users WHERE id = $1 AND organisation_id = $2`, userID, orgID,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return true, nil
}

// Update writes mutable columns of the user.
func (r *UserRepo) Update(ctx context.Context, u *auth.User) error {
	tag, err := r.txm.Querier(ctx).Exec(ctx, `
		UPDATE users SET
			email = $2, password_hash = $3, display_name = $4, role = $5, avatar_url = $6,
			is_active = $7, failed_login_attempts = $8, locked_until = $9, last_login_at = $10,
			updated_at = $11
		WHERE id = $1
	`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, u.Role, u.AvatarURL,
		u.IsActive, u.FailedLoginAttempts, u.LockedUntil, u.LastLoginAt, u.UpdatedAt,
	)
	if isUnique(err, "users_email_key") {
		return apperror.NewDuplicate("User", "email").WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("User", u.ID.String())
	}
	return nil
}

// listQuery builds the filtered user query of one organisation.
func listQuery(orgID id.ID, f auth.UserFilter) squirrel.SelectBuilder {
	q := builder().Select(userColumns).From("users").Where(squirrel.Eq{"organisation_id": orgID})
	if f.Role != "" {
		q = q.Where(squirrel.Eq{"role": f.Role})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + s + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"display_name": pattern},
		})
	}
	return q
}

// ListByOrganisation lists the users of orgID ordered by email.
func (r *UserRepo) ListByOrganisation(ctx context.Context, orgID id.ID, f auth.UserFilter) ([]*auth.User, int64, error) {
	q := listQuery(orgID, f)
	querier := r.txm.Querier(ctx)

	countSQL, countArgs, err := builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	q = q.OrderBy("email ASC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}
	users := []*auth.User{}
	if err := pgxscan.Select(ctx, querier, &users, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}
