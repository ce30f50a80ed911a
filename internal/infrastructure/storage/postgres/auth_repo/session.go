package auth_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
	"kadryhr/internal/domain/auth"
	"kadryhr/internal/infrastructure/storage/postgres"
)

const sessionColumns = "id, token_hash, user_id, organisation_id, expires_at, revoked_at, user_agent, ip_address, created_at"

var _ auth.SessionRepository = (*SessionRepo)(nil)

// SessionRepo implements auth.SessionRepository.
type SessionRepo struct {
	txm *postgres.TxManager
}

// NewSessionRepo creates a new session repository.
func NewSessionRepo(txm *postgres.TxManager) *SessionRepo {
	return &SessionRepo{txm: txm}
}

// Create inserts a new session.
func (r *SessionRepo) Create(ctx context.Context, s *auth.Session) error {
	_, err := r.txm.Querier(ctx).Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, s.ID, s.TokenHash, s.UserID, s.OrganisationID, s.ExpiresAt, s.RevokedAt, s.UserAgent, s.IPAddress, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepo) getOne(ctx context.Context, key, where string, arg any) (*auth.Session, error) {
	var s auth.Session
	err := pgxscan.Get(ctx, r.txm.Querier(ctx), &s,
		`SELECT `+sessionColumns+` FROM sessions WHERE `+where+` = $1`, arg)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("Session", key)
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &s, nil
}

// GetByID retrieves a session by ID.
func (r *SessionRepo) GetByID(ctx context.Context, sessionID id.ID) (*auth.Session, error) {
	return r.getOne(ctx, sessionID.String(), "id", sessionID)
}

// GetByTokenHash retrieves a session by the SHA-256 of its token.
func (r *SessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	return r.getOne(ctx, "token", "token_hash", tokenHash)
}

// Revoke marks a session as revoked. Revoking twice keeps the first timestamp.
func (r *SessionRepo) Revoke(ctx context.Context, sessionID id.ID, at time.Time) error {
	tag, err := r.txm.Querier(ctx).Exec(ctx,
		`UPDATE sessions SET revoked_at = COALESCE(revoked_at, $2) WHERE id = $1`, sessionID, at)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("Session", sessionID.String())
	}
	return nil
}

// DeleteExpired removes sessions expired or revoked before the cutoff.
func (r *SessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.txm.Querier(ctx).Exec(ctx,
		`DELETE FROM sessions WHERE expires_at < $1 OR revoked_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
