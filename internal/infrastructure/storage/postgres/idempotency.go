package postgres

import (
	"context"
	"fmt"
	"time"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
)

// IdempotencyStatus represents the state of an idempotent operation.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// staleAfter is how long a pending key may stay claimed before another request reclaims it.
const staleAfter = time.Minute

// IdempotencyKey identifies a key within an organisation.
type IdempotencyKey struct {
	OrganisationID id.ID
	Key            string
}

// IdempotencyRequest describes the request claiming a key.
type IdempotencyRequest struct {
	IdempotencyKey
	UserID      id.ID
	Operation   string
	RequestHash string
}

// IdempotencyReplay is the cached HTTP response for replay.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

type idempotencyRecord struct {
	userID      id.ID
	operation   string
	status      IdempotencyStatus
	requestHash string
	response    []byte
	statusCode  int
	contentType string
	createdAt   time.Time
	updatedAt   time.Time
}

// IdempotencyStore manages X-Idempotency-Key records per organisation.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{txManager: txManager, ttl: ttl, now: time.Now}
}

// AcquireKey claims a key.
// Returns:
//   - (nil, nil) when the caller owns the key and must run the request
//   - (replay, nil) when the request already completed
//   - (nil, error) when the key is in flight or was used for a different request
func (s *IdempotencyStore) AcquireKey(ctx context.Context, req IdempotencyRequest) (*IdempotencyReplay, error) {
	// timestamptz keeps microseconds; truncating lets createdAt identify our own insert.
	now := s.now().UTC().Truncate(time.Microsecond)
	q := s.txManager.Querier(ctx)

	var rec idempotencyRecord
	err := q.QueryRow(ctx, `
		INSERT INTO idempotency_keys (organisation_id, idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
		ON CONFLICT (organisation_id, idempotency_key) DO UPDATE SET
			expires_at = GREATEST(idempotency_keys.expires_at, EXCLUDED.expires_at)
		RETURNING user_id, operation, status, request_hash, response, response_status, response_content_type, created_at, updated_at
	`, req.OrganisationID, req.Key, req.UserID, req.Operation, IdempotencyStatusPending, req.RequestHash, now, now.Add(s.ttl)).Scan(
		&rec.userID, &rec.operation, &rec.status, &rec.requestHash,
		&rec.response, &rec.statusCode, &rec.contentType, &rec.createdAt, &rec.updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}

	if rec.createdAt.Equal(now) {
		return nil, nil
	}
	return s.resolve(ctx, req, rec, now)
}

// resolve decides what an existing record means for a new request.
func (s *IdempotencyStore) resolve(ctx context.Context, req IdempotencyRequest, rec idempotencyRecord, now time.Time) (*IdempotencyReplay, error) {
	if rec.userID != req.UserID || rec.operation != req.Operation || rec.requestHash != req.RequestHash {
		return nil, apperror.NewIdempotencyMismatch(req.Key).
			WithContext("stored_operation", rec.operation).
			WithContext("request_operation", req.Operation)
	}

	switch rec.status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return &IdempotencyReplay{
			StatusCode:  normalizeReplayStatus(rec.statusCode),
			ContentType: normalizeReplayContentType(rec.contentType),
			Body:        rec.response,
		}, nil
	}

	if now.Sub(rec.updatedAt) <= staleAfter {
		return nil, apperror.NewIdempotencyConflict(req.Key)
	}
	tag, err := s.txManager.Querier(ctx).Exec(ctx, `
		UPDATE idempotency_keys SET updated_at = $1
		WHERE organisation_id = $2 AND idempotency_key = $3 AND status = $4 AND updated_at = $5
	`, now, req.OrganisationID, req.Key, IdempotencyStatusPending, rec.updatedAt)
	if err != nil {
		return nil, fmt.Errorf("reclaim stale key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NewIdempotencyConflict(req.Key)
	}
	return nil, nil
}

// CompleteKey stores the response of a successful request.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key IdempotencyKey, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, key, IdempotencyStatusSuccess, statusCode, contentType, body)
}

// FailKey stores the response of a request that failed with a client error.
func (s *IdempotencyStore) FailKey(ctx context.Context, key IdempotencyKey, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, key, IdempotencyStatusFailed, statusCode, contentType, body)
}

// ReleaseKey forgets a key so the request can be retried, used after server errors.
func (s *IdempotencyStore) ReleaseKey(ctx context.Context, key IdempotencyKey) error {
	_, err := s.txManager.Querier(ctx).Exec(ctx, `
		DELETE FROM idempotency_keys WHERE organisation_id = $1 AND idempotency_key = $2 AND status = $3
	`, key.OrganisationID, key.Key, IdempotencyStatusPending)
	return err
}

func (s *IdempotencyStore) finish(ctx context.Context, key IdempotencyKey, status IdempotencyStatus, statusCode int, contentType string, body []byte) error {
	_, err := s.txManager.Querier(ctx).Exec(ctx, `
		UPDATE idempotency_keys
		SET status = $1, response = $2, response_status = $3, response_content_type = $4, updated_at = $5
		WHERE organisation_id = $6 AND idempotency_key = $7
	`, status, body, statusCode, contentType, s.now().UTC(), key.OrganisationID, key.Key)
	return err
}

func normalizeReplayStatus(status int) int {
	if status == 0 {
		return 200
	}
	return status
}

func normalizeReplayContentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}

// CleanupExpired removes expired records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.txManager.Querier(ctx).Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at < $1`, s.now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
