package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
)

func TestIdempotency_Resolve(t *testing.T) {
	store := NewIdempotencyStore(nil, time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	req := IdempotencyRequest{
		IdempotencyKey: IdempotencyKey{OrganisationID: id.New(), Key: "k-1"},
		UserID:         id.New(),
		Operation:      "POST /api/v1/employees",
		RequestHash:    "abc",
	}
	base := idempotencyRecord{
		userID:      req.UserID,
		operation:   req.Operation,
		requestHash: req.RequestHash,
		createdAt:   now.Add(-time.Second),
		updatedAt:   now.Add(-time.Second),
	}

	t.Run("completed replays response", func(t *testing.T) {
		rec := base
		rec.status = IdempotencyStatusSuccess
		rec.statusCode = 201
		rec.response = []byte(`{"id":"x"}`)

		replay, err := store.resolve(context.Background(), req, rec, now)
		require.NoError(t, err)
		assert.Equal(t, 201, replay.StatusCode)
		assert.Equal(t, "application/json", replay.ContentType)
		assert.Equal(t, rec.response, replay.Body)
	})

	t.Run("failed replays with default status", func(t *testing.T) {
		rec := base
		rec.status = IdempotencyStatusFailed
		rec.contentType = "text/plain"

		replay, err := store.resolve(context.Background(), req, rec, now)
		require.NoError(t, err)
		assert.Equal(t, 200, replay.StatusCode)
		assert.Equal(t, "text/plain", replay.ContentType)
	})

	t.Run("in flight conflicts", func(t *testing.T) {
		rec := base
		rec.status = IdempotencyStatusPending

		_, err := store.resolve(context.Background(), req, rec, now)
		assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))
	})

	t.Run("different body is rejected", func(t *testing.T) {
		rec := base
		rec.status = IdempotencyStatusSuccess
		rec.requestHash = "other"

		_, err := store.resolve(context.Background(), req, rec, now)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, "Idempotency key mismatch", appErr.Message)
		assert.Equal(t, 409, appErr.HTTPStatus)
	})
}
