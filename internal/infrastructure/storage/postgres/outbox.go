package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kadryhr/internal/core/id"
	"kadryhr/internal/domain/notification"
	"kadryhr/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// OutboxMessage is a queued notification.
type OutboxMessage struct {
	ID             id.ID        `db:"id"`
	OrganisationID id.ID        `db:"organisation_id"`
	Kind           string       `db:"kind"`
	Payload        []byte       `db:"payload"`
	Status         OutboxStatus `db:"status"`
	LastError      *string      `db:"last_error"`
	CreatedAt      time.Time    `db:"created_at"`
	ProcessedAt    *time.Time   `db:"processed_at"`
}

var _ notification.Publisher = (*OutboxPublisher)(nil)

// OutboxPublisher writes notifications to the outbox table.
type OutboxPublisher struct {
	txManager *TxManager
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish implements notification.Publisher. It must run inside a transaction
// so the message commits or rolls back with the business change.
func (p *OutboxPublisher) Publish(ctx context.Context, orgID id.ID, kind string, payload any) error {
	if !p.txManager.InTransaction(ctx) {
		return fmt.Errorf("outbox publish requires transaction context")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}

	_, err = p.txManager.Querier(ctx).Exec(ctx, `
		INSERT INTO outbox (id, organisation_id, kind, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id.New(), orgID, kind, body, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler delivers one message.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

// Handle implements OutboxHandler.
func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error {
	return f(ctx, msg)
}

// OutboxRelay claims pending messages and hands them to a handler.
// A failed delivery is marked failed and never retried.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &OutboxRelay{txManager: txManager, batchSize: batchSize, handler: handler}
}

// ProcessBatch delivers up to batchSize pending messages and returns how many were sent.
// Rows are locked with SKIP LOCKED so several workers can run side by side.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	sent := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.Querier(ctx)
		rows, err := q.Query(ctx, `
			SELECT id, organisation_id, kind, payload, status, last_error, created_at, processed_at
			FROM outbox
			WHERE status = $1
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, OutboxStatusPending, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		var messages []*OutboxMessage
		for rows.Next() {
			var msg OutboxMessage
			if err := rows.Scan(
				&msg.ID, &msg.OrganisationID, &msg.Kind, &msg.Payload,
				&msg.Status, &msg.LastError, &msg.CreatedAt, &msg.ProcessedAt,
			); err != nil {
				rows.Close()
				return fmt.Errorf("scan outbox message: %w", err)
			}
			messages = append(messages, &msg)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate outbox messages: %w", err)
		}

		for _, msg := range messages {
			status, lastErr := OutboxStatusSent, (*string)(nil)
			if err := r.handler.Handle(ctx, msg); err != nil {
				logger.Warn(ctx, "outbox delivery failed", "id", msg.ID, "kind", msg.Kind, "error", err)
				s := err.Error()
				status, lastErr = OutboxStatusFailed, &s
			} else {
				sent++
			}
			if _, err := q.Exec(ctx, `
				UPDATE outbox SET status = $1, last_error = $2, processed_at = $3 WHERE id = $4
			`, status, lastErr, time.Now().UTC(), msg.ID); err != nil {
				return fmt.Errorf("mark outbox message %s: %w", msg.ID, err)
			}
		}
		return nil
	})
	return sent, err
}
