package mail

import (
	"context"
	"fmt"

	"kadryhr/internal/domain/notification"
	"kadryhr/internal/infrastructure/storage/postgres"
)

// OutboxHandler renders queued notifications and hands them to sender.
func OutboxHandler(sender Sender) postgres.OutboxHandler {
	return postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
		email, err := notification.Render(msg.Kind, msg.Payload)
		if err != nil {
			return fmt.Errorf("render outbox message %s: %w", msg.ID, err)
		}
		if email.To == "" {
			return fmt.Errorf("outbox message %s has no recipient", msg.ID)
		}
		return sender.Send(ctx, email)
	})
}
