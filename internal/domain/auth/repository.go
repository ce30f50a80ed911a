package auth

import (
	"context"
	"time"

	"kadryhr/internal/core/id"
)

// UserRepository defines user storage operations.
// Lookups by id and email are global; they run before any organisation is known.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail retrieves user by normalized email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// EmailExists checks if email is taken.
	EmailExists(ctx context.Context, email string) (bool, error)

	// Update writes mutable columns of the user.
	Update(ctx context.Context, user *User) error

	// GetInOrganisation retrieves a user constrained to orgID.
	GetInOrganisation(ctx context.Context, orgID, userID id.ID) (*User, error)

	// ListByOrganisation lists the users of orgID.
	ListByOrganisation(ctx context.Context, orgID id.ID, filter UserFilter) ([]*User, int64, error)
}

// SessionRepository defines session storage operations.
type SessionRepository interface {
	// Create inserts a new session.
	Create(ctx context.Context, session *Session) error

	// GetByID retrieves a session by ID.
	GetByID(ctx context.Context, sessionID id.ID) (*Session, error)

	// GetByTokenHash retrieves a session by the SHA-256 of its token.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Revoke marks a session as revoked.
	Revoke(ctx context.Context, sessionID id.ID, at time.Time) error

	// DeleteExpired removes sessions expired or revoked before the cutoff.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
