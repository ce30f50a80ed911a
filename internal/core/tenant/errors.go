package tenant

import "errors"

var (
	// ErrNoIdentity is returned when a scoped operation runs without a resolved identity.
	ErrNoIdentity = errors.New("organisation not found in context")

	// ErrInvalidSlug is returned for slugs outside [a-z0-9-]{2,63}.
	ErrInvalidSlug = errors.New("invalid organisation slug")
)
