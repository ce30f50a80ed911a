// Package domain provides the tenant-scoped service and repository contracts
// shared by every HR resource.
package domain

import (
	"context"

	"kadryhr/internal/core/id"
	"kadryhr/internal/domain/filter"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Items are column conditions built by the resource service from query parameters.
	Items []filter.Item

	// Search performs a case-insensitive match on the repository's search columns.
	Search string

	// OrderBy specifies sorting (e.g., "last_name", "-starts_at").
	// Empty means the repository default order.
	OrderBy string

	Limit  int
	Offset int
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Normalize clamps pagination into the accepted range.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// With appends conditions and returns the filter.
func (f ListFilter) With(items ...filter.Item) ListFilter {
	f.Items = append(append([]filter.Item(nil), f.Items...), items...)
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Repository Interfaces ---

// ScopedRepository is the persistence contract for tenant-owned entities.
// Every method is constrained to orgID; a row owned by another organisation
// behaves exactly like a missing row.
type ScopedRepository[T any] interface {
	// Create inserts a new entity. The entity's organisation must equal orgID.
	Create(ctx context.Context, orgID id.ID, entity T) error

	// GetByID returns NOT_FOUND unless the row exists in orgID.
	GetByID(ctx context.Context, orgID, entityID id.ID) (T, error)

	// Update writes mutable columns with one statement filtered by id and organisation.
	Update(ctx context.Context, orgID id.ID, entity T) (T, error)

	// Delete removes the row with one statement filtered by id and organisation
	// and returns the deleted row.
	Delete(ctx context.Context, orgID, entityID id.ID) (T, error)

	// List retrieves entities with filtering and pagination.
	List(ctx context.Context, orgID id.ID, filter ListFilter) (ListResult[T], error)

	// Exists reports whether the row exists in orgID.
	Exists(ctx context.Context, orgID, entityID id.ID) (bool, error)
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

// Hooks run inside the write transaction and abort it on error.
const (
	BeforeCreate HookEvent = "before_create"
	BeforeUpdate HookEvent = "before_update"
	BeforeDelete HookEvent = "before_delete"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// OnBeforeCreate registers a hook to run before create.
func (r *HookRegistry[T]) OnBeforeCreate(hook Hook[T]) {
	r.On(BeforeCreate, hook)
}

// OnBeforeUpdate registers a hook to run before update.
func (r *HookRegistry[T]) OnBeforeUpdate(hook Hook[T]) {
	r.On(BeforeUpdate, hook)
}

// OnBeforeDelete registers a hook to run before delete.
func (r *HookRegistry[T]) OnBeforeDelete(hook Hook[T]) {
	r.On(BeforeDelete, hook)
}
