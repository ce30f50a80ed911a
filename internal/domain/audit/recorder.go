package audit

import (
	"context"
	"time"

	"kadryhr/internal/core/id"
	"kadryhr/internal/core/tenant"
	"kadryhr/pkg/logger"
)

// Recorder appends audit entries on behalf of domain services.
// Recording is best-effort: it runs after the business transaction commits
// and a storage failure is logged, never returned.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder creates a Recorder over store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record appends e. Missing organisation and actor are taken from the caller identity.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if id.IsNil(e.OrganisationID) || id.IsNil(e.ActorID) {
		orgID, actorID, err := tenant.Scope(ctx)
		if err != nil {
			logger.Warn(ctx, "audit entry without identity dropped", "action", e.Action, "entity_id", e.EntityID.String())
			return
		}
		if id.IsNil(e.OrganisationID) {
			e.OrganisationID = orgID
		}
		if id.IsNil(e.ActorID) {
			e.ActorID = actorID
		}
	}
	if id.IsNil(e.ID) {
		e.ID = id.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}

	if err := r.store.Append(ctx, e); err != nil {
		logger.Error(ctx, "audit append failed",
			"action", e.Action,
			"entity_type", e.EntityType,
			"entity_id", e.EntityID.String(),
			"error", err,
		)
	}
}

// List returns the caller organisation's entries, newest first.
func (r *Recorder) List(ctx context.Context, f Filter, q PageQuery) (Page, error) {
	orgID, _, err := tenant.Scope(ctx)
	if err != nil {
		return Page{}, err
	}
	f.OrganisationID = orgID
	f.Skip, f.Take = q.Window()
	return r.store.List(ctx, f)
}
