// Package audit records who changed what, per organisation.
package audit

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"kadryhr/internal/core/id"
)

// Common verbs. Domain transitions add their own (APPROVE, REJECT, CANCEL).
const (
	VerbCreate = "CREATE"
	VerbUpdate = "UPDATE"
	VerbDelete = "DELETE"
)

// Entry is one immutable audit row.
type Entry struct {
	ID             id.ID           `db:"id" json:"id"`
	OrganisationID id.ID           `db:"organisation_id" json:"organisationId"`
	ActorID        id.ID           `db:"actor_id" json:"actorId"`
	Action         string          `db:"action" json:"action"`
	EntityType     string          `db:"entity_type" json:"entityType"`
	EntityID       id.ID           `db:"entity_id" json:"entityId"`
	Before         json.RawMessage `db:"before" json:"before,omitempty"`
	After          json.RawMessage `db:"after" json:"after,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
}

// Action builds the action name for an entity type and verb,
// e.g. ("leave_request", "cancel") -> "LEAVE_REQUEST_CANCEL".
func Action(entityType, verb string) string {
	return strings.ToUpper(entityType) + "_" + strings.ToUpper(verb)
}

// Snapshot marshals v for the Before/After columns. Nil yields nil.
func Snapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return nil
	}
	return data
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxSkip bounds the offset; any window past it is empty anyway.
	MaxSkip = math.MaxInt32
	maxPage = MaxSkip/MaxPageSize + 1
)

// Filter selects entries. OrganisationID is always set by the recorder from the caller identity.
type Filter struct {
	OrganisationID id.ID
	EntityType     string
	Action         string
	EntityID       *id.ID
	ActorID        *id.ID
	Skip           int
	Take           int
}

// PageQuery carries both pagination dialects accepted by the list endpoint.
type PageQuery struct {
	Skip     *int
	Take     *int
	Page     *int
	PageSize *int
}

// Window resolves the query into skip/take.
// skip/take wins over page/pageSize when both are given.
func (q PageQuery) Window() (skip, take int) {
	take = DefaultPageSize
	switch {
	case q.Skip != nil || q.Take != nil:
		if q.Take != nil {
			take = *q.Take
		}
		if q.Skip != nil {
			skip = *q.Skip
		}
	case q.Page != nil || q.PageSize != nil:
		if q.PageSize != nil {
			take = *q.PageSize
		}
		page := 1
		if q.Page != nil && *q.Page > 1 {
			page = min(*q.Page, maxPage)
		}
		take = clampTake(take)
		skip = (page - 1) * take
	}
	skip = max(0, min(skip, MaxSkip))
	return skip, clampTake(take)
}

func clampTake(take int) int {
	if take <= 0 {
		return DefaultPageSize
	}
	if take > MaxPageSize {
		return MaxPageSize
	}
	return take
}

// Page is a window of entries.
type Page struct {
	Items []Entry `json:"items"`
	Total int64   `json:"total"`
	Skip  int     `json:"skip"`
	Take  int     `json:"take"`
}

// Store persists entries. Implementations never update or delete.
type Store interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, f Filter) (Page, error)
}
