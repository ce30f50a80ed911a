package audit

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadryhr/internal/core/apperror"
	appctx "kadryhr/internal/core/context"
	"kadryhr/internal/core/id"
)

type memStore struct {
	entries []Entry
	last    Filter
	err     error
}

func (s *memStore) Append(_ context.Context, e Entry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *memStore) List(_ context.Context, f Filter) (Page, error) {
	s.last = f
	return Page{Items: s.entries, Total: int64(len(s.entries)), Skip: f.Skip, Take: f.Take}, nil
}

func ptr(v int) *int { return &v }

func TestPageQuery_Window(t *testing.T) {
	tests := []struct {
		name       string
		q          PageQuery
		skip, take int
	}{
		{"defaults", PageQuery{}, 0, 20},
		{"skip take", PageQuery{Skip: ptr(40), Take: ptr(10)}, 40, 10},
		{"skip only", PageQuery{Skip: ptr(5)}, 5, 20},
		{"page size", PageQuery{Page: ptr(3), PageSize: ptr(25)}, 50, 25},
		{"page only", PageQuery{Page: ptr(2)}, 20, 20},
		{"page zero", PageQuery{Page: ptr(0), PageSize: ptr(10)}, 0, 10},
		{"skip take wins", PageQuery{Skip: ptr(1), Take: ptr(2), Page: ptr(9), PageSize: ptr(9)}, 1, 2},
		{"take clamped", PageQuery{Take: ptr(1000)}, 0, 100},
		{"page size clamped", PageQuery{Page: ptr(2), PageSize: ptr(500)}, 100, 100},
		{"negative skip", PageQuery{Skip: ptr(-3)}, 0, 20},
		{"zero take", PageQuery{Take: ptr(0)}, 0, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, take := tt.q.Window()
			assert.Equal(t, tt.skip, skip)
			assert.Equal(t, tt.take, take)
		})
	}
}

func TestPageQuery_WindowHugePage(t *testing.T) {
	for _, size := range []int{1, 10, MaxPageSize} {
		skip, take := PageQuery{Page: ptr(math.MaxInt), PageSize: ptr(size)}.Window()
		assert.Equal(t, size, take)
		assert.Greater(t, skip, 1_000_000, "a far page must not wrap back to the first")
		assert.LessOrEqual(t, skip, MaxSkip)
	}

	skip, _ := PageQuery{Skip: ptr(math.MaxInt)}.Window()
	assert.Equal(t, MaxSkip, skip)
}

func TestAction(t *testing.T) {
	assert.Equal(t, "EMPLOYEE_CREATE", Action("employee", VerbCreate))
	assert.Equal(t, "LEAVE_REQUEST_CANCEL", Action("leave_request", "CANCEL"))
}

func TestSnapshot(t *testing.T) {
	assert.Nil(t, Snapshot(nil))
	var p *struct{}
	assert.Nil(t, Snapshot(p))
	assert.JSONEq(t, `{"a":1}`, string(Snapshot(map[string]int{"a": 1})))
}

func identityCtx(orgID, userID id.ID) context.Context {
	return appctx.WithIdentity(context.Background(), &appctx.Identity{UserID: userID, OrganisationID: orgID})
}

func TestRecorder_FillsFromIdentity(t *testing.T) {
	store := &memStore{}
	r := NewRecorder(store)
	orgID, userID, entityID := id.New(), id.New(), id.New()

	r.Record(identityCtx(orgID, userID), Entry{
		Action:     Action("shift", VerbDelete),
		EntityType: "shift",
		EntityID:   entityID,
		Before:     json.RawMessage(`{"id":"x"}`),
	})

	require.Len(t, store.entries, 1)
	e := store.entries[0]
	assert.Equal(t, orgID, e.OrganisationID)
	assert.Equal(t, userID, e.ActorID)
	assert.Equal(t, entityID, e.EntityID)
	assert.False(t, id.IsNil(e.ID))
	assert.False(t, e.CreatedAt.IsZero())
}

func TestRecorder_DropsWithoutIdentity(t *testing.T) {
	store := &memStore{}
	NewRecorder(store).Record(context.Background(), Entry{Action: "EMPLOYEE_CREATE", EntityID: id.New()})
	assert.Empty(t, store.entries)
}

func TestRecorder_SwallowsStoreErrors(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	assert.NotPanics(t, func() {
		NewRecorder(store).Record(identityCtx(id.New(), id.New()), Entry{Action: "EMPLOYEE_CREATE", EntityID: id.New()})
	})
}

func TestRecorder_ListIsScoped(t *testing.T) {
	store := &memStore{}
	r := NewRecorder(store)
	orgID := id.New()

	_, err := r.List(identityCtx(orgID, id.New()), Filter{OrganisationID: id.New(), EntityType: "shift"}, PageQuery{Page: ptr(2), PageSize: ptr(10)})
	require.NoError(t, err)
	assert.Equal(t, orgID, store.last.OrganisationID)
	assert.Equal(t, "shift", store.last.EntityType)
	assert.Equal(t, 10, store.last.Skip)
	assert.Equal(t, 10, store.last.Take)

	_, err = r.List(context.Background(), Filter{}, PageQuery{})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}
