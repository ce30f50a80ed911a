// Package domaintest provides in-memory stores for service and HTTP tests.
package domaintest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/entity"
	"kadryhr/internal/core/id"
	"kadryhr/internal/domain"
	"kadryhr/internal/domain/filter"
)

// MemoryRepo is an in-memory domain.ScopedRepository keyed by db tags.
// Stored values are copied on the way in and out.
type MemoryRepo[T entity.Scoped] struct {
	mu           sync.RWMutex
	rows         []T
	searchFields []string

	// Err, when set, is returned by every method.
	Err error
}

// NewMemoryRepo creates a repository searching the given db columns.
func NewMemoryRepo[T entity.Scoped](searchFields ...string) *MemoryRepo[T] {
	return &MemoryRepo[T]{searchFields: searchFields}
}

// Create implements domain.ScopedRepository.
func (r *MemoryRepo[T]) Create(_ context.Context, orgID id.ID, e T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if e.GetOrganisationID() != orgID {
		return fmt.Errorf("organisation mismatch")
	}
	for _, row := range r.rows {
		if row.GetID() == e.GetID() {
			return apperror.NewConflict("duplicate id")
		}
	}
	r.rows = append(r.rows, clone(e))
	return nil
}

// GetByID implements domain.ScopedRepository.
func (r *MemoryRepo[T]) GetByID(_ context.Context, orgID, entityID id.ID) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var zero T
	if r.Err != nil {
		return zero, r.Err
	}
	if i := r.index(orgID, entityID); i >= 0 {
		return clone(r.rows[i]), nil
	}
	return zero, apperror.NewNotFound("entity", entityID.String())
}

// Update implements domain.ScopedRepository.
func (r *MemoryRepo[T]) Update(_ context.Context, orgID id.ID, e T) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if r.Err != nil {
		return zero, r.Err
	}
	i := r.index(orgID, e.GetID())
	if i < 0 {
		return zero, apperror.NewNotFound("entity", e.GetID().String())
	}
	r.rows[i] = clone(e)
	return clone(e), nil
}

// Delete implements domain.ScopedRepository.
func (r *MemoryRepo[T]) Delete(_ context.Context, orgID, entityID id.ID) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if r.Err != nil {
		return zero, r.Err
	}
	i := r.index(orgID, entityID)
	if i < 0 {
		return zero, apperror.NewNotFound("entity", entityID.String())
	}
	deleted := r.rows[i]
	r.rows = append(r.rows[:i], r.rows[i+1:]...)
	return deleted, nil
}

// Exists implements domain.ScopedRepository.
func (r *MemoryRepo[T]) Exists(_ context.Context, orgID, entityID id.ID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return false, r.Err
	}
	return r.index(orgID, entityID) >= 0, nil
}

// List implements domain.ScopedRepository.
func (r *MemoryRepo[T]) List(_ context.Context, orgID id.ID, f domain.ListFilter) (domain.ListResult[T], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return domain.ListResult[T]{}, r.Err
	}

	var matched []T
	for _, row := range r.rows {
		if row.GetOrganisationID() != orgID {
			continue
		}
		if !matchesAll(row, f.Items) || !r.matchesSearch(row, f.Search) {
			continue
		}
		matched = append(matched, clone(row))
	}

	if f.OrderBy != "" {
		orderRows(matched, f.OrderBy)
	}

	total := int64(len(matched))
	start := min(f.Offset, len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(matched))
	}
	items := matched[start:end]
	if items == nil {
		items = []T{}
	}
	return domain.ListResult[T]{Items: items, TotalCount: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// All returns a copy of every stored row regardless of organisation.
func (r *MemoryRepo[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, len(r.rows))
	for i, row := range r.rows {
		out[i] = clone(row)
	}
	return out
}

// Len returns the number of stored rows.
func (r *MemoryRepo[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

func (r *MemoryRepo[T]) index(orgID, entityID id.ID) int {
	for i, row := range r.rows {
		if row.GetID() == entityID && row.GetOrganisationID() == orgID {
			return i
		}
	}
	return -1
}

func (r *MemoryRepo[T]) matchesSearch(row T, search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, col := range r.searchFields {
		v, ok := column(row, col)
		if ok && strings.Contains(strings.ToLower(fmt.Sprint(v)), search) {
			return true
		}
	}
	return false
}

// clone copies the struct behind a pointer entity.
func clone[T any](v T) T {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return v
	}
	cp := reflect.New(rv.Elem().Type())
	cp.Elem().Set(rv.Elem())
	return cp.Interface().(T)
}

// column returns the dereferenced value of the field tagged db:"name".
// ok is false when the field is absent; a nil pointer yields (nil, true).
func column(v any, name string) (any, bool) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	return findColumn(rv, name)
}

func findColumn(rv reflect.Value, name string) (any, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fv := rv.Field(i)
		if sf.Anonymous && fv.Kind() == reflect.Struct {
			if v, ok := findColumn(fv, name); ok {
				return v, true
			}
			continue
		}
		if strings.Split(sf.Tag.Get("db"), ",")[0] != name {
			continue
		}
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				return nil, true
			}
			fv = fv.Elem()
		}
		return fv.Interface(), true
	}
	return nil, false
}

func matchesAll(row any, items []filter.Item) bool {
	for _, it := range items {
		if !matches(row, it) {
			return false
		}
	}
	return true
}

func matches(row any, it filter.Item) bool {
	v, ok := column(row, it.Field)
	if !ok {
		return false
	}
	switch it.Operator {
	case filter.IsNull:
		return v == nil
	case filter.IsNotNull:
		return v != nil
	}
	if v == nil {
		return false
	}

	switch it.Operator {
	case filter.Equal:
		return compare(v, it.Value) == 0
	case filter.NotEqual:
		return compare(v, it.Value) != 0
	case filter.Less:
		return compare(v, it.Value) < 0
	case filter.LessOrEqual:
		return compare(v, it.Value) <= 0
	case filter.Greater:
		return compare(v, it.Value) > 0
	case filter.GreaterOrEqual:
		return compare(v, it.Value) >= 0
	case filter.Contains:
		return strings.Contains(strings.ToLower(fmt.Sprint(v)), strings.ToLower(fmt.Sprint(it.Value)))
	case filter.InList:
		rv := reflect.ValueOf(it.Value)
		if rv.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if compare(v, rv.Index(i).Interface()) == 0 {
				return true
			}
		}
	}
	return false
}

// compare orders two column values. nil sorts after everything.
func compare(a, b any) int {
	if p, ok := b.(*time.Time); ok && p != nil {
		b = *p
	}
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case int:
		if bv, ok := b.(int); ok {
			return av - bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// orderRows sorts by comma-separated columns; a leading "-" means descending.
func orderRows[T any](rows []T, orderBy string) {
	type key struct {
		col  string
		desc bool
	}
	var keys []key
	for _, part := range strings.Split(orderBy, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k := key{col: part}
		if strings.HasPrefix(part, "-") {
			k = key{col: part[1:], desc: true}
		}
		keys = append(keys, k)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			a, _ := column(rows[i], k.col)
			b, _ := column(rows[j], k.col)
			c := compare(a, b)
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
