// Package hr_repo provides PostgreSQL repositories for tenant-owned HR records.
// Every statement is constrained by organisation_id; a foreign row is reported as missing.
package hr_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/entity"
	"kadryhr/internal/core/id"
	"kadryhr/internal/domain"
	"kadryhr/internal/domain/filter"
	"kadryhr/internal/infrastructure/storage/postgres"
)

const orgColumn = "organisation_id"

// immutable columns are never written by Update.
var immutable = map[string]bool{"id": true, orgColumn: true, "created_at": true}

// ScopedRepo implements domain.ScopedRepository over one table.
type ScopedRepo[T entity.Scoped] struct {
	txm          *postgres.TxManager
	tableName    string
	entityName   string
	selectCols   []string
	validCols    map[string]bool
	searchCols   []string
	defaultOrder string
	newFn        func() T
}

// Config describes the table behind a ScopedRepo.
type Config[T entity.Scoped] struct {
	Table        string
	EntityName   string
	SearchCols   []string
	DefaultOrder string
	New          func() T
}

// NewScopedRepo creates a repository. Columns are taken from T's db tags.
func NewScopedRepo[T entity.Scoped](txm *postgres.TxManager, cfg Config[T]) *ScopedRepo[T] {
	cols := postgres.Columns[T]()
	valid := make(map[string]bool, len(cols))
	for _, c := range cols {
		valid[c] = true
	}
	order := cfg.DefaultOrder
	if order == "" {
		order = "created_at DESC, id DESC"
	}
	return &ScopedRepo[T]{
		txm:          txm,
		tableName:    cfg.Table,
		entityName:   cfg.EntityName,
		selectCols:   cols,
		validCols:    valid,
		searchCols:   cfg.SearchCols,
		defaultOrder: order,
		newFn:        cfg.New,
	}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *ScopedRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *ScopedRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.Querier(ctx)
}

func (r *ScopedRepo[T]) scoped(orgID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{orgColumn: orgID})
}

func (r *ScopedRepo[T]) returning() string {
	return "RETURNING " + strings.Join(r.selectCols, ", ")
}

// Create inserts e. e must already belong to orgID.
func (r *ScopedRepo[T]) Create(ctx context.Context, orgID id.ID, e T) error {
	if e.GetOrganisationID() != orgID {
		return fmt.Errorf("insert %s: organisation mismatch", r.tableName)
	}
	data := r.columnsOf(e, false)

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert %s: %w", r.tableName, err), r.entityName)
	}
	return nil
}

// GetByID returns the row when it belongs to orgID.
func (r *ScopedRepo[T]) GetByID(ctx context.Context, orgID, entityID id.ID) (T, error) {
	sql, args, err := r.scoped(orgID).Where(squirrel.Eq{"id": entityID}).Limit(1).ToSql()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("build query: %w", err)
	}
	return r.getOne(ctx, entityID, sql, args)
}

// Update writes the mutable columns with a single statement filtered by id and organisation.
func (r *ScopedRepo[T]) Update(ctx context.Context, orgID id.ID, e T) (T, error) {
	data := r.columnsOf(e, true)

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(data).
		Where(squirrel.Eq{"id": e.GetID(), orgColumn: orgID}).
		Suffix(r.returning()).
		ToSql()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("build update: %w", err)
	}
	return r.getOne(ctx, e.GetID(), sql, args)
}

// Delete removes the row with a single statement filtered by id and organisation.
func (r *ScopedRepo[T]) Delete(ctx context.Context, orgID, entityID id.ID) (T, error) {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID, orgColumn: orgID}).
		Suffix(r.returning()).
		ToSql()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("build delete: %w", err)
	}
	return r.getOne(ctx, entityID, sql, args)
}

// Exists reports whether the row exists in orgID.
func (r *ScopedRepo[T]) Exists(ctx context.Context, orgID, entityID id.ID) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From(r.tableName).
		Where(squirrel.Eq{"id": entityID, orgColumn: orgID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.tableName, err)
	}
	return true, nil
}

// List retrieves the organisation's rows with filtering and pagination.
func (r *ScopedRepo[T]) List(ctx context.Context, orgID id.ID, f domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: f.Limit, Offset: f.Offset, Items: []T{}}

	q, err := r.listQuery(orgID, f)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	orderBy, err := r.parseOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return result, nil
}

// listQuery builds the filtered SELECT without ordering or pagination.
func (r *ScopedRepo[T]) listQuery(orgID id.ID, f domain.ListFilter) (squirrel.SelectBuilder, error) {
	q := r.scoped(orgID)
	if s := strings.TrimSpace(f.Search); s != "" && len(r.searchCols) > 0 {
		pattern := "%" + escapeLike(s) + "%"
		or := make(squirrel.Or, 0, len(r.searchCols))
		for _, col := range r.searchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}
	return r.applyFilters(q, f.Items)
}

// applyFilters translates conditions to WHERE clauses. Unknown columns are rejected.
func (r *ScopedRepo[T]) applyFilters(q squirrel.SelectBuilder, items []filter.Item) (squirrel.SelectBuilder, error) {
	for _, item := range items {
		if !r.validCols[item.Field] {
			return q, apperror.NewValidation("invalid filter field").WithField(item.Field, "is not filterable")
		}

		switch item.Operator {
		case filter.Equal:
			q = q.Where(squirrel.Eq{item.Field: item.Value})
		case filter.NotEqual:
			q = q.Where(squirrel.NotEq{item.Field: item.Value})
		case filter.Less:
			q = q.Where(squirrel.Lt{item.Field: item.Value})
		case filter.LessOrEqual:
			q = q.Where(squirrel.LtOrEq{item.Field: item.Value})
		case filter.Greater:
			q = q.Where(squirrel.Gt{item.Field: item.Value})
		case filter.GreaterOrEqual:
			q = q.Where(squirrel.GtOrEq{item.Field: item.Value})
		case filter.InList:
			q = q.Where(squirrel.Eq{item.Field: item.Value})
		case filter.IsNull:
			q = q.Where(squirrel.Eq{item.Field: nil})
		case filter.IsNotNull:
			q = q.Where(squirrel.NotEq{item.Field: nil})
		case filter.Contains:
			q = q.Where(squirrel.ILike{item.Field: "%" + escapeLike(fmt.Sprint(item.Value)) + "%"})
		default:
			return q, apperror.NewValidation("invalid filter operator").WithField(item.Field, "unsupported operator "+string(item.Operator))
		}
	}
	return q, nil
}

// parseOrderBy turns "last_name,-starts_at" into an ORDER BY clause over whitelisted columns.
// id is appended as a tie breaker so pagination is stable.
func (r *ScopedRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return r.defaultOrder, nil
	}
	var parts []string
	for _, raw := range strings.Split(orderBy, ",") {
		col := strings.TrimSpace(raw)
		if col == "" {
			continue
		}
		dir := "ASC"
		if strings.HasPrefix(col, "-") {
			col, dir = col[1:], "DESC"
		}
		if !r.validCols[col] {
			return "", apperror.NewValidation("invalid sort field").WithField("orderBy", col+" is not sortable")
		}
		parts = append(parts, col+" "+dir)
	}
	if len(parts) == 0 {
		return r.defaultOrder, nil
	}
	return strings.Join(append(parts, "id ASC"), ", "), nil
}

// columnsOf maps e to insertable columns. forUpdate drops immutable ones.
func (r *ScopedRepo[T]) columnsOf(e T, forUpdate bool) map[string]any {
	values := postgres.Values(e)
	data := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if forUpdate && immutable[col] {
			continue
		}
		if v, ok := values[col]; ok {
			data[col] = v
		}
	}
	return data
}

func (r *ScopedRepo[T]) getOne(ctx context.Context, entityID id.ID, sql string, args []any) (T, error) {
	e := r.newFn()
	if err := pgxscan.Get(ctx, r.querier(ctx), e, sql, args...); err != nil {
		var zero T
		if pgxscan.NotFound(err) {
			return zero, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return zero, postgres.MapError(fmt.Errorf("%s %s: %w", r.tableName, entityID, err), r.entityName)
	}
	return e, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
