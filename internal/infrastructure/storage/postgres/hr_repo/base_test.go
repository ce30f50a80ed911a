package hr_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
	"kadryhr/internal/domain"
	"kadryhr/internal/domain/employee"
	"kadryhr/internal/domain/filter"
	"kadryhr/internal/infrastructure/storage/postgres"
)

func employeeSelect() string {
	return "SELECT " + strings.Join(postgres.Columns[*employee.Employee](), ", ") + " FROM employees"
}

func TestListQuery_ScopedToOrganisation(t *testing.T) {
	repo := NewEmployeeRepo(nil)
	orgID := id.New()

	q, err := repo.listQuery(orgID, domain.ListFilter{})
	require.NoError(t, err)
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Equal(t, employeeSelect()+" WHERE organisation_id = $1", sql)
	assert.Equal(t, []any{orgID.String()}, args)
}

func TestListQuery_SearchEscapesPattern(t *testing.T) {
	repo := NewEmployeeRepo(nil)

	q, err := repo.listQuery(id.New(), domain.ListFilter{Search: " 50%_off "})
	require.NoError(t, err)
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Equal(t, employeeSelect()+" WHERE organisation_id = $1 AND (first_name ILIKE $2 OR last_name ILIKE $3 OR email ILIKE $4)", sql)
	assert.Equal(t, `%50\%\_off%`, args[1])
}

func TestApplyFilters_Operators(t *testing.T) {
	repo := NewEmployeeRepo(nil)
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		item     filter.Item
		wantSQL  string
		wantArgs []any
	}{
		{"Equal", filter.Eq("status", "active"), "status = $2", []any{"active"}},
		{"NotEqual", filter.Item{Field: "status", Operator: filter.NotEqual, Value: "terminated"}, "status <> $2", []any{"terminated"}},
		{"Greater", filter.Gt("created_at", since), "created_at > $2", []any{since}},
		{"GreaterOrEqual", filter.Gte("created_at", since), "created_at >= $2", []any{since}},
		{"Less", filter.Lt("created_at", since), "created_at < $2", []any{since}},
		{"LessOrEqual", filter.Lte("created_at", since), "created_at <= $2", []any{since}},
		{"InList", filter.Item{Field: "status", Operator: filter.InList, Value: []string{"active", "inactive"}}, "status IN ($2,$3)", []any{"active", "inactive"}},
		{"IsNull", filter.Item{Field: "user_id", Operator: filter.IsNull}, "user_id IS NULL", nil},
		{"IsNotNull", filter.Item{Field: "user_id", Operator: filter.IsNotNull}, "user_id IS NOT NULL", nil},
		{"Contains", filter.Item{Field: "position", Operator: filter.Contains, Value: "kasjer"}, "position ILIKE $2", []any{"%kasjer%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orgID := id.New()
			q, err := repo.listQuery(orgID, domain.ListFilter{Items: []filter.Item{tt.item}})
			require.NoError(t, err)

			sql, args, err := q.ToSql()
			require.NoError(t, err)
			assert.Equal(t, employeeSelect()+" WHERE organisation_id = $1 AND "+tt.wantSQL, sql)
			assert.Equal(t, append([]any{orgID.String()}, tt.wantArgs...), args)
		})
	}
}

func TestApplyFilters_RejectsUnknownColumn(t *testing.T) {
	repo := NewEmployeeRepo(nil)

	_, err := repo.listQuery(id.New(), domain.ListFilter{Items: []filter.Item{filter.Eq("password; DROP TABLE employees", 1)}})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = repo.listQuery(id.New(), domain.ListFilter{Items: []filter.Item{{Field: "status", Operator: "between"}}})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestParseOrderBy(t *testing.T) {
	repo := NewEmployeeRepo(nil)

	got, err := repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "last_name ASC, first_name ASC, id ASC", got)

	got, err = repo.parseOrderBy("last_name, -created_at")
	require.NoError(t, err)
	assert.Equal(t, "last_name ASC, created_at DESC, id ASC", got)

	_, err = repo.parseOrderBy("last_name;DROP")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestColumnsOf_UpdateSkipsImmutable(t *testing.T) {
	repo := NewEmployeeRepo(nil)
	e := employee.New("Jan", "Kowalski")
	e.AssignOrganisation(id.New())

	insert := repo.columnsOf(e, false)
	assert.Contains(t, insert, "id")
	assert.Contains(t, insert, "organisation_id")
	assert.Equal(t, "Kowalski", insert["last_name"])

	update := repo.columnsOf(e, true)
	assert.NotContains(t, update, "id")
	assert.NotContains(t, update, "organisation_id")
	assert.NotContains(t, update, "created_at")
	assert.Contains(t, update, "updated_at")
	assert.Len(t, update, len(insert)-3)
}

func TestDeleteStatement_FiltersByOrganisation(t *testing.T) {
	repo := NewEmployeeRepo(nil)
	orgID, entityID := id.New(), id.New()

	sql, args, err := repo.Builder().
		Delete(repo.tableName).
		Where(map[string]any{"id": entityID, orgColumn: orgID}).
		Suffix(repo.returning()).
		ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "DELETE FROM employees WHERE id = $1 AND organisation_id = $2 RETURNING id, organisation_id"))
	assert.Equal(t, []any{entityID.String(), orgID.String()}, args)
}
