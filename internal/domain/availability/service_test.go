package availability_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/security"
	"kadryhr/internal/domain/availability"
	"kadryhr/internal/domain/domaintest"
	"kadryhr/internal/domain/employee"
)

func setup(t *testing.T) (*domaintest.Env, domaintest.Member, *employee.Employee) {
	t.Helper()
	env := domaintest.NewEnv()
	m := env.NewMember(env.NewOrganisation("Acme"), "manager@acme.pl", security.RoleManager)
	emp, err := env.Employees.Create(m.Ctx, employee.New("Jan", "Kowalski"))
	require.NoError(t, err)
	return env, m, emp
}

func weekday(d int) *int { return &d }

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	out := make(map[string]string, len(appErr.Fields))
	for _, f := range appErr.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestCreate_WholeDayBoundaries(t *testing.T) {
	env, m, emp := setup(t)

	a := availability.New(emp.ID, 0, 1440)
	a.Weekday = weekday(1)
	created, err := env.Availability.Create(m.Ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 0, created.StartMinutes)
	assert.Equal(t, 1440, created.EndMinutes)
	assert.Equal(t, availability.StatusPending, created.Status)
}

func TestCreate_StartAtEndOfDayRejected(t *testing.T) {
	env, m, emp := setup(t)

	a := availability.New(emp.ID, 1440, 0)
	a.Weekday = weekday(1)
	_, err := env.Availability.Create(m.Ctx, a)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperror.GetHTTPStatus(err))
	assert.Contains(t, fieldsOf(t, err), "endMinutes")
	assert.Zero(t, env.AvailabilityRepo.Len())
}

func TestValidate(t *testing.T) {
	emp := id.New()
	tests := []struct {
		name  string
		build func() *availability.Availability
		field string
	}{
		{"negative start", func() *availability.Availability {
			a := availability.New(emp, -1, 60)
			a.Weekday = weekday(0)
			return a
		}, "startMinutes"},
		{"end past midnight", func() *availability.Availability {
			a := availability.New(emp, 0, 1441)
			a.Weekday = weekday(0)
			return a
		}, "endMinutes"},
		{"empty window", func() *availability.Availability {
			a := availability.New(emp, 600, 600)
			a.Weekday = weekday(0)
			return a
		}, "endMinutes"},
		{"no day", func() *availability.Availability {
			return availability.New(emp, 0, 60)
		}, "date"},
		{"both day kinds", func() *availability.Availability {
			a := availability.New(emp, 0, 60)
			a.Weekday = weekday(2)
			a.Date = date("2026-07-01")
			return a
		}, "weekday"},
		{"weekday out of range", func() *availability.Availability {
			a := availability.New(emp, 0, 60)
			a.Weekday = weekday(7)
			return a
		}, "weekday"},
		{"missing employee", func() *availability.Availability {
			a := availability.New(id.Nil(), 0, 60)
			a.Weekday = weekday(3)
			return a
		}, "employeeId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate(t.Context())
			require.Error(t, err)
			assert.Contains(t, fieldsOf(t, err), tt.field)
		})
	}
}

func TestCreate_UnknownEmployee(t *testing.T) {
	env, m, _ := setup(t)

	a := availability.New(id.New(), 480, 960)
	a.Weekday = weekday(2)
	_, err := env.Availability.Create(m.Ctx, a)
	assert.Equal(t, "does not exist", fieldsOf(t, err)["employeeId"])
}

func TestApproveTwice(t *testing.T) {
	env, m, emp := setup(t)

	a := availability.New(emp.ID, 480, 960)
	a.Date = date("2026-07-01")
	created, err := env.Availability.Create(m.Ctx, a)
	require.NoError(t, err)

	approved, err := env.Availability.Approve(m.Ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, availability.StatusApproved, approved.Status)

	_, err = env.Availability.Reject(m.Ctx, created.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))

	entries := env.Audit.ForEntity(created.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, "AVAILABILITY_APPROVE", entries[1].Action)
}

func TestList(t *testing.T) {
	env, m, emp := setup(t)

	for _, d := range []string{"2026-07-03", "2026-07-01", "2026-08-01"} {
		a := availability.New(emp.ID, 480, 960)
		a.Date = date(d)
		_, err := env.Availability.Create(m.Ctx, a)
		require.NoError(t, err)
	}
	recurring := availability.New(emp.ID, 0, 1440)
	recurring.Weekday = weekday(6)
	_, err := env.Availability.Create(m.Ctx, recurring)
	require.NoError(t, err)

	all, err := env.Availability.List(m.Ctx, availability.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 4)

	july, err := env.Availability.List(m.Ctx, availability.ListQuery{StartDate: "2026-07-01", EndDate: "2026-07-31"})
	require.NoError(t, err)
	require.Len(t, july.Items, 2)
	assert.Equal(t, *date("2026-07-01"), *july.Items[0].Date)
	assert.Equal(t, *date("2026-07-03"), *july.Items[1].Date)

	_, err = env.Availability.List(m.Ctx, availability.ListQuery{EmployeeID: "nope"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
