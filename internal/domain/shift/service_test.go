package shift_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/security"
	"kadryhr/internal/domain/domaintest"
	"kadryhr/internal/domain/employee"
	"kadryhr/internal/domain/location"
	"kadryhr/internal/domain/shift"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestShifts(t *testing.T) {
	env := domaintest.NewEnv()
	m := env.NewMember(env.NewOrganisation("Acme"), "manager@acme.pl", security.RoleManager)
	other := env.NewMember(env.NewOrganisation("Other"), "owner@other.pl", security.RoleOwner)

	emp, err := env.Employees.Create(m.Ctx, employee.New("Jan", "Kowalski"))
	require.NoError(t, err)
	shop, err := env.Locations.Create(m.Ctx, location.New("Sklep Centrum", "ul. Długa 1"))
	require.NoError(t, err)
	foreignLoc, err := env.Locations.Create(other.Ctx, location.New("Magazyn", ""))
	require.NoError(t, err)

	t.Run("create and order by start", func(t *testing.T) {
		late := shift.New(emp.ID, at("2026-07-02T14:00:00Z"), at("2026-07-02T22:00:00Z"))
		late.LocationID = &shop.ID
		_, err := env.Shifts.Create(m.Ctx, late)
		require.NoError(t, err)
		_, err = env.Shifts.Create(m.Ctx, shift.New(emp.ID, at("2026-07-01T06:00:00Z"), at("2026-07-01T14:00:00Z")))
		require.NoError(t, err)

		res, err := env.Shifts.List(m.Ctx, shift.ListQuery{})
		require.NoError(t, err)
		require.Len(t, res.Items, 2)
		assert.Equal(t, at("2026-07-01T06:00:00Z"), res.Items[0].StartsAt)
		assert.Equal(t, 8*time.Hour, res.Items[1].Duration())
	})

	t.Run("date range overlap", func(t *testing.T) {
		res, err := env.Shifts.List(m.Ctx, shift.ListQuery{StartDate: "2026-07-02", EndDate: "2026-07-02"})
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		assert.Equal(t, at("2026-07-02T14:00:00Z"), res.Items[0].StartsAt)

		res, err = env.Shifts.List(m.Ctx, shift.ListQuery{LocationID: shop.ID.String()})
		require.NoError(t, err)
		assert.Len(t, res.Items, 1)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := env.Shifts.List(m.Ctx, shift.ListQuery{StartDate: "2026-07-02", EndDate: "2026-07-01"})
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("ends before start", func(t *testing.T) {
		_, err := env.Shifts.Create(m.Ctx, shift.New(emp.ID, at("2026-07-03T14:00:00Z"), at("2026-07-03T06:00:00Z")))
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, "endsAt", appErr.Fields[0].Field)
	})

	t.Run("foreign references look missing", func(t *testing.T) {
		s := shift.New(emp.ID, at("2026-07-03T06:00:00Z"), at("2026-07-03T14:00:00Z"))
		s.LocationID = &foreignLoc.ID
		_, err := env.Shifts.Create(m.Ctx, s)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, []apperror.FieldError{{Field: "locationId", Message: "does not exist"}}, appErr.Fields)

		_, err = env.Shifts.Create(m.Ctx, shift.New(id.New(), at("2026-07-03T06:00:00Z"), at("2026-07-03T14:00:00Z")))
		appErr, ok = apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, "employeeId", appErr.Fields[0].Field)
		assert.Equal(t, 2, env.ShiftRepo.Len())
	})

	t.Run("other organisation sees nothing", func(t *testing.T) {
		res, err := env.Shifts.List(other.Ctx, shift.ListQuery{})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
	})
}

func TestShifts_KeepLocationAndEmployee(t *testing.T) {
	env := domaintest.NewEnv()
	m := env.NewMember(env.NewOrganisation("Acme"), "admin@acme.pl", security.RoleAdmin)

	emp, err := env.Employees.Create(m.Ctx, employee.New("Jan", "Kowalski"))
	require.NoError(t, err)
	shop, err := env.Locations.Create(m.Ctx, location.New("Sklep Centrum", ""))
	require.NoError(t, err)
	empty, err := env.Locations.Create(m.Ctx, location.New("Magazyn", ""))
	require.NoError(t, err)

	sh := shift.New(emp.ID, at("2026-07-01T06:00:00Z"), at("2026-07-01T14:00:00Z"))
	sh.LocationID = &shop.ID
	_, err = env.Shifts.Create(m.Ctx, sh)
	require.NoError(t, err)

	assert.True(t, apperror.HasCode(env.Locations.Delete(m.Ctx, shop.ID), apperror.CodeConflict))
	assert.True(t, apperror.HasCode(env.Employees.Delete(m.Ctx, emp.ID), apperror.CodeConflict))
	assert.NoError(t, env.Locations.Delete(m.Ctx, empty.ID))

	got, err := env.Shifts.Get(m.Ctx, sh.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LocationID)
	assert.Equal(t, shop.ID, *got.LocationID)
}
