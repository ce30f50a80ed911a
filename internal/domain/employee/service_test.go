package employee_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/security"
	"kadryhr/internal/domain/domaintest"
	"kadryhr/internal/domain/employee"
	"kadryhr/internal/domain/leave"
	"kadryhr/internal/domain/rcp"
)

func TestService_CreateThenListRoundTrip(t *testing.T) {
	env := domaintest.NewEnv()
	admin := env.NewMember(env.NewOrganisation("Demo Sp. z o.o."), "admin@example.com", security.RoleAdmin)

	e := employee.New("Jan", "Kowalski")
	e.Email = "jan@example.com"
	created, err := env.Employees.Create(admin.Ctx, e)
	require.NoError(t, err)
	assert.False(t, id.IsNil(created.ID))
	assert.Equal(t, admin.Org.ID, created.OrganisationID)

	list, err := env.Employees.List(admin.Ctx, employee.ListQuery{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	got := list.Items[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Jan", got.FirstName)
	assert.Equal(t, "Kowalski", got.LastName)
	assert.Equal(t, "jan@example.com", got.Email)
	assert.Equal(t, employee.StatusActive, got.Status)
}

func TestService_CreateRecordsOneAuditEntry(t *testing.T) {
	env := domaintest.NewEnv()
	admin := env.NewMember(env.NewOrganisation("Acme"), "admin@acme.pl", security.RoleAdmin)

	created, err := env.Employees.Create(admin.Ctx, employee.New("Anna", "Nowak"))
	require.NoError(t, err)

	entries := env.Audit.ForEntity(created.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, "EMPLOYEE_CREATE", entries[0].Action)
	assert.Equal(t, "employee", entries[0].EntityType)
	assert.Equal(t, admin.User.ID, entries[0].ActorID)
	assert.Equal(t, admin.Org.ID, entries[0].OrganisationID)
	assert.Nil(t, entries[0].Before)
	assert.NotEmpty(t, entries[0].After)
}

func TestService_CreateIgnoresClientOrganisation(t *testing.T) {
	env := domaintest.NewEnv()
	admin := env.NewMember(env.NewOrganisation("Acme"), "admin@acme.pl", security.RoleAdmin)

	e := employee.New("Anna", "Nowak")
	e.OrganisationID = id.New()
	created, err := env.Employees.Create(admin.Ctx, e)
	require.NoError(t, err)
	assert.Equal(t, admin.Org.ID, created.OrganisationID)
}

func TestService_Validation(t *testing.T) {
	env := domaintest.NewEnv()
	admin := env.NewMember(env.NewOrganisation("Acme"), "admin@acme.pl", security.RoleAdmin)

	e := employee.New("Anna", "")
	e.Email = "not-an-email"
	_, err := env.Employees.Create(admin.Ctx, e)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, apperror.FieldError{Field: "lastName", Message: "is required"})
	assert.Contains(t, appErr.Fields, apperror.FieldError{Field: "email", Message: "must be a valid email address"})
	assert.Zero(t, env.EmployeeRepo.Len())
	assert.Empty(t, env.Audit.Entries())
}

func TestService_RequiresIdentity(t *testing.T) {
	env := domaintest.NewEnv()

	_, err := env.Employees.Create(context.Background(), employee.New("Anna", "Nowak"))
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
	assert.Zero(t, env.EmployeeRepo.Len())
}

func TestService_CrossTenantBehavesAsNotFound(t *testing.T) {
	env := domaintest.NewEnv()
	a := env.NewMember(env.NewOrganisation("Org A"), "owner@a.pl", security.RoleOwner)
	b := env.NewMember(env.NewOrganisation("Org B"), "owner@b.pl", security.RoleOwner)

	foreign, err := env.Employees.Create(b.Ctx, employee.New("Ewa", "Zielińska"))
	require.NoError(t, err)
	auditBefore := len(env.Audit.Entries())

	_, err = env.Employees.Get(a.Ctx, foreign.ID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = env.Employees.Update(a.Ctx, foreign.ID, func(_ context.Context, e *employee.Employee) error {
		e.LastName = "Hacked"
		return nil
	})
	assert.True(t, apperror.IsNotFound(err))

	err = env.Employees.Delete(a.Ctx, foreign.ID)
	assert.True(t, apperror.IsNotFound(err))

	still, err := env.Employees.Get(b.Ctx, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zielińska", still.LastName)
	assert.Len(t, env.Audit.Entries(), auditBefore)

	list, err := env.Employees.List(a.Ctx, employee.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestService_UpdateAuditsBeforeAndAfter(t *testing.T) {
	env := domaintest.NewEnv()
	admin := env.NewMember(env.NewOrganisation("Acme"), "admin@acme.pl", security.RoleAdmin)

	created, err := env.Employees.Create(admin.Ctx, employee.New("Anna", "Nowak"))
	require.NoError(t, err)

	updated, err := env.Employees.Update(admin.Ctx, created.ID, func(_ context.Context, e *employee.Employee) error {
		e.Position = "Kasjer"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Kasjer", updated.Position)

	entries := env.Audit.ForEntity(created.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, "EMPLOYEE_UPDATE", entries[1].Action)
	assert.NotContains(t, string(entries[1].Before), "Kasjer")
	assert.Contains(t, string(entries[1].After), "Kasjer")
}

func TestService_InvalidUpdateLeavesRowUntouched(t *testing.T) {
	env := domaintest.NewEnv()
	admin := env.NewMember(env.NewOrganisation("Acme"), "admin@acme.pl", security.RoleAdmin)

	created, err := env.Employees.Create(admin.Ctx, employee.New("Anna", "Nowak"))
	require.NoError(t, err)

	_, err = env.Employees.Update(admin.Ctx, created.ID, func(_ context.Context, e *employee.Employee) error {
		e.FirstName = ""
		return nil
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	got, err := env.Employees.Get(admin.Ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.FirstName)
	assert.Len(t, env.Audit.ForEntity(created.ID), 1)
}

func TestService_DeleteTwice(t *testing.T) {
	env := domaintest.NewEnv()
	admin := env.NewMember(env.NewOrganisation("Acme"), "admin@acme.pl", security.RoleAdmin)

	created, err := env.Employees.Create(admin.Ctx, employee.New("Anna", "Nowak"))
	require.NoError(t, err)

	require.NoError(t, env.Employees.Delete(admin.Ctx, created.ID))
	err = env.Employees.Delete(admin.Ctx, created.ID)
	assert.True(t, apperror.IsNotFound(err))

	entries := env.Audit.ForEntity(created.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, "EMPLOYEE_DELETE", entries[1].Action)
	assert.NotEmpty(t, entries[1].Before)
	assert.Nil(t, entries[1].After)
}

func TestService_DeleteRejectedWhileHistoryExists(t *testing.T) {
	env := domaintest.NewEnv()
	admin := env.NewMember(env.NewOrganisation("Acme"), "admin@acme.pl", security.RoleAdmin)

	created, err := env.Employees.Create(admin.Ctx, employee.New("Anna", "Nowak"))
	require.NoError(t, err)
	_, err = env.RCP.Record(admin.Ctx, rcp.New(created.ID, rcp.KindClockIn, time.Now().Add(-time.Hour)))
	require.NoError(t, err)

	err = env.Employees.Delete(admin.Ctx, created.ID)
	require.True(t, apperror.HasCode(err, apperror.CodeConflict), "got %v", err)
	assert.Contains(t, err.Error(), "time events")

	_, err = env.Employees.Get(admin.Ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, env.EventRepo.Len())
	require.Len(t, env.Audit.ForEntity(created.ID), 1, "rejected delete is not audited")

	retired, err := env.Employees.Update(admin.Ctx, created.ID, func(_ context.Context, e *employee.Employee) error {
		e.Status = employee.StatusTerminated
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, employee.StatusTerminated, retired.Status)
}

func TestService_DeleteRejectedWhileLeaveRequested(t *testing.T) {
	env := domaintest.NewEnv()
	admin := env.NewMember(env.NewOrganisation("Acme"), "admin@acme.pl", security.RoleAdmin)

	created, err := env.Employees.Create(admin.Ctx, employee.New("Jan", "Kowalski"))
	require.NoError(t, err)
	day := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err = env.Leave.Create(admin.Ctx, leave.New(created.ID, leave.CategoryPaid, day, day.AddDate(0, 0, 4)))
	require.NoError(t, err)

	err = env.Employees.Delete(admin.Ctx, created.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
	assert.Equal(t, 1, env.LeaveRepo.Len())
}

func TestService_AuditFailureDoesNotFailMutation(t *testing.T) {
	env := domaintest.NewEnv()
	admin := env.NewMember(env.NewOrganisation("Acme"), "admin@acme.pl", security.RoleAdmin)
	env.Audit.Err = errors.New("audit table unavailable")

	created, err := env.Employees.Create(admin.Ctx, employee.New("Anna", "Nowak"))
	require.NoError(t, err)

	_, err = env.Employees.Get(admin.Ctx, created.ID)
	assert.NoError(t, err)
}

func TestService_ListFilters(t *testing.T) {
	env := domaintest.NewEnv()
	admin := env.NewMember(env.NewOrganisation("Acme"), "admin@acme.pl", security.RoleAdmin)

	for _, name := range [][2]string{{"Zofia", "Wójcik"}, {"Adam", "Kowalczyk"}, {"Piotr", "Lewandowski"}} {
		_, err := env.Employees.Create(admin.Ctx, employee.New(name[0], name[1]))
		require.NoError(t, err)
	}
	_, err := env.Employees.Update(admin.Ctx, env.EmployeeRepo.All()[2].ID, func(_ context.Context, e *employee.Employee) error {
		e.Status = employee.StatusTerminated
		return nil
	})
	require.NoError(t, err)

	all, err := env.Employees.List(admin.Ctx, employee.ListQuery{})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	assert.Equal(t, "Kowalczyk", all.Items[0].LastName)
	assert.Equal(t, "Lewandowski", all.Items[1].LastName)
	assert.Equal(t, "Wójcik", all.Items[2].LastName)

	active, err := env.Employees.List(admin.Ctx, employee.ListQuery{Status: "active"})
	require.NoError(t, err)
	assert.Len(t, active.Items, 2)

	found, err := env.Employees.List(admin.Ctx, employee.ListQuery{Search: "kowal"})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Adam", found.Items[0].FirstName)

	_, err = env.Employees.List(admin.Ctx, employee.ListQuery{Status: "fired"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_UserLinkMustBeInOrganisation(t *testing.T) {
	env := domaintest.NewEnv()
	admin := env.NewMember(env.NewOrganisation("Org A"), "admin@a.pl", security.RoleAdmin)
	other := env.NewMember(env.NewOrganisation("Org B"), "user@b.pl", security.RoleEmployee)
	colleague := env.NewMember(admin.Org, "anna@a.pl", security.RoleEmployee)

	e := employee.New("Anna", "Nowak")
	e.UserID = &other.User.ID
	_, err := env.Employees.Create(admin.Ctx, e)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "userId", appErr.Fields[0].Field)

	e = employee.New("Anna", "Nowak")
	e.UserID = &colleague.User.ID
	_, err = env.Employees.Create(admin.Ctx, e)
	assert.NoError(t, err)
}
