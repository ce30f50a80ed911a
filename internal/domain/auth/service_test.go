package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadryhr/internal/core/apperror"
	appctx "kadryhr/internal/core/context"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/security"
	"kadryhr/internal/domain/auth"
	"kadryhr/internal/domain/domaintest"
	"kadryhr/internal/domain/notification"
)

func login(t *testing.T, env *domaintest.Env, email string) *auth.LoginResult {
	t.Helper()
	res, err := env.Auth.Login(context.Background(), auth.LoginInput{Email: email, Password: domaintest.Password})
	require.NoError(t, err)
	return res
}

func TestRegister(t *testing.T) {
	env := domaintest.NewEnv()

	user, org, err := env.Auth.Register(context.Background(), auth.RegisterInput{
		OrganisationName: "Piekarnia Kowalscy",
		Email:            "Owner@Piekarnia.PL",
		Password:         domaintest.Password,
	})
	require.NoError(t, err)
	assert.Equal(t, security.RoleOwner, user.Role)
	assert.Equal(t, "owner@piekarnia.pl", user.Email)
	assert.Equal(t, "piekarnia-kowalscy", org.Slug)
	assert.Equal(t, org.ID, user.OrganisationID)
	assert.NotEqual(t, domaintest.Password, user.PasswordHash)

	entries := env.Audit.ForEntity(user.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, "USER_CREATE", entries[0].Action)
	assert.Equal(t, user.ID, entries[0].ActorID)
	assert.NotContains(t, string(entries[0].After), "password")

	_, _, err = env.Auth.Register(context.Background(), auth.RegisterInput{
		OrganisationName: "Inna",
		Email:            "owner@piekarnia.pl",
		Password:         domaintest.Password,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	_, _, err = env.Auth.Register(context.Background(), auth.RegisterInput{
		OrganisationName: "Krótkie",
		Email:            "a@b.pl",
		Password:         "short",
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestLogin_ResolveBothCredentials(t *testing.T) {
	env := domaintest.NewEnv()
	org := env.NewOrganisation("Demo Sp. z o.o.")
	admin := env.NewMember(org, "admin@example.com", security.RoleAdmin)

	res := login(t, env, "ADMIN@example.com")
	assert.NotEmpty(t, res.SessionToken)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Demo Sp. z o.o.", res.Organisation.Name)
	assert.Equal(t, 1, env.Sessions.Len())

	for name, cred := range map[string]auth.Credential{
		"cookie": {SessionToken: res.SessionToken},
		"bearer": {BearerToken: res.AccessToken},
	} {
		t.Run(name, func(t *testing.T) {
			ident, err := env.Auth.Resolve(context.Background(), cred)
			require.NoError(t, err)
			assert.Equal(t, admin.User.ID, ident.UserID)
			assert.Equal(t, org.ID, ident.OrganisationID)
			assert.Equal(t, security.RoleAdmin, ident.Role)
			assert.Equal(t, "Demo Sp. z o.o.", ident.Tenant.Name)
			assert.False(t, id.IsNil(ident.SessionID))
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := domaintest.NewEnv()
	env.NewMember(env.NewOrganisation("Acme"), "admin@example.com", security.RoleAdmin)

	_, err := env.Auth.Login(context.Background(), auth.LoginInput{Email: "admin@example.com", Password: "wrong-password"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)

	_, err2 := env.Auth.Login(context.Background(), auth.LoginInput{Email: "nobody@example.com", Password: domaintest.Password})
	appErr2, ok := apperror.AsAppError(err2)
	require.True(t, ok)
	assert.Equal(t, appErr.Message, appErr2.Message, "unknown email and wrong password look alike")
	assert.Zero(t, env.Sessions.Len())
}

func TestLogin_Lockout(t *testing.T) {
	env := domaintest.NewEnv()
	env.NewMember(env.NewOrganisation("Acme"), "admin@example.com", security.RoleAdmin)
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	env.Auth.SetClock(func() time.Time { return now })

	for range 5 {
		_, err := env.Auth.Login(context.Background(), auth.LoginInput{Email: "admin@example.com", Password: "wrong-password"})
		require.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
	}

	_, err := env.Auth.Login(context.Background(), auth.LoginInput{Email: "admin@example.com", Password: domaintest.Password})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	now = now.Add(16 * time.Minute)
	_, err = env.Auth.Login(context.Background(), auth.LoginInput{Email: "admin@example.com", Password: domaintest.Password})
	assert.NoError(t, err)
}

func TestResolve_Failures(t *testing.T) {
	env := domaintest.NewEnv()
	env.NewMember(env.NewOrganisation("Acme"), "admin@example.com", security.RoleAdmin)
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	env.Auth.SetClock(func() time.Time { return now })
	res := login(t, env, "admin@example.com")

	_, err := env.Auth.Resolve(context.Background(), auth.Credential{})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	_, err = env.Auth.Resolve(context.Background(), auth.Credential{SessionToken: "deadbeef"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	_, err = env.Auth.Resolve(context.Background(), auth.Credential{BearerToken: "not.a.jwt"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	other := auth.NewJWTService(auth.DefaultJWTConfig("another-secret-with-at-least-32-bytes"))
	forged, _, err := other.GenerateAccessToken(&auth.Session{ExpiresAt: now.Add(time.Hour)}, security.RoleOwner)
	require.NoError(t, err)
	_, err = env.Auth.Resolve(context.Background(), auth.Credential{BearerToken: forged})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	now = now.Add(20 * time.Minute)
	_, err = env.Auth.Resolve(context.Background(), auth.Credential{BearerToken: res.AccessToken})
	assert.True(t, apperror.HasCode(err, apperror.CodeSessionExpired), "access token expired")
	_, err = env.Auth.Resolve(context.Background(), auth.Credential{SessionToken: res.SessionToken})
	assert.NoError(t, err, "session still valid")

	now = now.Add(8 * 24 * time.Hour)
	_, err = env.Auth.Resolve(context.Background(), auth.Credential{SessionToken: res.SessionToken})
	assert.True(t, apperror.HasCode(err, apperror.CodeSessionExpired))

	removed, err := env.Auth.CleanupSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestLogout_RevokesBothCredentials(t *testing.T) {
	env := domaintest.NewEnv()
	env.NewMember(env.NewOrganisation("Acme"), "admin@example.com", security.RoleAdmin)
	res := login(t, env, "admin@example.com")

	ident, err := env.Auth.Resolve(context.Background(), auth.Credential{SessionToken: res.SessionToken})
	require.NoError(t, err)
	require.NoError(t, env.Auth.Logout(appctx.WithIdentity(context.Background(), ident)))

	_, err = env.Auth.Resolve(context.Background(), auth.Credential{SessionToken: res.SessionToken})
	assert.Equal(t, 401, apperror.GetHTTPStatus(err))
	_, err = env.Auth.Resolve(context.Background(), auth.Credential{BearerToken: res.AccessToken})
	assert.Equal(t, 401, apperror.GetHTTPStatus(err))
}

func TestMe(t *testing.T) {
	env := domaintest.NewEnv()
	admin := env.NewMember(env.NewOrganisation("Demo Sp. z o.o."), "admin@example.com", security.RoleAdmin)

	p, err := env.Auth.Me(admin.Ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", p.User.Email)
	assert.Equal(t, security.RoleAdmin, p.User.Role)
	assert.Equal(t, "Demo Sp. z o.o.", p.Organisation.Name)

	_, err = env.Auth.Me(context.Background())
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestCreateUser(t *testing.T) {
	env := domaintest.NewEnv()
	org := env.NewOrganisation("Acme")
	admin := env.NewMember(org, "admin@acme.pl", security.RoleAdmin)

	u, err := env.Auth.CreateUser(admin.Ctx, auth.CreateUserInput{
		Email: "kierownik@acme.pl", Password: domaintest.Password, DisplayName: "Kierownik", Role: security.RoleManager,
	})
	require.NoError(t, err)
	assert.Equal(t, org.ID, u.OrganisationID)

	msgs := env.Outbox.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, notification.KindWelcome, msgs[0].Kind)
	assert.Len(t, env.Audit.ForEntity(u.ID), 1)

	_, err = env.Auth.CreateUser(admin.Ctx, auth.CreateUserInput{
		Email: "szef@acme.pl", Password: domaintest.Password, Role: security.RoleOwner,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	_, err = env.Auth.CreateUser(admin.Ctx, auth.CreateUserInput{
		Email: "KIEROWNIK@acme.pl", Password: domaintest.Password, Role: security.RoleEmployee,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	users, total, err := env.Auth.ListUsers(admin.Ctx, auth.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)
}

func TestChangeRole(t *testing.T) {
	env := domaintest.NewEnv()
	org := env.NewOrganisation("Acme")
	owner := env.NewMember(org, "owner@acme.pl", security.RoleOwner)
	admin := env.NewMember(org, "admin@acme.pl", security.RoleAdmin)
	staff := env.NewMember(org, "staff@acme.pl", security.RoleEmployee)
	foreign := env.NewMember(env.NewOrganisation("Other"), "staff@other.pl", security.RoleEmployee)

	t.Run("promote", func(t *testing.T) {
		u, err := env.Auth.ChangeRole(admin.Ctx, staff.User.ID, security.RoleManager)
		require.NoError(t, err)
		assert.Equal(t, security.RoleManager, u.Role)

		entries := env.Audit.ForEntity(staff.User.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, "USER_ROLE_CHANGE", entries[0].Action)
		assert.Contains(t, string(entries[0].Before), `"employee"`)
		assert.Contains(t, string(entries[0].After), `"manager"`)
	})

	t.Run("forbidden", func(t *testing.T) {
		_, err := env.Auth.ChangeRole(admin.Ctx, admin.User.ID, security.RoleOwner)
		assert.True(t, apperror.HasCode(err, apperror.CodeForbidden), "own role")

		_, err = env.Auth.ChangeRole(admin.Ctx, staff.User.ID, security.RoleOwner)
		assert.True(t, apperror.HasCode(err, apperror.CodeForbidden), "above own")

		_, err = env.Auth.ChangeRole(admin.Ctx, owner.User.ID, security.RoleEmployee)
		assert.True(t, apperror.HasCode(err, apperror.CodeForbidden), "more privileged target")
	})

	t.Run("invalid and foreign", func(t *testing.T) {
		_, err := env.Auth.ChangeRole(owner.Ctx, staff.User.ID, "superuser")
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

		_, err = env.Auth.ChangeRole(owner.Ctx, foreign.User.ID, security.RoleAdmin)
		assert.True(t, apperror.IsNotFound(err))
	})
}
