package organisation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/security"
	"kadryhr/internal/domain/domaintest"
	"kadryhr/internal/domain/organisation"
)

type mapCache map[id.ID]*organisation.Organisation

func (c mapCache) Get(k id.ID) (*organisation.Organisation, bool) {
	v, ok := c[k]
	return v, ok
}
func (c mapCache) Set(k id.ID, v *organisation.Organisation) { c[k] = v }
func (c mapCache) Invalidate(k id.ID)                        { delete(c, k) }

func TestNew_DerivesSlug(t *testing.T) {
	org := organisation.New("  Piekarnia Żółw Sp. z o.o. ", "")
	assert.Equal(t, "Piekarnia Żółw Sp. z o.o.", org.Name)
	assert.Equal(t, "piekarnia-zolw-sp-z-o-o", org.Slug)
	assert.NoError(t, org.Validate(context.Background()))

	bad := organisation.New("Acme", "Not A Slug")
	assert.True(t, apperror.HasCode(bad.Validate(context.Background()), apperror.CodeValidation))
}

func TestService_CreateRejectsTakenSlug(t *testing.T) {
	env := domaintest.NewEnv()
	require.NoError(t, env.Organisations.Create(context.Background(), organisation.New("Acme", "acme")))

	err := env.Organisations.Create(context.Background(), organisation.New("Acme 2", "acme"))
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestService_LookupUsesCache(t *testing.T) {
	env := domaintest.NewEnv()
	org := env.NewOrganisation("Acme")
	svc := organisation.NewService(env.Orgs, mapCache{}, env.Recorder)

	for range 3 {
		got, err := svc.Lookup(context.Background(), org.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.Name)
	}
	assert.Equal(t, 1, env.Orgs.Gets)

	_, err := svc.Lookup(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_RenameInvalidatesAndAudits(t *testing.T) {
	env := domaintest.NewEnv()
	org := env.NewOrganisation("Acme")
	owner := env.NewMember(org, "owner@acme.pl", security.RoleOwner)
	cache := mapCache{}
	svc := organisation.NewService(env.Orgs, cache, env.Recorder)

	_, err := svc.Current(owner.Ctx)
	require.NoError(t, err)
	require.Contains(t, cache, org.ID)

	renamed, err := svc.Rename(owner.Ctx, "Acme Polska")
	require.NoError(t, err)
	assert.Equal(t, "Acme Polska", renamed.Name)
	assert.Equal(t, "acme", renamed.Slug)
	assert.NotContains(t, cache, org.ID)

	entries := env.Audit.ForEntity(org.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, "ORGANISATION_UPDATE", entries[0].Action)
	assert.Contains(t, string(entries[0].Before), `"Acme"`)
	assert.Contains(t, string(entries[0].After), `"Acme Polska"`)

	_, err = svc.Rename(owner.Ctx, "  ")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
