package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadryhr/internal/core/apperror"
	appctx "kadryhr/internal/core/context"
	"kadryhr/internal/core/id"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Demo Sp. z o.o.", "demo-sp-z-o-o"},
		{"Piekarnia Żółw", "piekarnia-zolw"},
		{"  Łódź Logistics  ", "lodz-logistics"},
		{"ACME---Corp", "acme-corp"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestValidateSlug(t *testing.T) {
	assert.NoError(t, ValidateSlug("demo-sp-z-o-o"))
	assert.NoError(t, ValidateSlug("a1"))
	assert.ErrorIs(t, ValidateSlug("a"), ErrInvalidSlug)
	assert.ErrorIs(t, ValidateSlug("-demo"), ErrInvalidSlug)
	assert.ErrorIs(t, ValidateSlug("Demo"), ErrInvalidSlug)
}

func TestScope_RequiresIdentity(t *testing.T) {
	_, _, err := Scope(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	org, user := id.New(), id.New()
	ctx := appctx.WithIdentity(context.Background(), &appctx.Identity{UserID: user, OrganisationID: org})

	gotOrg, gotUser, err := Scope(ctx)
	require.NoError(t, err)
	assert.Equal(t, org, gotOrg)
	assert.Equal(t, user, gotUser)
}
