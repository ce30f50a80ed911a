package auth_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadryhr/internal/core/id"
	"kadryhr/internal/core/security"
	"kadryhr/internal/domain/auth"
)

func TestUserListQuery(t *testing.T) {
	orgID := id.New()

	sql, args, err := listQuery(orgID, auth.UserFilter{}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM users WHERE organisation_id = $1")
	assert.Equal(t, []any{orgID.String()}, args)

	sql, args, err = listQuery(orgID, auth.UserFilter{Role: security.RoleManager, Search: " anna "}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE organisation_id = $1 AND role = $2 AND (email ILIKE $3 OR display_name ILIKE $4)")
	assert.Equal(t, []any{orgID.String(), security.RoleManager, "%anna%", "%anna%"}, args)
}
