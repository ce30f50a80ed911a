package postgres

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, ms)

	assert.Equal(t, "001_init", ms[0].ID)
	assert.Len(t, ms[0].Checksum, 64)
	for _, table := range []string{"organisations", "users", "sessions", "employees", "shifts", "availability", "leave_requests", "time_events", "audit_log", "outbox", "idempotency_keys"} {
		assert.True(t, strings.Contains(ms[0].SQL, "CREATE TABLE "+table+" ("), table)
	}
	assert.Contains(t, ms[0].SQL, "pg_notify('organisation_changed'")
}

func TestLoadMigrations_OrderAndChecksum(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_b.sql":  {Data: []byte("SELECT 2;")},
		"m/001_a.sql":  {Data: []byte("SELECT 1;")},
		"m/readme.txt": {Data: []byte("ignored")},
	}

	ms, err := loadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "001_a", ms[0].ID)
	assert.Equal(t, "002_b", ms[1].ID)
	assert.NotEqual(t, ms[0].Checksum, ms[1].Checksum)

	again, err := loadMigrations(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, ms[0].Checksum, again[0].Checksum)
}
