package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadryhr/internal/core/id"
	"kadryhr/internal/domain/organisation"
)

func TestTTL_Expiry(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTLCache[string, int](time.Minute, 0)
	defer c.Close()
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Purge())
	assert.Zero(t, c.Len())
}

func TestTTL_Invalidate(t *testing.T) {
	c := NewTTLCache[string, int](time.Hour, 0)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestTTL_Janitor(t *testing.T) {
	c := NewTTLCache[string, int](time.Millisecond, 5*time.Millisecond)
	c.Set("a", 1)
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	c.Close()
	c.Close()
}

func TestOrganisations_CopiesAndNotifications(t *testing.T) {
	c := NewOrganisations(time.Hour, nil)
	defer c.Stop()

	org := organisation.New("Acme", "acme")
	c.Set(org.ID, org)
	org.Name = "mutated"

	got, ok := c.Get(org.ID)
	require.True(t, ok)
	assert.Equal(t, "Acme", got.Name)
	got.Name = "mutated too"
	again, _ := c.Get(org.ID)
	assert.Equal(t, "Acme", again.Name)

	other := organisation.New("Other", "other")
	c.Set(other.ID, other)

	c.handleNotification("unrelated", org.ID.String())
	_, ok = c.Get(org.ID)
	assert.True(t, ok)

	c.handleNotification(OrganisationChannel, org.ID.String())
	_, ok = c.Get(org.ID)
	assert.False(t, ok)
	_, ok = c.Get(other.ID)
	assert.True(t, ok)

	c.handleNotification(OrganisationChannel, "")
	_, ok = c.Get(other.ID)
	assert.False(t, ok)

	_, ok = c.Get(id.New())
	assert.False(t, ok)
}
