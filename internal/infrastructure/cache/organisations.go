package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"kadryhr/internal/core/id"
	"kadryhr/internal/domain/organisation"
	"kadryhr/pkg/logger"
)

// OrganisationChannel is the NOTIFY channel carrying the id of a changed organisation.
// An empty payload invalidates everything.
const OrganisationChannel = "organisation_changed"

// Organisations caches organisations by id with TTL expiry.
// When started with a pool it also drops entries on NOTIFY, so other
// instances see a rename without waiting for the TTL.
type Organisations struct {
	entries *TTLCache[id.ID, *organisation.Organisation]
	pool    *pgxpool.Pool

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

var _ organisation.Cache = (*Organisations)(nil)

// NewOrganisations creates the cache. pool may be nil to disable NOTIFY invalidation.
func NewOrganisations(ttl time.Duration, pool *pgxpool.Pool) *Organisations {
	return &Organisations{
		entries: NewTTLCache[id.ID, *organisation.Organisation](ttl, ttl),
		pool:    pool,
	}
}

// Get implements organisation.Cache. The returned value is a copy.
func (c *Organisations) Get(key id.ID) (*organisation.Organisation, bool) {
	org, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	cp := *org
	return &cp, true
}

// Set implements organisation.Cache.
func (c *Organisations) Set(key id.ID, value *organisation.Organisation) {
	cp := *value
	c.entries.Set(key, &cp)
}

// Invalidate implements organisation.Cache.
func (c *Organisations) Invalidate(key id.ID) {
	c.entries.Invalidate(key)
}

// Start begins listening for NOTIFY events. It is a no-op without a pool.
func (c *Organisations) Start(ctx context.Context) {
	if c.pool == nil {
		return
	}
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.started {
		return
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "organisation cache listening", "channel", OrganisationChannel)
}

// Stop ends the listener and the expiry janitor.
func (c *Organisations) Stop() {
	c.lifecycleMu.Lock()
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	c.entries.Close()
}

func (c *Organisations) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			c.sleep(time.Second)
			continue
		}
		if _, err := conn.Exec(c.ctx, "LISTEN "+OrganisationChannel); err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			c.sleep(time.Second)
			continue
		}

		// Entries cached while not listening may be stale.
		c.entries.Clear()
		c.waitForNotifications(conn)
		conn.Release()
	}
}

func (c *Organisations) waitForNotifications(conn *pgxpool.Conn) {
	for {
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		n, err := conn.Conn().WaitForNotification(ctx)
		cancel()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if ctx.Err() != nil {
				continue
			}
			logger.Warn(c.ctx, "LISTEN connection lost", "error", err)
			return
		}
		c.handleNotification(n.Channel, n.Payload)
	}
}

func (c *Organisations) handleNotification(channel, payload string) {
	if channel != OrganisationChannel {
		return
	}
	orgID, err := id.Parse(strings.TrimSpace(payload))
	if err != nil {
		c.entries.Clear()
		return
	}
	c.entries.Invalidate(orgID)
}

func (c *Organisations) sleep(d time.Duration) {
	select {
	case <-c.ctx.Done():
	case <-time.After(d):
	}
}
