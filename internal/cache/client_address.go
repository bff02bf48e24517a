// Package cache provides an in-process, TTL'd decorator over the
// ClientProvider capability used by the EVV verification engine, so a busy
// clock-in/out path doesn't re-resolve the same client's service address on
// every call. This is a single-process, single-key-space cache (no
// distributed backend): EVVConfig.ClientAddressCacheTTL names the ttl, and
// invalidation is explicit (Invalidate) rather than push-based.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/neighborhood-lab/care-commons/internal/clock"
	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

type entry struct {
	address   *care.Address
	expiresAt time.Time
}

// ClientAddressCache wraps a providers.ClientProvider, caching successful
// lookups for ttl. Lookup errors are never cached.
type ClientAddressCache struct {
	inner providers.ClientProvider
	clk   clock.Clock
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[care.ID]entry
}

// New wraps inner with a ttl-bounded cache. A ttl of 0 disables caching:
// every call passes through to inner.
func New(inner providers.ClientProvider, clk clock.Clock, ttl time.Duration) *ClientAddressCache {
	return &ClientAddressCache{
		inner:   inner,
		clk:     clk,
		ttl:     ttl,
		entries: make(map[care.ID]entry),
	}
}

// ClientAddress implements providers.ClientProvider, serving from cache
// when a fresh entry exists.
func (c *ClientAddressCache) ClientAddress(ctx context.Context, clientID care.ID) (*care.Address, error) {
	if c.ttl <= 0 {
		return c.inner.ClientAddress(ctx, clientID)
	}

	if addr, ok := c.lookup(clientID); ok {
		return addr, nil
	}

	addr, err := c.inner.ClientAddress(ctx, clientID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[clientID] = entry{address: addr, expiresAt: c.clk.Now().Add(c.ttl)}
	c.mu.Unlock()

	return addr, nil
}

func (c *ClientAddressCache) lookup(clientID care.ID) (*care.Address, bool) {
	c.mu.RLock()
	e, ok := c.entries[clientID]
	c.mu.RUnlock()
	if !ok || c.clk.IsExpired(e.expiresAt) {
		return nil, false
	}
	return e.address, true
}

// GetClientForEVV implements providers.ClientProvider by passing straight
// through to inner: client detail (name, Medicaid id, DOB) changes far less
// often than an address-of-record and isn't on the hot clock-in/out path the
// way ClientAddress is, so it doesn't carry its own TTL entry.
func (c *ClientAddressCache) GetClientForEVV(ctx context.Context, clientID care.ID) (*providers.ClientEVVView, error) {
	return c.inner.GetClientForEVV(ctx, clientID)
}

// Invalidate evicts clientID's cached entry, if any. Callers use this after
// an address-of-record change so the next lookup reflects the update
// instead of waiting out the ttl.
func (c *ClientAddressCache) Invalidate(clientID care.ID) {
	c.mu.Lock()
	delete(c.entries, clientID)
	c.mu.Unlock()
}

// Len reports the number of entries currently cached, stale or not; mainly
// useful for test assertions and diagnostics.
func (c *ClientAddressCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
