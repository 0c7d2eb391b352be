package ai

import (
	"context"
	"sync"
	"time"
)

// StatusCache memoizes the provider status check. Callers hold a
// *StatusCache and ask it for the current summary; a stale value is
// refreshed in place. There is no global cache state.
type StatusCache struct {
	providers []Provider
	ttl       time.Duration

	mu        sync.Mutex
	value     StatusSummary
	expiresAt time.Time
}

func NewStatusCache(providers []Provider, ttl time.Duration) *StatusCache {
	return &StatusCache{providers: providers, ttl: ttl}
}

// IsStale reports whether the cached value has expired (or was never set).
func (c *StatusCache) IsStale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale(time.Now())
}

func (c *StatusCache) stale(now time.Time) bool {
	return c.expiresAt.IsZero() || now.After(c.expiresAt)
}

// Refresh probes the providers and replaces the cached value.
func (c *StatusCache) Refresh(ctx context.Context) StatusSummary {
	sum := CheckProviders(ctx, c.providers)

	c.mu.Lock()
	c.value = sum
	c.expiresAt = time.Now().Add(c.ttl)
	c.mu.Unlock()

	return sum
}

// Get returns the cached summary, refreshing first when stale.
func (c *StatusCache) Get(ctx context.Context) StatusSummary {
	c.mu.Lock()
	if !c.stale(time.Now()) {
		v := c.value
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	return c.Refresh(ctx)
}
