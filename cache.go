package breeze

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/breeze/api"
)

// InfoCache is an in-memory cache of the home payload with TTL.
type InfoCache struct {
	mu      sync.RWMutex
	info    *api.BlogInfo
	fetched time.Time
	ttl     time.Duration
	load    func(context.Context) (api.BlogInfo, error)
}

// NewInfoCache creates an InfoCache that refreshes through load.
func NewInfoCache(ttl time.Duration, load func(context.Context) (api.BlogInfo, error)) *InfoCache {
	return &InfoCache{ttl: ttl, load: load}
}

func (c *InfoCache) valid() bool {
	return c.info != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *InfoCache) Invalidate() {
	c.mu.Lock()
	c.info = nil
	c.mu.Unlock()
}

// Get returns the cached payload, reloading it when stale.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *InfoCache) Get(ctx context.Context) (api.BlogInfo, error) {
	c.mu.RLock()
	if c.valid() {
		info := *c.info
		c.mu.RUnlock()
		return info, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return *c.info, nil
	}
	info, err := c.load(ctx)
	if err != nil {
		return api.BlogInfo{}, err
	}
	c.info = &info
	c.fetched = time.Now()
	return info, nil
}
