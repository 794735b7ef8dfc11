package geo

import (
	"context"
	"sync"
	"time"
)

// StaticProvider always reports the same position. The timestamp is the time
// of each query.
type StaticProvider struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// Locate returns the configured position.
func (p StaticProvider) Locate(ctx context.Context, _ Options) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	return Sample{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Accuracy:  p.Accuracy,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// CachedProvider reuses the last successful sample of the wrapped provider
// while it is younger than the query's MaximumAge.
type CachedProvider struct {
	Provider Provider

	mu   sync.Mutex
	last Sample
	ok   bool
	now  func() time.Time
}

// NewCachedProvider wraps p.
func NewCachedProvider(p Provider) *CachedProvider {
	return &CachedProvider{Provider: p, now: time.Now}
}

// Locate serves a cached sample or queries the wrapped provider.
func (c *CachedProvider) Locate(ctx context.Context, opts Options) (Sample, error) {
	c.mu.Lock()
	if c.ok && opts.MaximumAge > 0 && c.clock().Sub(c.last.Time()) < opts.MaximumAge {
		s := c.last
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	if c.Provider == nil {
		return Sample{}, ErrUnsupported
	}
	s, err := c.Provider.Locate(ctx, opts)
	if err != nil {
		return Sample{}, err
	}

	c.mu.Lock()
	c.last, c.ok = s, true
	c.mu.Unlock()
	return s, nil
}

func (c *CachedProvider) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}
