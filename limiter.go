package breeze

import (
	"sync"
	"time"
)

// Limiter is a per-key sliding-window rate limiter.
type Limiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	done   chan struct{}
	stop   sync.Once
}

// NewLimiter creates a Limiter that allows max hits per key per window.
// Call Stop to release its cleanup goroutine.
func NewLimiter(max int, window time.Duration) *Limiter {
	l := &Limiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		done:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stop.Do(func() { close(l.done) })
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-l.window)
			l.mu.Lock()
			for key := range l.hits {
				if kept := l.prune(key, cutoff); len(kept) == 0 {
					delete(l.hits, key)
				}
			}
			l.mu.Unlock()
		case <-l.done:
			return
		}
	}
}

// prune drops hits older than cutoff. Callers hold l.mu.
func (l *Limiter) prune(key string, cutoff time.Time) []time.Time {
	hits := l.hits[key]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.hits[key] = kept
	return kept
}

// Allow checks if key has not exceeded the limit and records the hit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if len(l.prune(key, now.Add(-l.window))) >= l.max {
		return false
	}
	l.hits[key] = append(l.hits[key], now)
	return true
}

// Check returns true if key has not exceeded the limit.
// It does not record a hit; call Record separately on failure.
func (l *Limiter) Check(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(key, time.Now().Add(-l.window))) < l.max
}

// Record registers a hit for key.
func (l *Limiter) Record(key string) {
	l.mu.Lock()
	l.hits[key] = append(l.hits[key], time.Now())
	l.mu.Unlock()
}
