// Package geo acquires one-shot location samples and resolves coordinates to
// human readable addresses.
package geo

import (
	"context"
	"errors"
	"time"
)

// Sample is a single location reading.
type Sample struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`  // meters
	Timestamp int64   `json:"timestamp"` // Unix milliseconds at capture
}

// Time returns the capture time of the sample.
func (s Sample) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Options controls a location query.
type Options struct {
	HighAccuracy bool          // ask the provider for its most precise source
	Timeout      time.Duration // zero means no deadline
	MaximumAge   time.Duration // how old a cached sample may be
}

// DefaultOptions returns high accuracy, a 10 second timeout and a 5 minute
// cache age.
func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      10 * time.Second,
		MaximumAge:   5 * time.Minute,
	}
}

// Provider produces location samples. Implementations should return a *Error
// or one of the sentinel errors so callers can tell failures apart.
type Provider interface {
	Locate(ctx context.Context, opts Options) (Sample, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, opts Options) (Sample, error)

// Locate calls f.
func (f ProviderFunc) Locate(ctx context.Context, opts Options) (Sample, error) {
	return f(ctx, opts)
}

// Locate runs a single query against p. The query is bounded by opts.Timeout;
// every failure is returned as a *Error.
func Locate(ctx context.Context, p Provider, opts Options) (Sample, error) {
	if p == nil {
		return Sample{}, &Error{Kind: KindUnsupported}
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	s, err := p.Locate(ctx, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Sample{}, &Error{Kind: KindTimeout, Err: err}
		}
		return Sample{}, Classify(err)
	}
	return s, nil
}
