package limits

import (
	"fmt"
	"time"

	"mercator-hq/callisto/pkg/clock"
	"mercator-hq/callisto/pkg/ratelimit"
)

// Policy describes how to build a limiter for an identifier.
// Fields apply per algorithm: Rate and Capacity configure the token
// bucket; Limit and Window configure the window algorithms; MaxEntries
// additionally bounds the sliding window log.
type Policy struct {
	// Algorithm selects the rate limiting algorithm.
	Algorithm ratelimit.Algorithm `yaml:"algorithm"`

	// Rate is the sustained admission rate in units per second
	// (token bucket).
	Rate float64 `yaml:"rate,omitempty"`

	// Capacity is the burst capacity in units (token bucket).
	Capacity uint64 `yaml:"capacity,omitempty"`

	// Limit is the maximum quantity admitted per window
	// (window algorithms).
	Limit uint64 `yaml:"limit,omitempty"`

	// Window is the window duration (window algorithms).
	Window time.Duration `yaml:"window,omitempty"`

	// MaxEntries bounds the sliding window log's retained entries.
	// Default: 1024
	MaxEntries int `yaml:"max_entries,omitempty"`
}

// defaultMaxEntries bounds the sliding window log when a policy does not
// say otherwise.
const defaultMaxEntries = 1024

// Build constructs the limiter described by the policy against the given
// clock. Construction-time validation of the underlying algorithm applies;
// an invalid policy wraps ratelimit.ErrInvalidConfig.
func (p Policy) Build(now clock.Clock) (ratelimit.Limiter, error) {
	switch p.Algorithm {
	case ratelimit.AlgorithmTokenBucket:
		return ratelimit.NewTokenBucketWithClock(p.Rate, p.Capacity, now)
	case ratelimit.AlgorithmFixedWindow:
		return ratelimit.NewFixedWindowWithClock(p.Limit, p.Window, now)
	case ratelimit.AlgorithmSlidingWindowLog:
		maxEntries := p.MaxEntries
		if maxEntries == 0 {
			maxEntries = defaultMaxEntries
		}
		return ratelimit.NewSlidingWindowLogWithClock(p.Limit, p.Window, maxEntries, now)
	case ratelimit.AlgorithmSlidingWindowCounter:
		return ratelimit.NewSlidingWindowCounterWithClock(p.Limit, p.Window, now)
	}
	return nil, fmt.Errorf("%w: unknown algorithm %q", ratelimit.ErrInvalidConfig, p.Algorithm)
}

// Validate reports whether the policy would build successfully, without
// instantiating a limiter for an identifier.
func (p Policy) Validate() error {
	_, err := p.Build(func() time.Duration { return 0 })
	return err
}
