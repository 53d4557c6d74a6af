package ratelimit

import (
	"fmt"
	"math"
	"time"

	"mercator-hq/callisto/pkg/clock"
)

// TokenBucket implements the token bucket rate limiting algorithm.
//
// A reservoir of up to capacity tokens refills continuously at rate tokens
// per second. Consumption drains the reservoir; as long as tokens remain
// they can be consumed at an unlimited instantaneous rate, so the capacity
// is what bounds burstiness.
//
// # Algorithm
//
//  1. Compute elapsed time since the last refill
//  2. Add elapsed * rate tokens, capped at capacity
//  3. If enough tokens are available, subtract n and admit
//  4. Otherwise reject with wait hint (n - tokens) / rate
//
// Refill uses the real elapsed duration as a ratio, not integer ticks, and
// fractional tokens are retained across calls. Arbitrarily small or
// irregular call intervals therefore accrue tokens without systematic loss
// to rounding.
type TokenBucket struct {
	rate     float64 // tokens per second
	capacity float64
	tokens   float64       // invariant: 0 <= tokens <= capacity
	last     time.Duration // clock reading of the last refill
	now      clock.Clock
}

// NewTokenBucket creates a token bucket admitting rate units per second on
// average with bursts up to capacity, bound to the system monotonic clock.
// The bucket starts full.
func NewTokenBucket(rate float64, capacity uint64) (*TokenBucket, error) {
	return NewTokenBucketWithClock(rate, capacity, clock.System())
}

// NewTokenBucketWithClock is NewTokenBucket with an explicit time source,
// for environments without an ambient timer.
func NewTokenBucketWithClock(rate float64, capacity uint64, now clock.Clock) (*TokenBucket, error) {
	if rate <= 0 || math.IsInf(rate, 1) || math.IsNaN(rate) {
		return nil, fmt.Errorf("%w: rate must be a positive finite number, got %v", ErrInvalidConfig, rate)
	}
	if capacity == 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrInvalidConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock must not be nil", ErrInvalidConfig)
	}
	return &TokenBucket{
		rate:     rate,
		capacity: float64(capacity),
		tokens:   float64(capacity),
		last:     now(),
		now:      now,
	}, nil
}

// TryConsume attempts to admit n units. See the Limiter contract.
func (tb *TokenBucket) TryConsume(n uint64) error {
	if n == 0 {
		return nil
	}
	need := float64(n)
	if need > tb.capacity {
		return ErrExceedsCapacity
	}

	now := tb.now()
	if elapsed := now - tb.last; elapsed > 0 {
		tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed.Seconds()*tb.rate)
		tb.last = now
	}

	if tb.tokens >= need {
		tb.tokens -= need
		return nil
	}
	wait := time.Duration((need - tb.tokens) / tb.rate * float64(time.Second))
	return &RateExceededError{RetryAfter: wait}
}

// TryConsumeOne is equivalent to TryConsume(1).
func (tb *TokenBucket) TryConsumeOne() error {
	return tb.TryConsume(1)
}

// Tokens returns the tokens available as of the last refill, without
// triggering one. Fractional amounts are reported as-is.
func (tb *TokenBucket) Tokens() float64 {
	return tb.tokens
}

// Capacity returns the configured burst capacity.
func (tb *TokenBucket) Capacity() float64 {
	return tb.capacity
}
