// Package ratelimit provides a family of single-owner rate limiting
// algorithms for latency-sensitive admission control.
//
// # Overview
//
// Four algorithms implement the same Limiter contract, each encoding a
// different consistency/memory/precision trade-off:
//
//   - TokenBucket: continuous refill, smooths bursts up to a capacity
//   - FixedWindow: aligned window counter, cheapest state, allows a
//     documented 2x burst across a window boundary
//   - SlidingWindowLog: exact trailing window over a bounded timestamp log
//   - SlidingWindowCounter: two-window approximation of the log with O(1)
//     state and linear decay of the previous window's weight
//
// # Time
//
// Limiters never read the wall clock. Every algorithm takes a clock.Clock,
// a function returning a monotonic duration since an arbitrary reference.
// The NewX constructors bind clock.System for hosts with an ambient timer;
// the NewXWithClock constructors accept any caller-supplied source.
//
// # Consumption
//
// All admission goes through TryConsume:
//
//	tb, err := ratelimit.NewTokenBucket(100, 10) // 100/s, burst 10
//	if err != nil { ... }
//
//	switch err := tb.TryConsumeOne(); {
//	case err == nil:
//	    // admitted
//	case errors.Is(err, ratelimit.ErrExceedsCapacity):
//	    // can never succeed under this configuration
//	default:
//	    var re *ratelimit.RateExceededError
//	    errors.As(err, &re) // re.RetryAfter is the backoff hint
//	}
//
// TryConsume never blocks, never allocates, and completes in time bounded
// by the sliding log's eviction scan at worst.
//
// # Ownership
//
// A limiter instance is a single, independently owned piece of state with
// no internal locking. Callers sharing one instance across goroutines must
// serialize access externally; Synchronized wraps any Limiter with a mutex
// for that purpose.
package ratelimit
