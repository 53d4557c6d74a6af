package ratelimit

import (
	"fmt"
	"time"

	"mercator-hq/callisto/pkg/clock"
)

// SlidingWindowLog implements the exact sliding window algorithm.
//
// A bounded log retains the timestamp and quantity of every admitted
// consumption inside the trailing window. Each call first evicts entries
// older than window, then admits n only if the sum of the surviving
// entries plus n stays within the limit.
//
// # Algorithm
//
//  1. Evict every entry with timestamp <= now - window
//  2. If sum(remaining) + n <= limit, append (now, n) and admit
//  3. Otherwise reject with wait hint (oldest + window) - now, the
//     earliest moment at which expired quantity could make room
//
// # Bounded storage
//
// The log is a fixed-capacity ring buffer sized at construction and never
// grown; eviction is an index advance, not a deallocation. When the ring
// is full and eviction cannot make room, the call is rejected even if the
// time-based sum would admit it. The entry bound is therefore a hard
// ceiling on burst granularity (how many distinct consumptions fit in one
// window), not on rate.
type SlidingWindowLog struct {
	limit   uint64
	window  time.Duration
	entries []logEntry // ring buffer, fixed capacity
	head    int        // index of the oldest entry
	length  int
	sum     uint64 // running total of retained quantities
	now     clock.Clock
}

type logEntry struct {
	at  time.Duration
	qty uint64
}

// NewSlidingWindowLog creates a sliding window log admitting limit units
// per trailing window, retaining at most maxEntries consumption records,
// bound to the system monotonic clock.
func NewSlidingWindowLog(limit uint64, window time.Duration, maxEntries int) (*SlidingWindowLog, error) {
	return NewSlidingWindowLogWithClock(limit, window, maxEntries, clock.System())
}

// NewSlidingWindowLogWithClock is NewSlidingWindowLog with an explicit
// time source.
func NewSlidingWindowLogWithClock(limit uint64, window time.Duration, maxEntries int, now clock.Clock) (*SlidingWindowLog, error) {
	if limit == 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidConfig)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %v", ErrInvalidConfig, window)
	}
	if maxEntries <= 0 {
		return nil, fmt.Errorf("%w: max entries must be positive, got %d", ErrInvalidConfig, maxEntries)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock must not be nil", ErrInvalidConfig)
	}
	return &SlidingWindowLog{
		limit:   limit,
		window:  window,
		entries: make([]logEntry, maxEntries),
		now:     now,
	}, nil
}

// TryConsume attempts to admit n units. See the Limiter contract.
func (l *SlidingWindowLog) TryConsume(n uint64) error {
	if n == 0 {
		return nil
	}
	if n > l.limit {
		return ErrExceedsCapacity
	}

	now := l.now()
	l.evict(now)

	if n <= l.limit-l.sum {
		if l.length == len(l.entries) {
			// Ring saturated before the window could evict anything.
			// Under-admit rather than lose track of a consumption.
			return &RateExceededError{RetryAfter: l.oldestExpiry() - now}
		}
		tail := (l.head + l.length) % len(l.entries)
		l.entries[tail] = logEntry{at: now, qty: n}
		l.length++
		l.sum += n
		return nil
	}

	// sum > 0 here: n <= limit, so an empty log would have admitted.
	return &RateExceededError{RetryAfter: l.oldestExpiry() - now}
}

// TryConsumeOne is equivalent to TryConsume(1).
func (l *SlidingWindowLog) TryConsumeOne() error {
	return l.TryConsume(1)
}

// Len returns the number of consumption records currently retained.
func (l *SlidingWindowLog) Len() int {
	return l.length
}

// Sum returns the total quantity retained as of the last eviction.
func (l *SlidingWindowLog) Sum() uint64 {
	return l.sum
}

// evict drops entries that have aged out of the trailing window. An entry
// recorded at t expires once now - t >= window.
func (l *SlidingWindowLog) evict(now time.Duration) {
	for l.length > 0 {
		e := l.entries[l.head]
		if now-e.at < l.window {
			break
		}
		l.sum -= e.qty
		l.head = (l.head + 1) % len(l.entries)
		l.length--
	}
}

func (l *SlidingWindowLog) oldestExpiry() time.Duration {
	return l.entries[l.head].at + l.window
}
