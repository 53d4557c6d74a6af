package ratelimit

import (
	"fmt"
	"time"

	"mercator-hq/callisto/pkg/clock"
)

// FixedWindow implements the fixed window counter algorithm.
//
// Time is partitioned into aligned, non-overlapping windows of duration
// width starting at the clock's origin: window k spans [k*width,
// (k+1)*width). Up to limit units are admitted per window, and the counter
// resets when the window rolls over.
//
// # Boundary burst
//
// Up to 2x the configured limit can be admitted across a boundary
// straddling two windows: a burst at the end of one window plus a burst at
// the start of the next. This is the defining trade-off of the algorithm,
// distinguishing it from the sliding variants, and is intentionally
// preserved.
type FixedWindow struct {
	limit       uint64
	width       time.Duration
	count       uint64        // units consumed since windowStart
	windowStart time.Duration // aligned start of the current window
	now         clock.Clock
}

// NewFixedWindow creates a fixed window counter admitting limit units per
// window of the given width, bound to the system monotonic clock.
func NewFixedWindow(limit uint64, width time.Duration) (*FixedWindow, error) {
	return NewFixedWindowWithClock(limit, width, clock.System())
}

// NewFixedWindowWithClock is NewFixedWindow with an explicit time source.
func NewFixedWindowWithClock(limit uint64, width time.Duration, now clock.Clock) (*FixedWindow, error) {
	if limit == 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidConfig)
	}
	if width <= 0 {
		return nil, fmt.Errorf("%w: window width must be positive, got %v", ErrInvalidConfig, width)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock must not be nil", ErrInvalidConfig)
	}
	fw := &FixedWindow{
		limit: limit,
		width: width,
		now:   now,
	}
	t := now()
	fw.windowStart = t - t%width
	return fw, nil
}

// TryConsume attempts to admit n units. See the Limiter contract.
func (fw *FixedWindow) TryConsume(n uint64) error {
	if n == 0 {
		return nil
	}
	if n > fw.limit {
		return ErrExceedsCapacity
	}

	now := fw.now()
	start := now - now%fw.width
	if start != fw.windowStart {
		// Window rollover: the boundary only ever advances, and the
		// count never survives into a new window.
		fw.count = 0
		fw.windowStart = start
	}

	if n <= fw.limit-fw.count {
		fw.count += n
		return nil
	}
	return &RateExceededError{RetryAfter: fw.windowStart + fw.width - now}
}

// TryConsumeOne is equivalent to TryConsume(1).
func (fw *FixedWindow) TryConsumeOne() error {
	return fw.TryConsume(1)
}
