package ratelimit

import (
	"fmt"
	"time"

	"mercator-hq/callisto/pkg/clock"
)

// SlidingWindowCounter approximates SlidingWindowLog using the aggregate
// counts of two adjacent fixed windows, avoiding the log's per-entry
// storage.
//
// # Algorithm
//
// Windows of duration width are aligned to the clock origin. At most two
// counters are live at once: the previous window's total and the current
// window's running count. The effective count used for admission is
//
//	current + previous * (1 - elapsedFractionOfCurrentWindow)
//
// so the previous window's contribution decays linearly as the current
// window progresses. On rollover the current count folds into previous and
// resets; if more than one full window elapsed since the last call, no
// window is current any more and previous is zeroed.
//
// This trades the log's exactness for O(1) bounded state. The linear decay
// weighting is the baseline contract; other published weightings exist but
// are not implemented.
type SlidingWindowCounter struct {
	limit     uint64
	width     time.Duration
	prev      uint64        // previous window's total
	curr      uint64        // current window's running count
	currStart time.Duration // aligned start of the current window
	now       clock.Clock
}

// NewSlidingWindowCounter creates a sliding window counter admitting limit
// units per window of the given width, bound to the system monotonic clock.
func NewSlidingWindowCounter(limit uint64, width time.Duration) (*SlidingWindowCounter, error) {
	return NewSlidingWindowCounterWithClock(limit, width, clock.System())
}

// NewSlidingWindowCounterWithClock is NewSlidingWindowCounter with an
// explicit time source.
func NewSlidingWindowCounterWithClock(limit uint64, width time.Duration, now clock.Clock) (*SlidingWindowCounter, error) {
	if limit == 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidConfig)
	}
	if width <= 0 {
		return nil, fmt.Errorf("%w: window width must be positive, got %v", ErrInvalidConfig, width)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock must not be nil", ErrInvalidConfig)
	}
	c := &SlidingWindowCounter{
		limit: limit,
		width: width,
		now:   now,
	}
	t := now()
	c.currStart = t - t%width
	return c, nil
}

// TryConsume attempts to admit n units. See the Limiter contract.
func (c *SlidingWindowCounter) TryConsume(n uint64) error {
	if n == 0 {
		return nil
	}
	if n > c.limit {
		return ErrExceedsCapacity
	}

	now := c.now()
	c.roll(now)

	frac := float64(now-c.currStart) / float64(c.width)
	effective := float64(c.curr) + float64(c.prev)*(1-frac)

	if effective+float64(n) <= float64(c.limit) {
		c.curr += n
		return nil
	}
	return &RateExceededError{RetryAfter: c.retryAfter(now, frac, n)}
}

// TryConsumeOne is equivalent to TryConsume(1).
func (c *SlidingWindowCounter) TryConsumeOne() error {
	return c.TryConsume(1)
}

// roll advances the two-window state to the window containing now.
func (c *SlidingWindowCounter) roll(now time.Duration) {
	start := now - now%c.width
	if start == c.currStart {
		return
	}
	if start == c.currStart+c.width {
		c.prev = c.curr
	} else {
		// More than one window elapsed; nothing is "previous" any more.
		c.prev = 0
	}
	c.curr = 0
	c.currStart = start
}

// retryAfter estimates the earliest time the rejected quantity could fit.
// When the current window's own count blocks the request, only the next
// rollover can help; otherwise the linear decay of the previous window's
// weight determines the wait.
func (c *SlidingWindowCounter) retryAfter(now time.Duration, frac float64, n uint64) time.Duration {
	windowEnd := c.currStart + c.width
	if n > c.limit-c.curr || c.prev == 0 {
		return windowEnd - now
	}
	headroom := float64(c.limit - c.curr - n)
	fNeeded := 1 - headroom/float64(c.prev)
	if fNeeded > 1 {
		fNeeded = 1
	}
	wait := c.currStart + time.Duration(fNeeded*float64(c.width)) - now
	if wait <= 0 {
		wait = time.Nanosecond
	}
	return wait
}
