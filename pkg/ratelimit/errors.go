package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is wrapped by all construction-time validation failures.
// It is never returned by TryConsume; invalid parameters reject the
// instance before it exists.
var ErrInvalidConfig = errors.New("ratelimit: invalid configuration")

// ErrExceedsCapacity reports a request for more units than the limiter
// could ever admit at once. The condition is permanent for this request
// size under this configuration, so no retry-after hint accompanies it.
var ErrExceedsCapacity = errors.New("ratelimit: requested quantity exceeds maximum capacity")

// RateExceededError is the transient rejection returned by TryConsume when
// the configured rate is currently exhausted. The same request may succeed
// after RetryAfter has elapsed, assuming no competing consumption.
type RateExceededError struct {
	// RetryAfter is the minimum duration before the rejected quantity
	// could possibly be admitted.
	RetryAfter time.Duration
}

func (e *RateExceededError) Error() string {
	return fmt.Sprintf("ratelimit: rate exceeded, retry after %v", e.RetryAfter)
}

// RetryAfter extracts the backoff hint from a TryConsume error.
// The second return is false when err is nil or not a transient rejection.
func RetryAfter(err error) (time.Duration, bool) {
	var re *RateExceededError
	if errors.As(err, &re) {
		return re.RetryAfter, true
	}
	return 0, false
}
