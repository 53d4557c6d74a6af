package ratelimit

import (
	"fmt"
	"sync"
)

// Limiter is the uniform contract implemented by every algorithm variant.
//
// TryConsume attempts to admit n units at the current clock reading:
//
//   - nil: the units were admitted and recorded.
//   - *RateExceededError: transient rejection; RetryAfter is the minimum
//     wait before n units could possibly be admitted. It is an advisory
//     hint, not a guarantee, since other consumption may occur meanwhile.
//     Admission state is not modified.
//   - ErrExceedsCapacity: n can never be admitted under this
//     configuration; waiting will not help. State is not modified.
//
// TryConsume(0) always succeeds and never mutates state.
//
// Calls are synchronous and non-blocking; retry policy is entirely the
// caller's responsibility.
type Limiter interface {
	TryConsume(n uint64) error
	TryConsumeOne() error
}

// Algorithm identifies a rate limiting algorithm variant.
type Algorithm string

const (
	AlgorithmTokenBucket          Algorithm = "token_bucket"
	AlgorithmFixedWindow          Algorithm = "fixed_window"
	AlgorithmSlidingWindowLog     Algorithm = "sliding_window_log"
	AlgorithmSlidingWindowCounter Algorithm = "sliding_window_counter"
)

func (a Algorithm) String() string {
	return string(a)
}

// ParseAlgorithm converts a string (e.g. from configuration) into an
// Algorithm, rejecting unknown names.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgorithmTokenBucket, AlgorithmFixedWindow,
		AlgorithmSlidingWindowLog, AlgorithmSlidingWindowCounter:
		return Algorithm(s), nil
	}
	return "", fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, s)
}

// Synchronized wraps a Limiter with a mutex so a single instance can be
// shared across goroutines. The algorithms themselves assume exclusive,
// non-reentrant access per call and carry no locking of their own.
type Synchronized struct {
	mu    sync.Mutex
	inner Limiter
}

// Synchronize wraps l for concurrent use.
func Synchronize(l Limiter) *Synchronized {
	return &Synchronized{inner: l}
}

// TryConsume attempts to admit n units while holding the wrapper's mutex.
func (s *Synchronized) TryConsume(n uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.TryConsume(n)
}

// TryConsumeOne is equivalent to TryConsume(1).
func (s *Synchronized) TryConsumeOne() error {
	return s.TryConsume(1)
}
