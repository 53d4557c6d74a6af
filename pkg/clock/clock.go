// Package clock provides the monotonic time source consumed by the rate
// limiting algorithms in pkg/ratelimit.
//
// Limiters never read the wall clock directly. They hold a Clock, a
// zero-argument function returning the elapsed duration since an arbitrary
// fixed reference point. This keeps the algorithms usable in environments
// without an ambient timer and makes them fully deterministic under test
// (see Virtual).
package clock

import "time"

// Clock returns a monotonically nondecreasing duration measured from an
// arbitrary fixed reference point. Successive readings from the same Clock
// must never decrease; absolute values carry no calendar meaning and are
// only comparable by subtraction.
//
// A Clock that goes backwards does not cause memory unsafety, but admission
// decisions made by limiters using it become unreliable.
type Clock func() time.Duration

// System returns a Clock bound to the Go runtime's monotonic clock.
// The reference point is the moment System is called, so readings start
// near zero and only ever grow.
func System() Clock {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
