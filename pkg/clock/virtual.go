package clock

import (
	"sync"
	"time"
)

// Virtual is a controllable clock for deterministic tests. Time only moves
// when the test advances it, so limiter behavior at exact window boundaries
// can be exercised without sleeping.
//
// Virtual is safe for concurrent use; the Clock it hands out may be shared
// across goroutines.
type Virtual struct {
	mu      sync.RWMutex
	current time.Duration
}

// NewVirtual creates a Virtual clock starting at zero.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// NewVirtualAt creates a Virtual clock starting at the given reading.
// Panics if start is negative.
func NewVirtualAt(start time.Duration) *Virtual {
	if start < 0 {
		panic("clock: virtual clock cannot start in the negative")
	}
	return &Virtual{current: start}
}

// Clock returns the Clock capability backed by this virtual clock.
func (v *Virtual) Clock() Clock {
	return v.Now
}

// Now returns the current virtual reading.
func (v *Virtual) Now() time.Duration {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Advance moves the virtual clock forward by d.
// Panics if d is negative, since Clock readings must never decrease.
func (v *Virtual) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: cannot advance by negative duration")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current += d
}

// Set moves the virtual clock to an exact reading.
// Panics if t is before the current reading.
func (v *Virtual) Set(t time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t < v.current {
		panic("clock: cannot set virtual clock to the past")
	}
	v.current = t
}
