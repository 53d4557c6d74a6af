package ratelimit

import (
	"errors"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/clock"
)

func TestSlidingWindowLog_Exactness(t *testing.T) {
	// Rate R=4 over window T=1s: one unit every T/R fills the window
	// exactly, an R+1th unit anywhere inside T is rejected, and the
	// first expiry at t=T opens exactly one slot.
	v := clock.NewVirtual()
	l, err := NewSlidingWindowLogWithClock(4, time.Second, 16, v.Clock())
	if err != nil {
		t.Fatalf("NewSlidingWindowLogWithClock: %v", err)
	}

	for i := 0; i < 4; i++ {
		v.Set(time.Duration(i) * 250 * time.Millisecond)
		if err := l.TryConsumeOne(); err != nil {
			t.Fatalf("consume at %v: %v", v.Now(), err)
		}
	}

	v.Set(900 * time.Millisecond)
	err = l.TryConsumeOne()
	wait, ok := RetryAfter(err)
	if !ok {
		t.Fatalf("Expected RateExceededError inside the full window, got %v", err)
	}
	// Oldest entry sits at t=0, so it expires at t=T.
	if wait != 100*time.Millisecond {
		t.Errorf("Expected retry hint of 100ms, got %v", wait)
	}

	v.Set(time.Second)
	if err := l.TryConsumeOne(); err != nil {
		t.Errorf("Expected admission once the first entry expired, got %v", err)
	}
}

func TestSlidingWindowLog_EvictionFreesQuantity(t *testing.T) {
	v := clock.NewVirtual()
	l, err := NewSlidingWindowLogWithClock(10, time.Second, 16, v.Clock())
	if err != nil {
		t.Fatalf("NewSlidingWindowLogWithClock: %v", err)
	}

	if err := l.TryConsume(6); err != nil {
		t.Fatalf("TryConsume(6): %v", err)
	}
	v.Set(400 * time.Millisecond)
	if err := l.TryConsume(4); err != nil {
		t.Fatalf("TryConsume(4): %v", err)
	}

	// Full at 10. After the first entry ages out, its 6 units free up.
	v.Set(999 * time.Millisecond)
	if err := l.TryConsumeOne(); err == nil {
		t.Fatal("Expected full window to reject")
	}
	v.Set(1100 * time.Millisecond)
	if err := l.TryConsume(6); err != nil {
		t.Errorf("Expected 6 units freed by eviction, got %v", err)
	}
	if got := l.Len(); got != 2 {
		t.Errorf("Expected 2 retained entries, got %d", got)
	}
	if got := l.Sum(); got != 10 {
		t.Errorf("Expected retained sum of 10, got %d", got)
	}
}

func TestSlidingWindowLog_RingSaturation(t *testing.T) {
	// Three retained entries exhaust the ring long before the rate
	// limit. The policy is to under-admit until time evicts the oldest
	// slot rather than grow or overwrite the log.
	v := clock.NewVirtual()
	l, err := NewSlidingWindowLogWithClock(100, time.Second, 3, v.Clock())
	if err != nil {
		t.Fatalf("NewSlidingWindowLogWithClock: %v", err)
	}

	for i := 0; i < 3; i++ {
		v.Set(time.Duration(i) * 100 * time.Millisecond)
		if err := l.TryConsumeOne(); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}

	v.Set(300 * time.Millisecond)
	err = l.TryConsumeOne()
	wait, ok := RetryAfter(err)
	if !ok {
		t.Fatalf("Expected saturation rejection despite rate headroom, got %v", err)
	}
	if wait != 700*time.Millisecond {
		t.Errorf("Expected retry hint until the oldest slot expires (700ms), got %v", wait)
	}

	// One slot frees at t=1s.
	v.Set(time.Second)
	if err := l.TryConsumeOne(); err != nil {
		t.Errorf("Expected admission after eviction freed a slot, got %v", err)
	}
	if got := l.Len(); got != 3 {
		t.Errorf("Expected ring to hold 3 entries again, got %d", got)
	}
}

func TestSlidingWindowLog_FailureDoesNotRecord(t *testing.T) {
	v := clock.NewVirtual()
	l, err := NewSlidingWindowLogWithClock(5, time.Second, 8, v.Clock())
	if err != nil {
		t.Fatalf("NewSlidingWindowLogWithClock: %v", err)
	}
	if err := l.TryConsume(4); err != nil {
		t.Fatalf("TryConsume(4): %v", err)
	}
	if err := l.TryConsume(2); err == nil {
		t.Fatal("Expected rejection with 1 unit of headroom")
	}
	if got := l.Len(); got != 1 {
		t.Errorf("Rejected call must not append an entry, log has %d", got)
	}
	if err := l.TryConsumeOne(); err != nil {
		t.Errorf("Expected the last unit to survive the rejection, got %v", err)
	}
}

func TestSlidingWindowLog_ZeroIsNoOp(t *testing.T) {
	v := clock.NewVirtual()
	l, err := NewSlidingWindowLogWithClock(5, time.Second, 8, v.Clock())
	if err != nil {
		t.Fatalf("NewSlidingWindowLogWithClock: %v", err)
	}
	if err := l.TryConsume(5); err != nil {
		t.Fatalf("TryConsume(5): %v", err)
	}
	if err := l.TryConsume(0); err != nil {
		t.Errorf("TryConsume(0): %v", err)
	}
	if got := l.Len(); got != 1 {
		t.Errorf("TryConsume(0) must not append an entry, log has %d", got)
	}
}

func TestSlidingWindowLog_ExceedsCapacity(t *testing.T) {
	v := clock.NewVirtual()
	l, err := NewSlidingWindowLogWithClock(5, time.Second, 8, v.Clock())
	if err != nil {
		t.Fatalf("NewSlidingWindowLogWithClock: %v", err)
	}
	if err := l.TryConsume(6); !errors.Is(err, ErrExceedsCapacity) {
		t.Errorf("Expected ErrExceedsCapacity for n > limit, got %v", err)
	}
	if got := l.Len(); got != 0 {
		t.Errorf("Oversize rejection must not touch the log, got %d entries", got)
	}
}

func TestSlidingWindowLog_InvalidConfig(t *testing.T) {
	v := clock.NewVirtual()
	cases := []struct {
		name       string
		limit      uint64
		window     time.Duration
		maxEntries int
		now        clock.Clock
	}{
		{"zero limit", 0, time.Second, 8, v.Clock()},
		{"zero window", 5, 0, 8, v.Clock()},
		{"negative window", 5, -time.Second, 8, v.Clock()},
		{"zero max entries", 5, time.Second, 0, v.Clock()},
		{"negative max entries", 5, time.Second, -1, v.Clock()},
		{"nil clock", 5, time.Second, 8, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSlidingWindowLogWithClock(tc.limit, tc.window, tc.maxEntries, tc.now)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
