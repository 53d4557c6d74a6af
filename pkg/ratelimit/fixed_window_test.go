package ratelimit

import (
	"errors"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/clock"
)

func TestFixedWindow_BoundaryBurst(t *testing.T) {
	v := clock.NewVirtual()
	fw, err := NewFixedWindowWithClock(5, time.Second, v.Clock())
	if err != nil {
		t.Fatalf("NewFixedWindowWithClock: %v", err)
	}

	// Burst at the end of window 0...
	v.Set(999 * time.Millisecond)
	if err := fw.TryConsume(5); err != nil {
		t.Fatalf("Expected burst at end of window to be admitted, got %v", err)
	}

	// ...and another full burst right after the boundary. Admitting 2x the
	// configured rate across a boundary is the documented trade-off of
	// this algorithm, not a bug.
	v.Set(1001 * time.Millisecond)
	if err := fw.TryConsume(5); err != nil {
		t.Fatalf("Expected burst at start of next window to be admitted, got %v", err)
	}

	// A third consumption before 2T is rejected.
	v.Set(1500 * time.Millisecond)
	err = fw.TryConsumeOne()
	wait, ok := RetryAfter(err)
	if !ok {
		t.Fatalf("Expected RateExceededError before the next rollover, got %v", err)
	}
	if wait != 500*time.Millisecond {
		t.Errorf("Expected retry hint of 500ms until window end, got %v", wait)
	}
}

func TestFixedWindow_RolloverResetsCount(t *testing.T) {
	v := clock.NewVirtual()
	fw, err := NewFixedWindowWithClock(3, time.Second, v.Clock())
	if err != nil {
		t.Fatalf("NewFixedWindowWithClock: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := fw.TryConsumeOne(); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}
	if err := fw.TryConsumeOne(); err == nil {
		t.Fatal("Expected exhausted window to reject")
	}

	v.Advance(time.Second)
	for i := 0; i < 3; i++ {
		if err := fw.TryConsumeOne(); err != nil {
			t.Errorf("Expected fresh count after rollover, got %v on consume %d", err, i)
		}
	}
}

func TestFixedWindow_AlignedToClockOrigin(t *testing.T) {
	// Constructed mid-window: window boundaries derive from the clock
	// origin, not from construction time.
	v := clock.NewVirtualAt(1500 * time.Millisecond)
	fw, err := NewFixedWindowWithClock(2, time.Second, v.Clock())
	if err != nil {
		t.Fatalf("NewFixedWindowWithClock: %v", err)
	}

	if err := fw.TryConsume(2); err != nil {
		t.Fatalf("TryConsume(2): %v", err)
	}

	// Still inside [1s, 2s).
	v.Set(1999 * time.Millisecond)
	err = fw.TryConsumeOne()
	wait, ok := RetryAfter(err)
	if !ok {
		t.Fatalf("Expected rejection inside the same window, got %v", err)
	}
	if wait != 1*time.Millisecond {
		t.Errorf("Expected 1ms until the aligned boundary, got %v", wait)
	}

	// The aligned boundary at 2s opens a new window.
	v.Set(2 * time.Second)
	if err := fw.TryConsumeOne(); err != nil {
		t.Errorf("Expected admission at the aligned boundary, got %v", err)
	}
}

func TestFixedWindow_FailureDoesNotConsume(t *testing.T) {
	v := clock.NewVirtual()
	fw, err := NewFixedWindowWithClock(5, time.Second, v.Clock())
	if err != nil {
		t.Fatalf("NewFixedWindowWithClock: %v", err)
	}
	if err := fw.TryConsume(4); err != nil {
		t.Fatalf("TryConsume(4): %v", err)
	}
	if err := fw.TryConsume(2); err == nil {
		t.Fatal("Expected rejection with 1 unit of headroom")
	}
	if err := fw.TryConsumeOne(); err != nil {
		t.Errorf("Expected the last unit to survive the rejection, got %v", err)
	}
}

func TestFixedWindow_ZeroIsNoOp(t *testing.T) {
	v := clock.NewVirtual()
	fw, err := NewFixedWindowWithClock(2, time.Second, v.Clock())
	if err != nil {
		t.Fatalf("NewFixedWindowWithClock: %v", err)
	}
	if err := fw.TryConsume(2); err != nil {
		t.Fatalf("TryConsume(2): %v", err)
	}
	if err := fw.TryConsume(0); err != nil {
		t.Errorf("TryConsume(0): %v", err)
	}
	if err := fw.TryConsumeOne(); err == nil {
		t.Error("Expected window to remain exhausted after zero-quantity call")
	}
}

func TestFixedWindow_ExceedsCapacity(t *testing.T) {
	v := clock.NewVirtual()
	fw, err := NewFixedWindowWithClock(5, time.Second, v.Clock())
	if err != nil {
		t.Fatalf("NewFixedWindowWithClock: %v", err)
	}
	if err := fw.TryConsume(6); !errors.Is(err, ErrExceedsCapacity) {
		t.Errorf("Expected ErrExceedsCapacity for n > limit, got %v", err)
	}
	if err := fw.TryConsume(5); err != nil {
		t.Errorf("Expected untouched window after oversize rejection, got %v", err)
	}
}

func TestFixedWindow_InvalidConfig(t *testing.T) {
	v := clock.NewVirtual()
	if _, err := NewFixedWindowWithClock(0, time.Second, v.Clock()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for zero limit, got %v", err)
	}
	if _, err := NewFixedWindowWithClock(5, 0, v.Clock()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for zero window, got %v", err)
	}
	if _, err := NewFixedWindowWithClock(5, -time.Second, v.Clock()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for negative window, got %v", err)
	}
	if _, err := NewFixedWindowWithClock(5, time.Second, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for nil clock, got %v", err)
	}
}
