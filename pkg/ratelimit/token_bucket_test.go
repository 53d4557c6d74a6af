package ratelimit

import (
	"errors"
	"math"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/clock"
)

func TestTokenBucket_StartsFull(t *testing.T) {
	v := clock.NewVirtual()
	tb, err := NewTokenBucketWithClock(10, 10, v.Clock())
	if err != nil {
		t.Fatalf("NewTokenBucketWithClock: %v", err)
	}

	// The full capacity is consumable immediately after construction.
	if err := tb.TryConsume(10); err != nil {
		t.Errorf("Expected full bucket to admit 10, got %v", err)
	}
	if err := tb.TryConsumeOne(); err == nil {
		t.Error("Expected empty bucket to reject")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	v := clock.NewVirtual()
	tb, err := NewTokenBucketWithClock(10, 10, v.Clock())
	if err != nil {
		t.Fatalf("NewTokenBucketWithClock: %v", err)
	}
	if err := tb.TryConsume(10); err != nil {
		t.Fatalf("drain: %v", err)
	}

	// 500ms at 10 tokens/sec accrues exactly 5 tokens.
	v.Advance(500 * time.Millisecond)
	if err := tb.TryConsume(5); err != nil {
		t.Errorf("Expected refill of 5 tokens, got %v", err)
	}
	if err := tb.TryConsumeOne(); err == nil {
		t.Error("Expected bucket to be empty after consuming the refill")
	}
}

func TestTokenBucket_CapacityInvariant(t *testing.T) {
	v := clock.NewVirtual()
	tb, err := NewTokenBucketWithClock(10, 5, v.Clock())
	if err != nil {
		t.Fatalf("NewTokenBucketWithClock: %v", err)
	}

	// Idling far longer than needed must not fill beyond capacity.
	v.Advance(time.Hour)
	if err := tb.TryConsumeOne(); err != nil {
		t.Fatalf("TryConsumeOne: %v", err)
	}
	if got := tb.Tokens(); got > tb.Capacity() {
		t.Errorf("Tokens %v exceeds capacity %v", got, tb.Capacity())
	}
	if err := tb.TryConsume(4); err != nil {
		t.Errorf("Expected 4 remaining tokens, got %v", err)
	}
	if err := tb.TryConsumeOne(); err == nil {
		t.Error("Expected bucket capped at capacity to be empty")
	}
}

func TestTokenBucket_IdleRefillGain(t *testing.T) {
	v := clock.NewVirtual()
	tb, err := NewTokenBucketWithClock(8, 8, v.Clock())
	if err != nil {
		t.Fatalf("NewTokenBucketWithClock: %v", err)
	}
	if err := tb.TryConsume(8); err != nil {
		t.Fatalf("drain: %v", err)
	}
	before := tb.Tokens()

	// Idle for d gains exactly min(d*rate, capacity-tokens).
	v.Advance(250 * time.Millisecond)
	if err := tb.TryConsume(2); err != nil {
		t.Fatalf("TryConsume after idle: %v", err)
	}
	gained := tb.Tokens() + 2 - before
	if math.Abs(gained-2) > 1e-9 {
		t.Errorf("Expected gain of 2 tokens over 250ms at 8/s, got %v", gained)
	}
}

func TestTokenBucket_FractionalAccrual(t *testing.T) {
	v := clock.NewVirtual()
	tb, err := NewTokenBucketWithClock(3, 3, v.Clock())
	if err != nil {
		t.Fatalf("NewTokenBucketWithClock: %v", err)
	}
	if err := tb.TryConsume(3); err != nil {
		t.Fatalf("drain: %v", err)
	}

	// Ten 100ms steps accrue 0.3 tokens each. Truncating fractions on
	// every refill would admit nothing here; retaining them admits 3.
	admitted := 0
	for i := 0; i < 10; i++ {
		v.Advance(100 * time.Millisecond)
		if err := tb.TryConsumeOne(); err == nil {
			admitted++
		}
	}
	if admitted != 3 {
		t.Errorf("Expected 3 admissions from fractional accrual, got %d", admitted)
	}
}

func TestTokenBucket_RetryAfterHint(t *testing.T) {
	v := clock.NewVirtual()
	tb, err := NewTokenBucketWithClock(4, 8, v.Clock())
	if err != nil {
		t.Fatalf("NewTokenBucketWithClock: %v", err)
	}
	if err := tb.TryConsume(8); err != nil {
		t.Fatalf("drain: %v", err)
	}

	err = tb.TryConsume(2)
	wait, ok := RetryAfter(err)
	if !ok {
		t.Fatalf("Expected RateExceededError, got %v", err)
	}
	// 2 missing tokens at 4/s is exactly 500ms.
	if wait != 500*time.Millisecond {
		t.Errorf("Expected retry hint of 500ms, got %v", wait)
	}

	// Waiting out the hint admits the request (no competing consumers).
	v.Advance(wait)
	if err := tb.TryConsume(2); err != nil {
		t.Errorf("Expected admission after waiting out the hint, got %v", err)
	}
}

func TestTokenBucket_FailureDoesNotConsume(t *testing.T) {
	v := clock.NewVirtual()
	tb, err := NewTokenBucketWithClock(10, 10, v.Clock())
	if err != nil {
		t.Fatalf("NewTokenBucketWithClock: %v", err)
	}
	if err := tb.TryConsume(9); err != nil {
		t.Fatalf("TryConsume(9): %v", err)
	}

	// A rejected request must leave the remaining token untouched.
	if err := tb.TryConsume(2); err == nil {
		t.Fatal("Expected rejection with 1 token left")
	}
	if err := tb.TryConsumeOne(); err != nil {
		t.Errorf("Expected the final token to survive the rejection, got %v", err)
	}
}

func TestTokenBucket_ZeroIsNoOp(t *testing.T) {
	v := clock.NewVirtual()
	tb, err := NewTokenBucketWithClock(10, 10, v.Clock())
	if err != nil {
		t.Fatalf("NewTokenBucketWithClock: %v", err)
	}
	if err := tb.TryConsume(7); err != nil {
		t.Fatalf("TryConsume(7): %v", err)
	}
	before := tb.Tokens()
	if err := tb.TryConsume(0); err != nil {
		t.Errorf("TryConsume(0): %v", err)
	}
	if tb.Tokens() != before {
		t.Errorf("TryConsume(0) mutated tokens: %v -> %v", before, tb.Tokens())
	}
}

func TestTokenBucket_ExceedsCapacity(t *testing.T) {
	v := clock.NewVirtual()
	tb, err := NewTokenBucketWithClock(10, 5, v.Clock())
	if err != nil {
		t.Fatalf("NewTokenBucketWithClock: %v", err)
	}
	if err := tb.TryConsume(6); !errors.Is(err, ErrExceedsCapacity) {
		t.Errorf("Expected ErrExceedsCapacity for n > capacity, got %v", err)
	}
	// The impossible request must not drain anything.
	if err := tb.TryConsume(5); err != nil {
		t.Errorf("Expected full bucket after rejected oversize request, got %v", err)
	}
}

func TestTokenBucket_InvalidConfig(t *testing.T) {
	v := clock.NewVirtual()
	cases := []struct {
		name     string
		rate     float64
		capacity uint64
		now      clock.Clock
	}{
		{"zero rate", 0, 10, v.Clock()},
		{"negative rate", -1, 10, v.Clock()},
		{"nan rate", math.NaN(), 10, v.Clock()},
		{"zero capacity", 10, 0, v.Clock()},
		{"nil clock", 10, 10, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTokenBucketWithClock(tc.rate, tc.capacity, tc.now)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
