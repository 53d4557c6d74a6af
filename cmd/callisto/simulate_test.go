package main

import (
	"testing"
	"time"

	"mercator-hq/callisto/pkg/limits"
	"mercator-hq/callisto/pkg/ratelimit"
)

func resetSimulateFlags() {
	simulateFlags.algorithm = "token_bucket"
	simulateFlags.rate = 0
	simulateFlags.capacity = 0
	simulateFlags.limit = 0
	simulateFlags.window = 0
	simulateFlags.maxEntries = 0
	simulateFlags.requests = 100
	simulateFlags.quantity = 1
	simulateFlags.interval = 10 * time.Millisecond
	simulateFlags.format = "text"
}

func TestSimulate_TokenBucketDeterministic(t *testing.T) {
	// 20 attempts at 50ms spacing against a 10/s bucket with burst 5.
	// The bucket starts full, so the first 9 attempts drain the burst plus
	// accrued refill; after that every other attempt finds a whole token.
	result, err := simulate(limits.Policy{
		Algorithm: ratelimit.AlgorithmTokenBucket,
		Rate:      10,
		Capacity:  5,
	}, 20, 1, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}

	if result.Allowed != 14 {
		t.Errorf("Expected 14 allowed, got %d", result.Allowed)
	}
	if result.RateExceeded != 6 {
		t.Errorf("Expected 6 rate-exceeded, got %d", result.RateExceeded)
	}
	if result.ExceedsCapacity != 0 {
		t.Errorf("Expected no oversize rejections, got %d", result.ExceedsCapacity)
	}
	if result.VirtualDuration != 19*50*time.Millisecond {
		t.Errorf("Expected 950ms of virtual time, got %v", result.VirtualDuration)
	}
}

func TestSimulate_OversizeRequests(t *testing.T) {
	result, err := simulate(limits.Policy{
		Algorithm: ratelimit.AlgorithmTokenBucket,
		Rate:      10,
		Capacity:  5,
	}, 10, 6, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if result.ExceedsCapacity != 10 {
		t.Errorf("Expected every oversize attempt rejected permanently, got %d", result.ExceedsCapacity)
	}
}

func TestSimulate_RejectsInvalidAlgorithm(t *testing.T) {
	resetSimulateFlags()
	simulateFlags.algorithm = "leaky_bucket"

	if err := runSimulation(simulateCmd, nil); err == nil {
		t.Error("Expected unknown algorithm to fail")
	}
}

func TestSimulate_RejectsInvalidPolicy(t *testing.T) {
	resetSimulateFlags()
	simulateFlags.algorithm = "fixed_window"
	simulateFlags.limit = 0
	simulateFlags.window = time.Second

	if err := runSimulation(simulateCmd, nil); err == nil {
		t.Error("Expected zero-limit policy to fail")
	}
}

func TestSimulateCommandExists(t *testing.T) {
	if simulateCmd == nil {
		t.Fatal("simulateCmd is nil")
	}
	if simulateCmd.Use != "simulate" {
		t.Errorf("simulateCmd.Use = %q, want %q", simulateCmd.Use, "simulate")
	}
	if simulateCmd.RunE == nil {
		t.Error("simulateCmd.RunE should not be nil")
	}
}
