package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/clock"
	"mercator-hq/callisto/pkg/limits"
	"mercator-hq/callisto/pkg/ratelimit"
)

var simulateFlags struct {
	algorithm  string
	rate       float64
	capacity   uint64
	limit      uint64
	window     time.Duration
	maxEntries int

	requests uint64
	quantity uint64
	interval time.Duration
	format   string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a synthetic workload against a limit policy",
	Long: `Run a deterministic workload against a single limiter on a virtual
clock and report the admission outcome.

The simulation issues a fixed number of consumption attempts, advancing
virtual time by a fixed interval between attempts. Because the clock is
virtual, results are exact and reproducible: the same flags always produce
the same counts.

Examples:
  # 100 requests at 50ms spacing against a 10/s token bucket with burst 5
  callisto simulate --algorithm token_bucket --rate 10 --capacity 5 \
    --requests 100 --interval 50ms

  # Batch consumption against a fixed window
  callisto simulate --algorithm fixed_window --limit 100 --window 1s \
    --requests 50 --quantity 10 --interval 10ms

  # Machine-readable output
  callisto simulate --algorithm sliding_window_counter --limit 60 \
    --window 1m --requests 1000 --interval 500ms --format json`,
	RunE: runSimulation,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simulateFlags.algorithm, "algorithm", "token_bucket", "algorithm: token_bucket, fixed_window, sliding_window_log, sliding_window_counter")
	simulateCmd.Flags().Float64Var(&simulateFlags.rate, "rate", 0, "refill rate in units per second (token bucket)")
	simulateCmd.Flags().Uint64Var(&simulateFlags.capacity, "capacity", 0, "burst capacity in units (token bucket)")
	simulateCmd.Flags().Uint64Var(&simulateFlags.limit, "limit", 0, "maximum quantity per window (window algorithms)")
	simulateCmd.Flags().DurationVar(&simulateFlags.window, "window", 0, "window duration (window algorithms)")
	simulateCmd.Flags().IntVar(&simulateFlags.maxEntries, "max-entries", 0, "retained entry bound (sliding window log)")

	simulateCmd.Flags().Uint64Var(&simulateFlags.requests, "requests", 100, "number of consumption attempts")
	simulateCmd.Flags().Uint64Var(&simulateFlags.quantity, "quantity", 1, "units consumed per attempt")
	simulateCmd.Flags().DurationVar(&simulateFlags.interval, "interval", 10*time.Millisecond, "virtual time between attempts")
	simulateCmd.Flags().StringVar(&simulateFlags.format, "format", "text", "output format: text, json")
}

// SimulationResult is the outcome of a simulated workload.
type SimulationResult struct {
	Algorithm       string        `json:"algorithm"`
	Requests        uint64        `json:"requests"`
	Quantity        uint64        `json:"quantity"`
	Interval        time.Duration `json:"interval_ns"`
	VirtualDuration time.Duration `json:"virtual_duration_ns"`

	Allowed         uint64 `json:"allowed"`
	RateExceeded    uint64 `json:"rate_exceeded"`
	ExceedsCapacity uint64 `json:"exceeds_capacity"`

	// MaxRetryAfter is the largest backoff hint seen across transient
	// rejections.
	MaxRetryAfter time.Duration `json:"max_retry_after_ns"`
}

// simulate runs the workload against a fresh limiter on a virtual clock.
func simulate(policy limits.Policy, requests, quantity uint64, interval time.Duration) (SimulationResult, error) {
	v := clock.NewVirtual()
	limiter, err := policy.Build(v.Clock())
	if err != nil {
		return SimulationResult{}, err
	}

	result := SimulationResult{
		Algorithm: policy.Algorithm.String(),
		Requests:  requests,
		Quantity:  quantity,
		Interval:  interval,
	}

	var rateErr *ratelimit.RateExceededError
	for i := uint64(0); i < requests; i++ {
		if i > 0 {
			v.Advance(interval)
		}

		switch consumeErr := limiter.TryConsume(quantity); {
		case consumeErr == nil:
			result.Allowed++
		case errors.Is(consumeErr, ratelimit.ErrExceedsCapacity):
			result.ExceedsCapacity++
		case errors.As(consumeErr, &rateErr):
			result.RateExceeded++
			if rateErr.RetryAfter > result.MaxRetryAfter {
				result.MaxRetryAfter = rateErr.RetryAfter
			}
		default:
			return result, consumeErr
		}
	}
	result.VirtualDuration = v.Now()
	return result, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	alg, err := ratelimit.ParseAlgorithm(simulateFlags.algorithm)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}

	policy := limits.Policy{
		Algorithm:  alg,
		Rate:       simulateFlags.rate,
		Capacity:   simulateFlags.capacity,
		Limit:      simulateFlags.limit,
		Window:     simulateFlags.window,
		MaxEntries: simulateFlags.maxEntries,
	}

	result, err := simulate(policy, simulateFlags.requests, simulateFlags.quantity, simulateFlags.interval)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}

	if simulateFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, result)
	}

	fmt.Printf("Simulated %d attempts of %d unit(s) at %v spacing (%v virtual time)\n",
		result.Requests, result.Quantity, result.Interval, result.VirtualDuration)
	fmt.Println()
	fmt.Printf("Algorithm:        %s\n", result.Algorithm)
	fmt.Printf("Allowed:          %d\n", result.Allowed)
	fmt.Printf("Rate exceeded:    %d\n", result.RateExceeded)
	fmt.Printf("Exceeds capacity: %d\n", result.ExceedsCapacity)
	if result.RateExceeded > 0 {
		fmt.Printf("Max retry hint:   %v\n", result.MaxRetryAfter)
	}
	return nil
}
