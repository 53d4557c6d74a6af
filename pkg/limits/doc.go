// Package limits coordinates rate limiting across named identifiers.
//
// The core algorithms in pkg/ratelimit are single-owner and carry no
// locking; this package is the host-side layer that owns one limiter per
// identifier, serializes access to it, builds limiters lazily from
// configured policies, and emits Prometheus metrics and journal records
// for every decision.
//
//	manager, err := limits.NewManager(limits.Config{
//	    DefaultPolicy: limits.Policy{
//	        Algorithm: ratelimit.AlgorithmTokenBucket,
//	        Rate:      100,
//	        Capacity:  20,
//	    },
//	})
//
//	decision := manager.Check("api-key-123", 1)
//	if !decision.Allowed {
//	    // back off for decision.RetryAfter
//	}
package limits
