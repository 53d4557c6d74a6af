package limits

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/clock"
	"mercator-hq/callisto/pkg/journal"
	"mercator-hq/callisto/pkg/ratelimit"
)

// Decision is the outcome of a limit check.
type Decision struct {
	// Allowed reports whether the quantity was admitted.
	Allowed bool

	// Reason explains a rejection ("rate_exceeded", "exceeds_capacity").
	Reason string

	// RetryAfter is the advisory backoff hint for transient rejections.
	RetryAfter time.Duration

	// Algorithm is the algorithm that made the decision.
	Algorithm ratelimit.Algorithm
}

// Rejection reasons.
const (
	ReasonRateExceeded    = "rate_exceeded"
	ReasonExceedsCapacity = "exceeds_capacity"
)

// Config contains configuration for the Manager.
type Config struct {
	// DefaultPolicy applies to identifiers without an explicit policy.
	DefaultPolicy Policy

	// Policies maps identifiers to their limit policies.
	Policies map[string]Policy

	// Clock is the time source handed to every limiter the manager
	// builds. Defaults to clock.System().
	Clock clock.Clock

	// Metrics receives per-decision Prometheus metrics. Optional.
	Metrics *Metrics

	// Journal receives a record of every decision. Optional.
	Journal *journal.Recorder
}

// Manager owns one limiter per identifier and serializes access to it.
//
// Limiters are built lazily on first use from the identifier's policy
// (falling back to the default policy) and live until the policy changes
// or the manager is reset. The manager holds its mutex across the
// TryConsume call: the core algorithms assume exclusive access, and their
// calls are short enough that a single lock is cheaper than per-identifier
// locking until proven otherwise.
type Manager struct {
	mu            sync.Mutex
	limiters      map[string]ratelimit.Limiter
	policies      map[string]Policy
	defaultPolicy Policy

	now     clock.Clock
	metrics *Metrics
	journal *journal.Recorder
	logger  *slog.Logger
}

// NewManager creates a manager from the given configuration. Every
// configured policy is validated up front; a policy that cannot build a
// limiter rejects the whole configuration.
func NewManager(config Config) (*Manager, error) {
	if err := config.DefaultPolicy.Validate(); err != nil {
		return nil, fmt.Errorf("default policy: %w", err)
	}
	for id, p := range config.Policies {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("policy %q: %w", id, err)
		}
	}

	now := config.Clock
	if now == nil {
		now = clock.System()
	}

	policies := make(map[string]Policy, len(config.Policies))
	for id, p := range config.Policies {
		policies[id] = p
	}

	return &Manager{
		limiters:      make(map[string]ratelimit.Limiter),
		policies:      policies,
		defaultPolicy: config.DefaultPolicy,
		now:           now,
		metrics:       config.Metrics,
		journal:       config.Journal,
		logger:        slog.Default().With("component", "limits.manager"),
	}, nil
}

// Check attempts to admit n units for the given identifier.
func (m *Manager) Check(identifier string, n uint64) Decision {
	m.mu.Lock()
	policy := m.policyFor(identifier)
	limiter, err := m.limiterFor(identifier, policy)
	if err != nil {
		m.mu.Unlock()
		m.logger.Error("failed to build limiter", "identifier", identifier, "error", err)
		return Decision{Allowed: false, Reason: "invalid_policy", Algorithm: policy.Algorithm}
	}
	consumeErr := limiter.TryConsume(n)
	m.mu.Unlock()

	decision := Decision{Algorithm: policy.Algorithm}
	switch {
	case consumeErr == nil:
		decision.Allowed = true
	case consumeErr == ratelimit.ErrExceedsCapacity:
		decision.Reason = ReasonExceedsCapacity
	default:
		decision.Reason = ReasonRateExceeded
		if wait, ok := ratelimit.RetryAfter(consumeErr); ok {
			decision.RetryAfter = wait
		}
	}

	m.observe(identifier, n, decision)
	return decision
}

// CheckOne is equivalent to Check(identifier, 1).
func (m *Manager) CheckOne(identifier string) Decision {
	return m.Check(identifier, 1)
}

// Reload replaces the policy set. Limiters whose policy is unchanged keep
// their state; identifiers whose policy changed (including a changed
// default) start fresh on next use.
func (m *Manager) Reload(defaultPolicy Policy, policies map[string]Policy) error {
	if err := defaultPolicy.Validate(); err != nil {
		return fmt.Errorf("default policy: %w", err)
	}
	for id, p := range policies {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("policy %q: %w", id, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range m.limiters {
		if m.effectivePolicy(id, defaultPolicy, policies) != m.policyFor(id) {
			delete(m.limiters, id)
		}
	}

	m.defaultPolicy = defaultPolicy
	m.policies = make(map[string]Policy, len(policies))
	for id, p := range policies {
		m.policies[id] = p
	}

	m.logger.Info("limit policies reloaded", "policies", len(policies))
	return nil
}

// Reset discards every limiter, restarting all identifiers with fresh
// state on next use. Primarily for tests.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters = make(map[string]ratelimit.Limiter)
}

// policyFor returns the effective policy under the current configuration.
// Caller must hold the mutex.
func (m *Manager) policyFor(identifier string) Policy {
	return m.effectivePolicy(identifier, m.defaultPolicy, m.policies)
}

func (m *Manager) effectivePolicy(identifier string, def Policy, policies map[string]Policy) Policy {
	if p, ok := policies[identifier]; ok {
		return p
	}
	return def
}

// limiterFor returns the identifier's limiter, building it on first use.
// Caller must hold the mutex.
func (m *Manager) limiterFor(identifier string, policy Policy) (ratelimit.Limiter, error) {
	if l, ok := m.limiters[identifier]; ok {
		return l, nil
	}
	l, err := policy.Build(m.now)
	if err != nil {
		return nil, err
	}
	m.limiters[identifier] = l
	return l, nil
}

func (m *Manager) observe(identifier string, n uint64, decision Decision) {
	if m.metrics != nil {
		m.metrics.RecordCheck(identifier, decision)
	}
	if m.journal != nil {
		m.journal.Record(journal.Record{
			Identifier: identifier,
			Algorithm:  decision.Algorithm.String(),
			Requested:  n,
			Allowed:    decision.Allowed,
			Reason:     decision.Reason,
			RetryAfter: decision.RetryAfter,
		})
	}
}
