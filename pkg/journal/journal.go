package journal

import (
	"context"
	"fmt"
	"time"
)

// Record is a single admission decision.
type Record struct {
	// ID uniquely identifies the record (UUID, assigned by the Recorder).
	ID string `json:"id"`

	// Identifier names the protected resource or caller the decision
	// applies to.
	Identifier string `json:"identifier"`

	// Algorithm is the rate limiting algorithm that made the decision.
	Algorithm string `json:"algorithm"`

	// Requested is the quantity of units the caller asked for.
	Requested uint64 `json:"requested"`

	// Allowed reports whether the request was admitted.
	Allowed bool `json:"allowed"`

	// Reason explains a rejection ("rate_exceeded", "exceeds_capacity").
	// Empty for admitted requests.
	Reason string `json:"reason,omitempty"`

	// RetryAfter is the advisory backoff hint attached to a transient
	// rejection. Zero otherwise.
	RetryAfter time.Duration `json:"retry_after,omitempty"`

	// At is the wall-clock time the decision was recorded.
	At time.Time `json:"at"`
}

// Query filters journal records.
type Query struct {
	// Identifier restricts results to one identifier. Empty matches all.
	Identifier string

	// Allowed filters by decision outcome. Nil matches both.
	Allowed *bool

	// Since and Until bound the decision time (inclusive lower bound,
	// exclusive upper). Zero values are open ends.
	Since time.Time
	Until time.Time

	// Limit and Offset paginate results ordered by decision time,
	// newest first. Limit 0 means no limit.
	Limit  int
	Offset int
}

// Storage persists journal records.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, rec *Record) error

	// Query retrieves records matching q, newest first.
	Query(ctx context.Context, q *Query) ([]*Record, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)

	// DeleteBefore removes records decided before cutoff and reports
	// how many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOldest removes the oldest records until at most keep
	// remain, reporting how many were removed.
	DeleteOldest(ctx context.Context, keep int64) (int64, error)

	// Close releases backend resources.
	Close() error
}

// StorageError wraps a backend failure with the backend name and the
// operation that failed.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("journal storage %s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a StorageError.
func NewStorageError(backend, op string, err error) *StorageError {
	return &StorageError{Backend: backend, Op: op, Err: err}
}
