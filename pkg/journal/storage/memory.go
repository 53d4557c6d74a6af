// Package storage provides journal storage backends: an in-memory map for
// tests and a SQLite database for durable journals.
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/journal"
)

// MemoryStorage implements journal.Storage using an in-memory slice.
// It is intended for tests and short-lived tooling, not production use.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*journal.Record
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store persists a record.
func (s *MemoryStorage) Store(ctx context.Context, rec *journal.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.records = append(s.records, &cp)
	return nil
}

// Query retrieves records matching q, newest first.
func (s *MemoryStorage) Query(ctx context.Context, q *journal.Query) ([]*journal.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*journal.Record
	for _, rec := range s.records {
		if matches(rec, q) {
			cp := *rec
			results = append(results, &cp)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].At.After(results[j].At)
	})

	// A nil query matches everything with no pagination.
	if q != nil {
		if q.Offset > 0 {
			if q.Offset >= len(results) {
				return nil, nil
			}
			results = results[q.Offset:]
		}
		if q.Limit > 0 && len(results) > q.Limit {
			results = results[:q.Limit]
		}
	}
	return results, nil
}

// Count returns the number of stored records.
func (s *MemoryStorage) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// DeleteBefore removes records decided before cutoff.
func (s *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for _, rec := range s.records {
		if rec.At.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return removed, nil
}

// DeleteOldest removes the oldest records until at most keep remain.
func (s *MemoryStorage) DeleteOldest(ctx context.Context, keep int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int64(len(s.records)) <= keep {
		return 0, nil
	}

	sort.Slice(s.records, func(i, j int) bool {
		return s.records[i].At.Before(s.records[j].At)
	})
	removed := int64(len(s.records)) - keep
	s.records = append([]*journal.Record(nil), s.records[removed:]...)
	return removed, nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStorage) Close() error {
	return nil
}

func matches(rec *journal.Record, q *journal.Query) bool {
	if q == nil {
		return true
	}
	if q.Identifier != "" && rec.Identifier != q.Identifier {
		return false
	}
	if q.Allowed != nil && rec.Allowed != *q.Allowed {
		return false
	}
	if !q.Since.IsZero() && rec.At.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !rec.At.Before(q.Until) {
		return false
	}
	return true
}
