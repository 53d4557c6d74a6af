// Package retention enforces journal retention policies: age-based and
// count-based pruning, optionally on a cron schedule.
package retention

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/callisto/pkg/journal"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// MaxAge is how long records are retained. Zero keeps them forever.
	MaxAge time.Duration

	// MaxRecords is the maximum number of records to keep.
	// Zero means unlimited.
	MaxRecords int64

	// Schedule is a cron expression for scheduled pruning.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables scheduling;
	// RunOnce can still be called manually.
	Schedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxAge:     90 * 24 * time.Hour,
		MaxRecords: 0,
		Schedule:   "0 3 * * *",
	}
}

// Pruner enforces retention policies on journal records.
type Pruner struct {
	storage journal.Storage
	config  *Config
	logger  *slog.Logger
}

// NewPruner creates a retention pruner over the given storage.
func NewPruner(storage journal.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "journal.retention"),
	}
}

// RunOnce applies the retention policy once and reports how many records
// were pruned.
func (p *Pruner) RunOnce(ctx context.Context) (int64, error) {
	var pruned int64

	if p.config.MaxAge > 0 {
		cutoff := time.Now().UTC().Add(-p.config.MaxAge)
		removed, err := p.storage.DeleteBefore(ctx, cutoff)
		if err != nil {
			return pruned, err
		}
		pruned += removed
	}

	if p.config.MaxRecords > 0 {
		removed, err := p.storage.DeleteOldest(ctx, p.config.MaxRecords)
		if err != nil {
			return pruned, err
		}
		pruned += removed
	}

	if pruned > 0 {
		p.logger.Info("journal retention pruning complete", "pruned", pruned)
	}
	return pruned, nil
}
