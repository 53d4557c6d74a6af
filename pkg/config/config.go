package config

import (
	"time"

	"mercator-hq/callisto/pkg/limits"
)

// Config is the root configuration structure for Callisto.
type Config struct {
	// Limits contains the rate limiting policies.
	Limits LimitsConfig `yaml:"limits"`

	// Journal contains configuration for the decision journal.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains configuration for logging.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LimitsConfig contains the rate limiting policy configuration.
type LimitsConfig struct {
	// Default is the policy applied to identifiers without an
	// explicit entry in Identifiers.
	Default limits.Policy `yaml:"default"`

	// Identifiers maps identifier names to their policies.
	Identifiers map[string]limits.Policy `yaml:"identifiers"`

	// Watch enables automatic policy reloading when the configuration
	// file changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// JournalConfig contains configuration for the decision journal.
type JournalConfig struct {
	// Enabled controls whether decisions are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend specifies the journal storage backend.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains recorder configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/journal.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains journal recorder configuration.
type RecorderConfig struct {
	// Buffer is the size of the async write channel buffer.
	// Default: 1000
	Buffer int `yaml:"buffer"`

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains journal retention configuration.
type RetentionConfig struct {
	// MaxAge is how long records are retained.
	// 0 means keep records forever (no age-based pruning).
	// Default: 2160h (90 days)
	MaxAge time.Duration `yaml:"max_age"`

	// MaxRecords is the maximum number of records to keep.
	// 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}
