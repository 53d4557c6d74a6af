package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/callisto/pkg/journal"
)

// schemaVersion is the current journal database schema version.
const schemaVersion = 1

// schema contains the SQL statements to create the journal schema.
const schema = `
CREATE TABLE IF NOT EXISTS decisions (
    id TEXT PRIMARY KEY,
    identifier TEXT NOT NULL,
    algorithm TEXT NOT NULL,
    requested INTEGER NOT NULL,
    allowed BOOLEAN NOT NULL,
    reason TEXT,
    retry_after_ns INTEGER NOT NULL DEFAULT 0,
    at_ns INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_at ON decisions(at_ns);
CREATE INDEX IF NOT EXISTS idx_decisions_identifier ON decisions(identifier, at_ns);

CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);
`

// SQLiteConfig contains configuration for the SQLite journal backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/journal.db",
		MaxOpenConns: 10,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements journal.Storage on a SQLite database.
type SQLiteStorage struct {
	db         *sql.DB
	insertStmt *sql.Stmt
}

// NewSQLiteStorage opens (creating if necessary) a SQLite journal at the
// configured path, enables WAL mode and initializes the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		config.Path, config.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, journal.NewStorageError("sqlite", "open", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, journal.NewStorageError("sqlite", "init schema", err)
	}
	if _, err := db.Exec(
		`INSERT INTO schema_info (version) SELECT ? WHERE NOT EXISTS (SELECT 1 FROM schema_info)`,
		schemaVersion,
	); err != nil {
		db.Close()
		return nil, journal.NewStorageError("sqlite", "init schema version", err)
	}

	insertStmt, err := db.Prepare(`
		INSERT INTO decisions (id, identifier, algorithm, requested, allowed, reason, retry_after_ns, at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, journal.NewStorageError("sqlite", "prepare insert", err)
	}

	return &SQLiteStorage{db: db, insertStmt: insertStmt}, nil
}

// Store persists a record.
func (s *SQLiteStorage) Store(ctx context.Context, rec *journal.Record) error {
	_, err := s.insertStmt.ExecContext(ctx,
		rec.ID,
		rec.Identifier,
		rec.Algorithm,
		int64(rec.Requested),
		rec.Allowed,
		rec.Reason,
		int64(rec.RetryAfter),
		rec.At.UnixNano(),
	)
	if err != nil {
		return journal.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves records matching q, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, q *journal.Query) ([]*journal.Record, error) {
	var (
		where []string
		args  []any
	)
	if q != nil {
		if q.Identifier != "" {
			where = append(where, "identifier = ?")
			args = append(args, q.Identifier)
		}
		if q.Allowed != nil {
			where = append(where, "allowed = ?")
			args = append(args, *q.Allowed)
		}
		if !q.Since.IsZero() {
			where = append(where, "at_ns >= ?")
			args = append(args, q.Since.UnixNano())
		}
		if !q.Until.IsZero() {
			where = append(where, "at_ns < ?")
			args = append(args, q.Until.UnixNano())
		}
	}

	query := `SELECT id, identifier, algorithm, requested, allowed, reason, retry_after_ns, at_ns FROM decisions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY at_ns DESC"
	if q != nil && q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
		if q.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, q.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, journal.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	var results []*journal.Record
	for rows.Next() {
		var (
			rec        journal.Record
			requested  int64
			retryAfter int64
			atNs       int64
		)
		if err := rows.Scan(&rec.ID, &rec.Identifier, &rec.Algorithm,
			&requested, &rec.Allowed, &rec.Reason, &retryAfter, &atNs); err != nil {
			return nil, journal.NewStorageError("sqlite", "scan", err)
		}
		rec.Requested = uint64(requested)
		rec.RetryAfter = time.Duration(retryAfter)
		rec.At = time.Unix(0, atNs).UTC()
		results = append(results, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, journal.NewStorageError("sqlite", "query", err)
	}
	return results, nil
}

// Count returns the number of stored records.
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions`).Scan(&count)
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// DeleteBefore removes records decided before cutoff.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM decisions WHERE at_ns < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "delete before", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "delete before", err)
	}
	return removed, nil
}

// DeleteOldest removes the oldest records until at most keep remain.
func (s *SQLiteStorage) DeleteOldest(ctx context.Context, keep int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM decisions WHERE id IN (
			SELECT id FROM decisions ORDER BY at_ns DESC LIMIT -1 OFFSET ?
		)`, keep)
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "delete oldest", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "delete oldest", err)
	}
	return removed, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	return s.db.Close()
}
