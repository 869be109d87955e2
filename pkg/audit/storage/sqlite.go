package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"mercator-hq/callisto/pkg/audit"
)

// SQLiteConfig contains SQLite store configuration.
type SQLiteConfig struct {
	// Path is the database file path. Parent directories are created if
	// missing.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration
}

// SQLiteStore persists decision records in SQLite with WAL enabled.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	writeStmt  *sql.Stmt
	countStmt  *sql.Stmt
	beforeStmt *sql.Stmt

	closeOnce sync.Once
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS guard_decisions (
	id          TEXT PRIMARY KEY,
	timestamp   TEXT NOT NULL,
	route_path  TEXT NOT NULL,
	flag        TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	redirect_to TEXT NOT NULL,
	detail      TEXT NOT NULL,
	duration_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_guard_decisions_timestamp ON guard_decisions(timestamp);
CREATE INDEX IF NOT EXISTS idx_guard_decisions_route ON guard_decisions(route_path);
`

// NewSQLiteStore opens (creating if necessary) the audit database at
// cfg.Path.
func NewSQLiteStore(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create audit database directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database %q: %w", cfg.Path, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger.With("component", "audit.storage"),
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("audit store opened", "path", cfg.Path)
	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.writeStmt, err = s.db.Prepare(
		"INSERT INTO guard_decisions (id, timestamp, route_path, flag, outcome, redirect_to, detail, duration_ns) " +
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare write statement: %w", err)
	}
	s.countStmt, err = s.db.Prepare("SELECT COUNT(*) FROM guard_decisions")
	if err != nil {
		return fmt.Errorf("failed to prepare count statement: %w", err)
	}
	s.beforeStmt, err = s.db.Prepare("DELETE FROM guard_decisions WHERE timestamp < ?")
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	return nil
}

// Write persists a record.
func (s *SQLiteStore) Write(ctx context.Context, record *audit.DecisionRecord) error {
	_, err := s.writeStmt.ExecContext(ctx,
		record.ID,
		record.Timestamp.UTC().Format(time.RFC3339Nano),
		record.RoutePath,
		record.Flag,
		string(record.Outcome),
		record.RedirectTo,
		record.Detail,
		record.Duration.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to write decision record %q: %w", record.ID, err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.countStmt.QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count decision records: %w", err)
	}
	return count, nil
}

// DeleteBefore removes records older than the cutoff.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.beforeStmt.ExecContext(ctx, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old decision records: %w", err)
	}
	return res.RowsAffected()
}

// DeleteOldest removes the n oldest records.
func (s *SQLiteStore) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM guard_decisions WHERE id IN "+
			"(SELECT id FROM guard_decisions ORDER BY timestamp ASC LIMIT ?)", n)
	if err != nil {
		return 0, fmt.Errorf("failed to delete oldest decision records: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the store.
func (s *SQLiteStore) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.writeStmt, s.countStmt, s.beforeStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		closeErr = s.db.Close()
	})
	return closeErr
}
