package flags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// OverrideStore persists per-flag overrides in SQLite.
// Overrides are set operationally (CLI, incident response) and take
// precedence over the registry's state. The store uses a write-ahead log
// for concurrent reader performance and survives restarts, which is the
// point: a kill override must not vanish when the process does.
type OverrideStore struct {
	db     *sql.DB
	logger *slog.Logger

	mu       sync.RWMutex
	getStmt  *sql.Stmt
	setStmt  *sql.Stmt
	delStmt  *sql.Stmt
	listStmt *sql.Stmt

	closeOnce sync.Once
}

const overrideSchema = `
CREATE TABLE IF NOT EXISTS flag_overrides (
	name       TEXT PRIMARY KEY,
	enabled    INTEGER NOT NULL,
	updated_at TEXT NOT NULL
);
`

// NewOverrideStore opens (creating if necessary) the override database at
// the given path.
func NewOverrideStore(path string, logger *slog.Logger) (*OverrideStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open override database %q: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(overrideSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize override schema: %w", err)
	}

	s := &OverrideStore{
		db:     db,
		logger: logger.With("component", "flags.overrides"),
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("flag override store opened", "path", path)

	return s, nil
}

// prepareStatements pre-compiles the store's SQL statements.
func (s *OverrideStore) prepareStatements() error {
	var err error

	s.getStmt, err = s.db.Prepare("SELECT enabled FROM flag_overrides WHERE name = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}
	s.setStmt, err = s.db.Prepare(
		"INSERT INTO flag_overrides (name, enabled, updated_at) VALUES (?, ?, ?) " +
			"ON CONFLICT(name) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at")
	if err != nil {
		return fmt.Errorf("failed to prepare set statement: %w", err)
	}
	s.delStmt, err = s.db.Prepare("DELETE FROM flag_overrides WHERE name = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	s.listStmt, err = s.db.Prepare("SELECT name, enabled FROM flag_overrides ORDER BY name")
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	return nil
}

// Get returns the override for a flag. ok is false when no override is set.
func (s *OverrideStore) Get(ctx context.Context, flag Flag) (enabled bool, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var val int
	err = s.getStmt.QueryRowContext(ctx, string(flag)).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to read override for %q: %w", flag, err)
	}
	return val != 0, true, nil
}

// Set sets or replaces the override for a flag.
func (s *OverrideStore) Set(ctx context.Context, flag Flag, enabled bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val := 0
	if enabled {
		val = 1
	}

	if _, err := s.setStmt.ExecContext(ctx, string(flag), val, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to set override for %q: %w", flag, err)
	}

	s.logger.Info("flag override set", "flag", flag, "enabled", enabled)
	return nil
}

// Clear removes the override for a flag. Clearing a flag with no override
// is not an error.
func (s *OverrideStore) Clear(ctx context.Context, flag Flag) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.delStmt.ExecContext(ctx, string(flag)); err != nil {
		return fmt.Errorf("failed to clear override for %q: %w", flag, err)
	}

	s.logger.Info("flag override cleared", "flag", flag)
	return nil
}

// List returns all overrides keyed by flag name.
func (s *OverrideStore) List(ctx context.Context) (map[Flag]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	defer rows.Close()

	overrides := make(map[Flag]bool)
	for rows.Next() {
		var name string
		var val int
		if err := rows.Scan(&name, &val); err != nil {
			return nil, fmt.Errorf("failed to scan override row: %w", err)
		}
		overrides[Flag(name)] = val != 0
	}
	return overrides, rows.Err()
}

// Close closes the store.
func (s *OverrideStore) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		for _, stmt := range []*sql.Stmt{s.getStmt, s.setStmt, s.delStmt, s.listStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		closeErr = s.db.Close()
	})
	return closeErr
}

// OverlayService layers a persistent override store over another flag
// service. Because the override lookup is I/O, answers are deferred: the
// caller gets a single-resolution result that resolves once the override
// (or the underlying service) has answered.
type OverlayService struct {
	store  *OverrideStore
	next   Service
	logger *slog.Logger
}

// NewOverlayService creates an overlay over next using the given store.
func NewOverlayService(store *OverrideStore, next Service, logger *slog.Logger) *OverlayService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OverlayService{
		store:  store,
		next:   next,
		logger: logger.With("component", "flags.overlay"),
	}
}

// IsEnabled answers with a deferred result: the override store is
// consulted first, falling back to the underlying service when no
// override is set. A store read failure falls through to the underlying
// service rather than failing the evaluation.
func (s *OverlayService) IsEnabled(ctx context.Context, flag Flag) Result {
	d := NewDeferred()

	go func() {
		enabled, ok, err := s.store.Get(ctx, flag)
		if err != nil {
			s.logger.Warn("override lookup failed, falling back to registry",
				"flag", flag,
				"error", err,
			)
		} else if ok {
			d.Resolve(enabled)
			return
		}

		val, err := s.next.IsEnabled(ctx, flag).Await(ctx)
		if err != nil {
			// The caller has abandoned the evaluation; the resolution
			// below is unobservable either way.
			d.Resolve(false)
			return
		}
		d.Resolve(val)
	}()

	return DeferredResult(d)
}
