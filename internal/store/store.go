// Package store is the persisted session store: a single SQLite file holding
// JSON documents by key. Reads are self-healing; a value that cannot be read or
// decoded is removed and the caller's default is used instead.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// Well-known keys.
const (
	KeyCurrentWorkout  = "current_workout"
	KeyPendingWorkouts = "pending_workouts"
	KeyExerciseHistory = "exercise_history"
	KeySettings        = "settings"
)

// ErrLocked is returned by Open when another process owns the store directory.
var ErrLocked = errors.New("store directory is locked by another process")

// Store persists JSON documents in dir/session.db.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	log  *slog.Logger

	// deleteAll is the bulk delete used by Clear.
	deleteAll func(ctx context.Context) error
}

// Open opens (or creates) the session database in dir and takes an exclusive
// lock on the directory for the lifetime of the Store.
func Open(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir %s: %w", dir, err)
	}

	lock := flock.New(filepath.Join(dir, "liftlog.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking store dir: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "session.db"))
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}

	s := &Store{db: db, lock: lock, log: log}
	s.deleteAll = func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM kv`)
		return err
	}
	return s, nil
}

// Get decodes the value stored under key into dst. It reports false when the
// key is absent or unreadable. Unreadable keys are removed.
func (s *Store) Get(ctx context.Context, key string, dst any) bool {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err == nil {
		err = json.Unmarshal([]byte(raw), dst)
	}
	if err != nil {
		s.log.Warn("discarding unreadable stored value", "key", key, "error", err)
		if rmErr := s.Remove(ctx, key); rmErr != nil {
			s.log.Warn("removing unreadable key failed", "key", key, "error", rmErr)
		}
		return false
	}
	return true
}

// GetOr returns the value stored under key, or def when it is absent or unreadable.
func GetOr[T any](ctx context.Context, s *Store, key string, def T) T {
	var v T
	if !s.Get(ctx, key, &v) {
		return def
	}
	return v
}

// Set stores v as JSON under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		key, string(data),
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// Has reports whether key exists, without decoding it.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv WHERE key = ?`, key).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", key, err)
	}
	return count > 0, nil
}

// Keys lists every stored key in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Clear removes every key. If the bulk delete fails it falls back to
// removing keys one by one.
func (s *Store) Clear(ctx context.Context) error {
	err := s.deleteAll(ctx)
	if err == nil {
		return nil
	}
	s.log.Warn("bulk clear failed, removing keys individually", "error", err)

	keys, err := s.Keys(ctx)
	if err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	var errs []error
	for _, k := range keys {
		if err := s.Remove(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes the database and releases the directory lock.
func (s *Store) Close() error {
	err := s.db.Close()
	if uerr := s.lock.Unlock(); uerr != nil && err == nil {
		err = uerr
	}
	return err
}
