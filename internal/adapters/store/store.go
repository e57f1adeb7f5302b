// Package store is the local durable store: a transactional SQLite
// database partitioned into collections for score records, the sync
// queue, the response cache and abandoned dead letters. It is the only
// shared mutable resource in the client; all access goes through this
// narrow API so the one-record-per-key and queue-FIFO invariants are
// enforced centrally.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/FawziYas/osce-project/pkg/metrics"
)

//go:embed schema.sql
var schemaSQL string

// Clock abstracts time for cache-expiry and timestamp tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Store provides durable storage surviving process restarts.
// SQLite in WAL mode; a single writer connection avoids SQLITE_BUSY.
type Store struct {
	db       *sql.DB
	clock    Clock
	clientID string
}

// Open creates or opens the client database at path and applies the
// schema. Safe to call repeatedly on the same file.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", ErrStorageUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connect: %w", ErrStorageUnavailable, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: apply schema: %w", ErrStorageUnavailable, err)
	}

	s := &Store{db: db, clock: systemClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// observe records an operation's latency, and its failure if err is
// non-nil, then passes err through.
func observe(op string, start time.Time, err error) error {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordStoreError()
	}
	return err
}

// storageErr maps any backend failure to ErrStorageUnavailable so
// callers can treat it as "offline with no durability" via errors.Is.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

func (s *Store) begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin", err)
	}
	return tx, nil
}
