// Package store is Kith's persistent, append-only fact log: subjects,
// facts and the two lifecycle event tables, plus the computed
// active-status projection and point-in-time materialization described in
// spec §4.1.
//
// It is backed by github.com/ncruces/go-sqlite3 through database/sql —
// an embedded, single-file engine, chosen because spec §6 requires the
// persisted state to live in "a single embedded relational database
// file" rather than behind a client-server connection.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	"go.uber.org/zap"
)

// Store serializes all writes behind a single mutex: SQLite itself only
// allows one writer at a time, but the lifecycle operations below are
// multi-statement and need the store's own critical section to honor the
// "atomically" wording of Supersede/Retract (spec §4.1, §5).
type Store struct {
	mu             sync.RWMutex
	db             *sql.DB
	logger         *zap.Logger
	lastRecordedAt time.Time
}

// Open creates or attaches to a SQLite database file at path and ensures
// the schema exists. Use ":memory:" for an ephemeral store (tests).
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer, single file: avoid driver-level contention

	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("store opened", zap.String("path", path))

	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// nextRecordedAt returns a UTC instant strictly greater than (or equal to,
// then bumped past) any previously assigned value, per spec §4.1: "on a
// collision with prior row's timestamp the store advances by one
// microsecond." Callers must hold s.mu for writing.
func (s *Store) nextRecordedAt() time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond) // the grain timestamps are stored at
	if !now.After(s.lastRecordedAt) {
		now = s.lastRecordedAt.Add(time.Microsecond)
	}
	s.lastRecordedAt = now
	return now
}
