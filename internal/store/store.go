// Package store implements the durable, transactional persistence layer
// (C1): users, progress, attempts, the grade cache, and review schedules.
//
// The teacher repo (abhisek/mathiz) backs this layer with entgo.io/ent,
// whose client is produced by `go generate` against ent/schema/*.go. This
// transformation cannot invoke the Go toolchain, so there is no way to
// produce (or safely hand-author) that generated client. The database
// choice and operational posture are kept verbatim — modernc.org/sqlite,
// WAL journal mode, a busy_timeout, foreign keys on — but the repository
// layer is hand-written SQL via sqlx instead of ent, split one repo per
// entity the way go-mizu/mizu's blueprints/lingo/store/sqlite splits
// UserStore/CourseStore/ProgressStore/... over a shared *sql.DB.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	// Pure Go SQLite driver (no CGO), same choice as the teacher.
	_ "modernc.org/sqlite"
)

// Store holds the database handle and the single-writer gate described
// in spec.md section 5 (one writer at a time, unbounded concurrent
// readers).
type Store struct {
	db *sqlx.DB

	writerMu      sync.Mutex
	writerTimeout time.Duration
}

// Options configures Open.
type Options struct {
	// LockTimeout bounds how long a writer waits to acquire the write
	// gate before failing with ErrStorageBusy. Default 5s per spec.md
	// section 5.
	LockTimeout time.Duration
}

// Open creates a new Store connected to the SQLite database at dsn,
// applies the teacher's recommended pragmas, and brings the schema up
// to CurrentSchemaVersion.
func Open(dsn string, opts Options) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &ErrStorageUnavailable{Err: fmt.Errorf("open database: %w", err)}
	}

	if err := applyPragmas(sqlDB); err != nil {
		sqlDB.Close()
		return nil, &ErrStorageUnavailable{Err: fmt.Errorf("apply pragmas: %w", err)}
	}

	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}

	s := &Store{
		db:            sqlx.NewDb(sqlDB, "sqlite"),
		writerTimeout: opts.LockTimeout,
	}

	if err := s.migrate(context.Background()); err != nil {
		sqlDB.Close()
		return nil, &ErrStorageCorrupt{Err: err}
	}

	return s, nil
}

// applyPragmas configures SQLite for optimal single-user, single-writer
// performance — identical to the teacher's internal/store/store.go.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DB returns the underlying *sqlx.DB for components that need raw
// read-only queries (e.g. the session planner).
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a running transaction handed to repository methods. It wraps
// *sqlx.Tx so repos can be called uniformly whether invoked through
// WithTx or (in tests) directly.
type Tx struct {
	*sqlx.Tx
}

// WithTx acquires the single-writer gate, opens a transaction, and runs
// fn. The transaction commits if fn returns nil and rolls back
// otherwise (including on panic, which is re-thrown after rollback).
// This is the only way mutations reach the database, matching the
// command surface's "open tx -> read -> release -> ... -> open tx ->
// verify -> apply -> commit" discipline in spec.md section 4.9.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) (err error) {
	gate := make(chan struct{})
	go func() {
		s.writerMu.Lock()
		close(gate)
	}()

	select {
	case <-gate:
		defer s.writerMu.Unlock()
	case <-time.After(s.writerTimeout):
		return &ErrStorageBusy{Err: fmt.Errorf("timed out after %s waiting for write lock", s.writerTimeout)}
	case <-ctx.Done():
		return ctx.Err()
	}

	sqlTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &ErrStorageUnavailable{Err: fmt.Errorf("begin tx: %w", err)}
	}
	tx := &Tx{Tx: sqlTx}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// WithReadTx runs fn inside a read-only transaction. Reads never wait on
// the writer gate.
func (s *Store) WithReadTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	sqlTx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return &ErrStorageUnavailable{Err: fmt.Errorf("begin read tx: %w", err)}
	}
	tx := &Tx{Tx: sqlTx}
	defer tx.Rollback()
	return fn(ctx, tx)
}

// DefaultDBPath resolves the database file path in priority order:
// 1. COURSEKIT_DB environment variable
// 2. $XDG_DATA_HOME/coursekit/coursekit.db
// 3. ~/.local/share/coursekit/coursekit.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("COURSEKIT_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "coursekit", "coursekit.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
