// Package storage wraps the embedded SQLite database behind parameterized
// query/execute primitives and a single-level transaction boundary.
//
// All mutation in the process goes through this package. The database is
// opened in WAL mode with foreign keys enforced and a generous busy timeout
// so that a burst of concurrent writers queues on the write lock instead of
// failing outright.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// TimeLayout is the canonical on-disk timestamp format. It is fixed-width
// (nanoseconds always printed) so lexical ordering of stored values matches
// chronological ordering, which the queue ordering contract relies on.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Now formats t as a storable UTC timestamp.
func Now(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// QueryError wraps a failed read statement.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string { return fmt.Sprintf("query failed: %v", e.Err) }
func (e *QueryError) Unwrap() error { return e.Err }

// ExecuteError wraps a failed write statement, carrying the underlying
// driver message for diagnostics.
type ExecuteError struct {
	Query string
	Err   error
}

func (e *ExecuteError) Error() string { return fmt.Sprintf("execute failed: %v", e.Err) }
func (e *ExecuteError) Unwrap() error { return e.Err }

// ExecResult describes the effect of a write statement.
type ExecResult struct {
	LastInsertID int64
	RowsAffected int64
}

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Runner executes statements against either the database or an open
// transaction. Engine embeds one bound to the database; Transaction hands
// its body one bound to the transaction.
type Runner struct {
	db dbtx
}

// Query runs a read-only statement and returns its rows. The caller owns
// the returned rows and must close them.
func (r *Runner) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return rows, nil
}

// QueryOne scans the first matching row into dest. The boolean reports
// whether a row was found; zero rows is not an error.
func (r *Runner) QueryOne(ctx context.Context, query string, args []any, dest ...any) (bool, error) {
	err := r.db.QueryRowContext(ctx, query, args...).Scan(dest...)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &QueryError{Query: query, Err: err}
	}
	return true, nil
}

// Execute runs an INSERT/UPDATE/DELETE statement.
func (r *Runner) Execute(ctx context.Context, query string, args ...any) (ExecResult, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return ExecResult{}, &ExecuteError{Query: query, Err: err}
	}
	// modernc.org/sqlite supports both without an extra round trip.
	id, _ := res.LastInsertId()
	n, _ := res.RowsAffected()
	return ExecResult{LastInsertID: id, RowsAffected: n}, nil
}

// Engine owns the database connection.
type Engine struct {
	Runner
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(path string, log *slog.Logger) (*Engine, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("storage: create data dir: %w", err)
		}
	}

	// _txlock=immediate makes every explicit transaction take the write
	// lock up front, so concurrent writers queue on busy_timeout instead
	// of failing with a snapshot-upgrade conflict mid-transaction.
	db, err := openDB("sqlite", path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	// WAL lets readers proceed during writes; the 10s busy timeout makes
	// concurrent writers wait on the write lock rather than error.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: pragma %q: %w", p, err)
		}
	}

	e := &Engine{Runner: Runner{db: db}, db: db, log: log}
	if err := e.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration: %w", err)
	}
	log.Debug("database opened", "path", path)
	return e, nil
}

// Close closes the underlying database connection.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Transaction runs fn atomically. Any error returned by fn (or a panic
// escaping it) rolls the transaction back before propagating; a nil return
// commits. Nested calls are not supported.
func (e *Engine) Transaction(ctx context.Context, fn func(tx *Runner) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return &ExecuteError{Query: "BEGIN", Err: err}
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&Runner{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &ExecuteError{Query: "COMMIT", Err: err}
	}
	return nil
}

func (e *Engine) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tasks (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			title       TEXT    NOT NULL,
			description TEXT    NOT NULL DEFAULT '',
			status      TEXT    NOT NULL DEFAULT 'idle'
			            CHECK (status IN ('idle', 'working', 'complete')),
			assigned_to TEXT    NOT NULL DEFAULT '',
			created_by  TEXT    NOT NULL DEFAULT '',
			priority    INTEGER NOT NULL DEFAULT 0,
			tags        TEXT    NOT NULL DEFAULT '[]',
			created_at  TEXT    NOT NULL,
			updated_at  TEXT    NOT NULL,
			archived_at TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_queue
			ON tasks (assigned_to, status, archived_at, priority DESC, created_at ASC);

		CREATE TABLE IF NOT EXISTS comments (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id    INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			content    TEXT    NOT NULL,
			created_by TEXT    NOT NULL DEFAULT '',
			created_at TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_comments_task ON comments (task_id, created_at ASC);

		CREATE TABLE IF NOT EXISTS links (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id     INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			url         TEXT    NOT NULL,
			description TEXT    NOT NULL DEFAULT '',
			created_by  TEXT    NOT NULL DEFAULT '',
			created_at  TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_links_task ON links (task_id, created_at ASC);
	`
	if _, err := e.db.Exec(schema); err != nil {
		return err
	}
	return nil
}
