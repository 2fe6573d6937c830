package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Open(filepath.Join(t.TempDir(), "test.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestOpen_CreatesFileAndParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "tasks.db")
	e, err := Open(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer e.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	e := newTestEngine(t)

	var fk int
	found, err := e.QueryOne(context.Background(), "PRAGMA foreign_keys", nil, &fk)
	if err != nil || !found {
		t.Fatalf("PRAGMA foreign_keys: found=%v err=%v", found, err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestQueryOne_AbsentIsNotAnError(t *testing.T) {
	e := newTestEngine(t)

	var id int64
	found, err := e.QueryOne(context.Background(), "SELECT id FROM tasks WHERE id = ?", []any{999}, &id)
	if err != nil {
		t.Fatalf("QueryOne() error: %v", err)
	}
	if found {
		t.Error("QueryOne() found a row in an empty table")
	}
}

func TestExecute_ReturnsInsertIDAndAffectedRows(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	now := Now(time.Now())

	res, err := e.Execute(ctx,
		"INSERT INTO tasks (title, created_at, updated_at) VALUES (?, ?, ?)", "t", now, now)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.LastInsertID != 1 {
		t.Errorf("LastInsertID = %d, want 1", res.LastInsertID)
	}
	if res.RowsAffected != 1 {
		t.Errorf("RowsAffected = %d, want 1", res.RowsAffected)
	}
}

func TestExecute_MalformedSQLIsExecuteError(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Execute(context.Background(), "INSERT INTO nothing VALUES (1)")
	var execErr *ExecuteError
	if !errors.As(err, &execErr) {
		t.Fatalf("error = %v, want *ExecuteError", err)
	}
}

func TestTransaction_CommitsOnSuccess(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	now := Now(time.Now())

	err := e.Transaction(ctx, func(tx *Runner) error {
		_, err := tx.Execute(ctx,
			"INSERT INTO tasks (title, created_at, updated_at) VALUES (?, ?, ?)", "t", now, now)
		return err
	})
	if err != nil {
		t.Fatalf("Transaction() error: %v", err)
	}

	var n int
	if _, err := e.QueryOne(ctx, "SELECT COUNT(*) FROM tasks", nil, &n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("task count after commit = %d, want 1", n)
	}
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	now := Now(time.Now())
	boom := errors.New("boom")

	err := e.Transaction(ctx, func(tx *Runner) error {
		if _, err := tx.Execute(ctx,
			"INSERT INTO tasks (title, created_at, updated_at) VALUES (?, ?, ?)", "t", now, now); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction() error = %v, want boom", err)
	}

	var n int
	if _, err := e.QueryOne(ctx, "SELECT COUNT(*) FROM tasks", nil, &n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("task count after rollback = %d, want 0", n)
	}
}

func TestNow_FixedWidthPreservesOrdering(t *testing.T) {
	// The queue contract orders by stored timestamp text; a fixed-width
	// format keeps lexical order equal to chronological order even when
	// sub-second parts differ in magnitude.
	a := Now(time.Date(2026, 1, 2, 3, 4, 5, 120_000_000, time.UTC))
	b := Now(time.Date(2026, 1, 2, 3, 4, 5, 100_000_000, time.UTC))
	if !(b < a) {
		t.Errorf("expected %q < %q", b, a)
	}
}
