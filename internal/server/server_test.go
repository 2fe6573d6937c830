package server_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/agentboard/agentboard/internal/server"
	"github.com/agentboard/agentboard/internal/storage"
	"github.com/agentboard/agentboard/internal/task"
)

func newTestFactory(t *testing.T) *server.Factory {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := storage.Open(filepath.Join(t.TempDir(), "tasks.db"), log)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return server.NewFactory(task.NewService(engine, log), log)
}

func TestOperations_FullCatalog(t *testing.T) {
	f := newTestFactory(t)

	want := []string{
		"create_task", "update_task", "get_task", "delete_task", "archive_task",
		"list_tasks", "get_my_queue", "signup_for_task", "move_task",
		"add_comment", "update_comment", "delete_comment", "list_comments",
		"add_link", "update_link", "delete_link", "list_links",
	}

	ops := f.Operations()
	if len(ops) != len(want) {
		t.Fatalf("Operations() = %d entries, want %d", len(ops), len(want))
	}
	names := map[string]bool{}
	for _, op := range ops {
		names[op.Name] = true
		if op.Description == "" {
			t.Errorf("operation %q has no description", op.Name)
		}
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("operation %q missing from catalog", name)
		}
	}
}

func TestNewHandler_ReturnsIndependentInstances(t *testing.T) {
	f := newTestFactory(t)

	a := f.NewHandler()
	b := f.NewHandler()
	if a == b {
		t.Fatal("NewHandler() returned the same instance twice")
	}
}
