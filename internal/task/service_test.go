package task_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/agentboard/agentboard/internal/storage"
	"github.com/agentboard/agentboard/internal/task"
)

func newTestService(t *testing.T) *task.Service {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := storage.Open(filepath.Join(t.TempDir(), "tasks.db"), log)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return task.NewService(engine, log)
}

func mustCreate(t *testing.T, svc *task.Service, p task.CreateTaskParams) *task.Task {
	t.Helper()
	created, err := svc.CreateTask(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateTask(%q) error: %v", p.Title, err)
	}
	return created
}

// ─── CRUD ───────────────────────────────────────────────────────────────────

func TestCreateTask_Defaults(t *testing.T) {
	svc := newTestService(t)

	created := mustCreate(t, svc, task.CreateTaskParams{Title: "  T1  "})
	if created.Title != "T1" {
		t.Errorf("Title = %q, want trimmed %q", created.Title, "T1")
	}
	if created.Status != task.StatusIdle {
		t.Errorf("Status = %q, want idle", created.Status)
	}
	if created.Priority != 0 {
		t.Errorf("Priority = %d, want 0", created.Priority)
	}
	if created.Tags == nil || len(created.Tags) != 0 {
		t.Errorf("Tags = %v, want empty non-nil", created.Tags)
	}
	if created.CreatedAt == "" || created.UpdatedAt == "" {
		t.Error("timestamps not assigned")
	}
}

func TestCreateTask_EmptyTitleRejected(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateTask(context.Background(), task.CreateTaskParams{Title: "   "})
	var verr *task.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestUpdateTask_PartialLeavesOtherFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, task.CreateTaskParams{
		Title: "T1", Description: "d", AssignedTo: "A", Priority: 7, Tags: []string{"x", "y"},
	})

	newTitle := "T1b"
	updated, err := svc.UpdateTask(ctx, created.ID, task.UpdateTaskParams{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdateTask() error: %v", err)
	}
	if updated.Title != "T1b" {
		t.Errorf("Title = %q, want T1b", updated.Title)
	}
	if updated.Description != "d" || updated.AssignedTo != "A" || updated.Priority != 7 {
		t.Errorf("unspecified fields changed: %+v", updated)
	}
	if len(updated.Tags) != 2 {
		t.Errorf("Tags = %v, want [x y]", updated.Tags)
	}
}

func TestUpdateTask_NotFound(t *testing.T) {
	svc := newTestService(t)

	newTitle := "x"
	_, err := svc.UpdateTask(context.Background(), 999, task.UpdateTaskParams{Title: &newTitle})
	var nf *task.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
	if nf.ID != 999 {
		t.Errorf("NotFoundError.ID = %d, want 999", nf.ID)
	}
}

func TestDeleteTask_CascadesToCommentsAndLinks(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, task.CreateTaskParams{Title: "T1"})
	if _, err := svc.AddComment(ctx, created.ID, "c1", "A"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddLink(ctx, created.ID, "https://example.com", "", "A"); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask() error: %v", err)
	}

	var nf *task.NotFoundError
	if _, err := svc.GetTask(ctx, created.ID); !errors.As(err, &nf) {
		t.Fatalf("GetTask after delete = %v, want *NotFoundError", err)
	}
	if _, err := svc.ListComments(ctx, created.ID); !errors.As(err, &nf) {
		t.Fatalf("ListComments after delete = %v, want *NotFoundError", err)
	}
}

func TestArchiveTask_ExcludedFromListingsAndIdempotencyError(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, task.CreateTaskParams{Title: "T1"})
	archived, err := svc.ArchiveTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("ArchiveTask() error: %v", err)
	}
	if archived.ArchivedAt == nil {
		t.Fatal("ArchivedAt not set")
	}

	listed, err := svc.ListTasks(ctx, task.ListTasksParams{})
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 0 {
		t.Errorf("default listing includes archived task: %v", listed)
	}

	withArchived, err := svc.ListTasks(ctx, task.ListTasksParams{IncludeArchived: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(withArchived) != 1 {
		t.Errorf("include_archived listing = %d tasks, want 1", len(withArchived))
	}

	_, err = svc.ArchiveTask(ctx, created.ID)
	var already *task.AlreadyArchivedError
	if !errors.As(err, &already) {
		t.Fatalf("second archive error = %v, want *AlreadyArchivedError", err)
	}
}

// ─── Queue ordering (P1) ────────────────────────────────────────────────────

func TestClaimNext_DrainsByPriorityThenFIFO(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// Two priority bands; the two priority-5 tasks must drain oldest first.
	mustCreate(t, svc, task.CreateTaskParams{Title: "mid-old", AssignedTo: "A", Priority: 5})
	mustCreate(t, svc, task.CreateTaskParams{Title: "high", AssignedTo: "A", Priority: 10})
	mustCreate(t, svc, task.CreateTaskParams{Title: "mid-new", AssignedTo: "A", Priority: 5})

	want := []string{"high", "mid-old", "mid-new"}
	for i, title := range want {
		claimed, err := svc.ClaimNext(ctx, "A")
		if err != nil {
			t.Fatalf("ClaimNext #%d error: %v", i, err)
		}
		if claimed == nil {
			t.Fatalf("ClaimNext #%d returned no task, want %q", i, title)
		}
		if claimed.Title != title {
			t.Errorf("ClaimNext #%d = %q, want %q", i, claimed.Title, title)
		}
		if claimed.Status != task.StatusWorking {
			t.Errorf("claimed task status = %q, want working", claimed.Status)
		}
	}

	claimed, err := svc.ClaimNext(ctx, "A")
	if err != nil {
		t.Fatal(err)
	}
	if claimed != nil {
		t.Errorf("drained queue still yielded %q", claimed.Title)
	}
}

func TestQueue_OrderingMatchesClaimContract(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, task.CreateTaskParams{Title: "low", AssignedTo: "A", Priority: 1})
	mustCreate(t, svc, task.CreateTaskParams{Title: "high", AssignedTo: "A", Priority: 9})
	mustCreate(t, svc, task.CreateTaskParams{Title: "done", AssignedTo: "A", Priority: 99, Status: task.StatusComplete})

	queue, err := svc.Queue(ctx, "A")
	if err != nil {
		t.Fatalf("Queue() error: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("Queue() = %d tasks, want 2 (complete excluded)", len(queue))
	}
	if queue[0].Title != "high" || queue[1].Title != "low" {
		t.Errorf("Queue order = [%s %s], want [high low]", queue[0].Title, queue[1].Title)
	}
}

// ─── Claim scoping (P3) and absence (scenario 4) ────────────────────────────

func TestClaimNext_ScopedToAgentStatusAndArchive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, task.CreateTaskParams{Title: "other-agent", AssignedTo: "B"})
	mustCreate(t, svc, task.CreateTaskParams{Title: "busy", AssignedTo: "A", Status: task.StatusWorking})
	archived := mustCreate(t, svc, task.CreateTaskParams{Title: "gone", AssignedTo: "A", Priority: 100})
	if _, err := svc.ArchiveTask(ctx, archived.ID); err != nil {
		t.Fatal(err)
	}

	claimed, err := svc.ClaimNext(ctx, "A")
	if err != nil {
		t.Fatalf("ClaimNext() error: %v", err)
	}
	if claimed != nil {
		t.Errorf("ClaimNext claimed out-of-scope task %q", claimed.Title)
	}
}

func TestClaimNext_NoWorkIsAbsentNotError(t *testing.T) {
	svc := newTestService(t)

	claimed, err := svc.ClaimNext(context.Background(), "C")
	if err != nil {
		t.Fatalf("ClaimNext() error: %v", err)
	}
	if claimed != nil {
		t.Errorf("ClaimNext() = %v, want nil", claimed)
	}
}

// ─── Claim exclusivity (P2, scenario 5) ─────────────────────────────────────

func TestClaimNext_ConcurrentCallersClaimOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, task.CreateTaskParams{Title: "solo", AssignedTo: "A"})

	var wg sync.WaitGroup
	results := make([]*task.TaskWithRelations, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.ClaimNext(ctx, "A")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent ClaimNext #%d error: %v", i, err)
		}
	}
	gotCount := 0
	for _, r := range results {
		if r != nil {
			gotCount++
			if r.ID != created.ID {
				t.Errorf("claimed wrong task %d", r.ID)
			}
		}
	}
	if gotCount != 1 {
		t.Fatalf("task claimed %d times, want exactly once", gotCount)
	}

	final, err := svc.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != task.StatusWorking {
		t.Errorf("final status = %q, want working", final.Status)
	}
}

// ─── Hand-off (P4, P5, scenarios 2-3) ───────────────────────────────────────

func TestHandOff_TransfersResetsAndRecordsComment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, task.CreateTaskParams{
		Title: "T1", AssignedTo: "A", Status: task.StatusWorking,
	})

	moved, err := svc.HandOff(ctx, created.ID, "A", "B", "  done with design  ")
	if err != nil {
		t.Fatalf("HandOff() error: %v", err)
	}
	if moved.AssignedTo != "B" {
		t.Errorf("AssignedTo = %q, want B", moved.AssignedTo)
	}
	if moved.Status != task.StatusIdle {
		t.Errorf("Status = %q, want idle (transfer always resets)", moved.Status)
	}
	if len(moved.Comments) != 1 {
		t.Fatalf("Comments = %d, want exactly 1", len(moved.Comments))
	}
	if moved.Comments[0].Content != "done with design" {
		t.Errorf("comment content = %q, want trimmed hand-off note", moved.Comments[0].Content)
	}
	if moved.Comments[0].CreatedBy != "A" {
		t.Errorf("comment author = %q, want the handing-off agent", moved.Comments[0].CreatedBy)
	}
}

func TestHandOff_Guards(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	working := mustCreate(t, svc, task.CreateTaskParams{Title: "w", AssignedTo: "A", Status: task.StatusWorking})
	complete := mustCreate(t, svc, task.CreateTaskParams{Title: "c", AssignedTo: "A", Status: task.StatusComplete})

	t.Run("missing task", func(t *testing.T) {
		_, err := svc.HandOff(ctx, 999, "A", "B", "x")
		var nf *task.NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("error = %v, want *NotFoundError", err)
		}
	})

	t.Run("wrong owner", func(t *testing.T) {
		_, err := svc.HandOff(ctx, working.ID, "Z", "B", "x")
		var oe *task.OwnershipError
		if !errors.As(err, &oe) {
			t.Fatalf("error = %v, want *OwnershipError", err)
		}
		if oe.Expected != "Z" || oe.Actual != "A" {
			t.Errorf("OwnershipError = %+v, want expected Z / actual A", oe)
		}
	})

	t.Run("complete is terminal", func(t *testing.T) {
		_, err := svc.HandOff(ctx, complete.ID, "A", "B", "x")
		var ise *task.InvalidStateError
		if !errors.As(err, &ise) {
			t.Fatalf("error = %v, want *InvalidStateError", err)
		}
	})

	t.Run("idle and working transfer fine", func(t *testing.T) {
		idle := mustCreate(t, svc, task.CreateTaskParams{Title: "i", AssignedTo: "A"})
		if _, err := svc.HandOff(ctx, idle.ID, "A", "B", "x"); err != nil {
			t.Errorf("idle hand-off error: %v", err)
		}
		if _, err := svc.HandOff(ctx, working.ID, "A", "B", "x"); err != nil {
			t.Errorf("working hand-off error: %v", err)
		}
	})
}

func TestHandOff_FailureLeavesNoPartialMutation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, task.CreateTaskParams{
		Title: "T1", AssignedTo: "A", Status: task.StatusComplete,
	})

	before, err := svc.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.HandOff(ctx, created.ID, "A", "B", "should not appear"); err == nil {
		t.Fatal("HandOff on complete task succeeded, want InvalidStateError")
	}

	after, err := svc.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.AssignedTo != before.AssignedTo || after.Status != before.Status ||
		after.UpdatedAt != before.UpdatedAt {
		t.Errorf("task mutated by failed hand-off: before=%+v after=%+v", before.Task, after.Task)
	}
	if len(after.Comments) != 0 {
		t.Errorf("failed hand-off left %d comment(s)", len(after.Comments))
	}
}

// ─── Comments and links ─────────────────────────────────────────────────────

func TestComments_OrderedOldestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, task.CreateTaskParams{Title: "T1"})
	for _, content := range []string{"first", "second", "third"} {
		if _, err := svc.AddComment(ctx, created.ID, content, "A"); err != nil {
			t.Fatal(err)
		}
	}

	comments, err := svc.ListComments(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 3 {
		t.Fatalf("ListComments = %d, want 3", len(comments))
	}
	for i, want := range []string{"first", "second", "third"} {
		if comments[i].Content != want {
			t.Errorf("comments[%d] = %q, want %q", i, comments[i].Content, want)
		}
	}
}

func TestComment_UpdateAndDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, task.CreateTaskParams{Title: "T1"})
	c, err := svc.AddComment(ctx, created.ID, "draft", "A")
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdateComment(ctx, c.ID, "final")
	if err != nil {
		t.Fatalf("UpdateComment() error: %v", err)
	}
	if updated.Content != "final" {
		t.Errorf("content = %q, want final", updated.Content)
	}

	if err := svc.DeleteComment(ctx, c.ID); err != nil {
		t.Fatalf("DeleteComment() error: %v", err)
	}
	var nf *task.NotFoundError
	if err := svc.DeleteComment(ctx, c.ID); !errors.As(err, &nf) {
		t.Fatalf("second delete = %v, want *NotFoundError", err)
	}
}

func TestLinks_CRUD(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, task.CreateTaskParams{Title: "T1"})
	l, err := svc.AddLink(ctx, created.ID, "https://example.com/pr/1", "the PR", "A")
	if err != nil {
		t.Fatalf("AddLink() error: %v", err)
	}

	newDesc := "the merged PR"
	updated, err := svc.UpdateLink(ctx, l.ID, task.UpdateLinkParams{Description: &newDesc})
	if err != nil {
		t.Fatalf("UpdateLink() error: %v", err)
	}
	if updated.URL != "https://example.com/pr/1" {
		t.Errorf("URL changed by partial update: %q", updated.URL)
	}
	if updated.Description != "the merged PR" {
		t.Errorf("Description = %q", updated.Description)
	}

	links, err := svc.ListLinks(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 {
		t.Fatalf("ListLinks = %d, want 1", len(links))
	}

	if err := svc.DeleteLink(ctx, l.ID); err != nil {
		t.Fatalf("DeleteLink() error: %v", err)
	}

	var nf *task.NotFoundError
	if _, err := svc.AddLink(ctx, 999, "https://example.com", "", ""); !errors.As(err, &nf) {
		t.Fatalf("AddLink to missing task = %v, want *NotFoundError", err)
	}
}

// Scenario 1 from the board's acceptance checklist: two tasks for one
// agent drain highest priority first.
func TestScenario_PriorityDrain(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, task.CreateTaskParams{Title: "T1", AssignedTo: "A", Priority: 10})
	mustCreate(t, svc, task.CreateTaskParams{Title: "T2", AssignedTo: "A", Priority: 5})

	first, err := svc.ClaimNext(ctx, "A")
	if err != nil || first == nil || first.Title != "T1" {
		t.Fatalf("first claim = %v (err %v), want T1", first, err)
	}
	second, err := svc.ClaimNext(ctx, "A")
	if err != nil || second == nil || second.Title != "T2" {
		t.Fatalf("second claim = %v (err %v), want T2", second, err)
	}
}
