package task

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/agentboard/agentboard/internal/storage"
)

const taskColumns = `id, title, description, status, assigned_to, created_by,
	priority, tags, created_at, updated_at, archived_at`

// Service implements the task-board domain operations on top of the storage
// engine. It is stateless and safe to share across concurrent sessions; all
// multi-statement operations run inside a single transaction.
type Service struct {
	db  *storage.Engine
	log *slog.Logger
	now func() time.Time // test injection
}

// NewService creates a Service bound to the shared storage engine.
func NewService(db *storage.Engine, log *slog.Logger) *Service {
	return &Service{db: db, log: log, now: time.Now}
}

// CreateTaskParams holds input for creating a task. Title is required;
// Status defaults to idle.
type CreateTaskParams struct {
	Title       string
	Description string
	Status      Status
	AssignedTo  string
	CreatedBy   string
	Priority    int
	Tags        []string
}

// UpdateTaskParams holds a partial update; nil fields are left unchanged.
type UpdateTaskParams struct {
	Title       *string
	Description *string
	Status      *Status
	AssignedTo  *string
	Priority    *int
	Tags        []string
}

// ListTasksParams filters list_tasks. Zero values mean "no filter".
type ListTasksParams struct {
	Status          Status
	AssignedTo      string
	IncludeArchived bool
}

// CreateTask inserts a new task and returns it.
func (s *Service) CreateTask(ctx context.Context, p CreateTaskParams) (*Task, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	status := p.Status
	if status == "" {
		status = StatusIdle
	}
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "must be idle, working, or complete"}
	}

	tags, err := encodeTags(p.Tags)
	if err != nil {
		return nil, err
	}
	now := storage.Now(s.now())
	res, err := s.db.Execute(ctx, `
		INSERT INTO tasks (title, description, status, assigned_to, created_by, priority, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		title, p.Description, string(status), p.AssignedTo, p.CreatedBy, p.Priority, tags, now, now)
	if err != nil {
		return nil, err
	}
	s.log.Debug("task created", "id", res.LastInsertID, "title", title, "assigned_to", p.AssignedTo)
	return s.fetchTask(ctx, &s.db.Runner, res.LastInsertID)
}

// GetTask returns a task with its full comment and link lists.
func (s *Service) GetTask(ctx context.Context, id int64) (*TaskWithRelations, error) {
	return s.fetchTaskWithRelations(ctx, &s.db.Runner, id)
}

// UpdateTask applies a partial update and returns the updated task.
// Unspecified fields are left unchanged.
func (s *Service) UpdateTask(ctx context.Context, id int64, p UpdateTaskParams) (*Task, error) {
	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
		}
		sets, args = append(sets, "title = ?"), append(args, title)
	}
	if p.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *p.Description)
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, &ValidationError{Field: "status", Reason: "must be idle, working, or complete"}
		}
		sets, args = append(sets, "status = ?"), append(args, string(*p.Status))
	}
	if p.AssignedTo != nil {
		sets, args = append(sets, "assigned_to = ?"), append(args, *p.AssignedTo)
	}
	if p.Priority != nil {
		sets, args = append(sets, "priority = ?"), append(args, *p.Priority)
	}
	if p.Tags != nil {
		tags, err := encodeTags(p.Tags)
		if err != nil {
			return nil, err
		}
		sets, args = append(sets, "tags = ?"), append(args, tags)
	}
	if len(sets) == 0 {
		return nil, &ValidationError{Field: "update", Reason: "no fields to update"}
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, storage.Now(s.now()), id)

	res, err := s.db.Execute(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, &NotFoundError{Entity: "task", ID: id}
	}
	return s.fetchTask(ctx, &s.db.Runner, id)
}

// DeleteTask hard-deletes a task; comments and links cascade.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.Execute(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "task", ID: id}
	}
	s.log.Debug("task deleted", "id", id)
	return nil
}

// ArchiveTask soft-deletes a task by setting its archive timestamp.
// Archiving an already-archived task fails with AlreadyArchivedError.
func (s *Service) ArchiveTask(ctx context.Context, id int64) (*Task, error) {
	var archived *Task
	err := s.db.Transaction(ctx, func(tx *storage.Runner) error {
		t, err := s.fetchTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if t.Archived() {
			return &AlreadyArchivedError{TaskID: id}
		}
		now := storage.Now(s.now())
		if _, err := tx.Execute(ctx,
			"UPDATE tasks SET archived_at = ?, updated_at = ? WHERE id = ?", now, now, id); err != nil {
			return err
		}
		archived, err = s.fetchTask(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return archived, nil
}

// ListTasks returns tasks matching the filter, newest first. Archived tasks
// are excluded unless explicitly requested.
func (s *Service) ListTasks(ctx context.Context, p ListTasksParams) ([]Task, error) {
	var (
		where []string
		args  []any
	)
	if !p.IncludeArchived {
		where = append(where, "archived_at IS NULL")
	}
	if p.Status != "" {
		if !p.Status.Valid() {
			return nil, &ValidationError{Field: "status", Reason: "must be idle, working, or complete"}
		}
		where, args = append(where, "status = ?"), append(args, string(p.Status))
	}
	if p.AssignedTo != "" {
		where, args = append(where, "assigned_to = ?"), append(args, p.AssignedTo)
	}
	query := "SELECT " + taskColumns + " FROM tasks"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	return s.queryTasks(ctx, &s.db.Runner, query, args...)
}

// Queue returns the agent's active queue: non-archived, non-complete tasks
// assigned to it, ordered by priority descending then creation time
// ascending. This ordering is the contract claim-next-task drains by.
func (s *Service) Queue(ctx context.Context, agent string) ([]Task, error) {
	if agent == "" {
		return nil, &ValidationError{Field: "agent_name", Reason: "must not be empty"}
	}
	return s.queryTasks(ctx, &s.db.Runner, `
		SELECT `+taskColumns+` FROM tasks
		WHERE assigned_to = ? AND status != 'complete' AND archived_at IS NULL
		ORDER BY priority DESC, created_at ASC, id ASC`, agent)
}

// ClaimNext atomically claims the agent's highest-priority idle task: the
// task is selected, flipped to working, and returned with relations, all in
// one transaction. Returns (nil, nil) when no idle task is assigned to the
// agent — "no work" is not an error.
//
// Under concurrent claims for the same agent the transaction's row locking
// serializes the callers: the loser either sees the winner's status update
// or blocks on the write lock until commit and then re-evaluates.
func (s *Service) ClaimNext(ctx context.Context, agent string) (*TaskWithRelations, error) {
	if agent == "" {
		return nil, &ValidationError{Field: "agent_name", Reason: "must not be empty"}
	}
	var claimed *TaskWithRelations
	err := s.db.Transaction(ctx, func(tx *storage.Runner) error {
		// Select and claim in one statement: the subquery and the UPDATE
		// run under the same write lock, so two transactions cannot both
		// observe the same task as idle.
		var id int64
		found, err := tx.QueryOne(ctx, `
			UPDATE tasks SET status = 'working', updated_at = ?
			WHERE id = (
				SELECT id FROM tasks
				WHERE assigned_to = ? AND status = 'idle' AND archived_at IS NULL
				ORDER BY priority DESC, created_at ASC, id ASC
				LIMIT 1
			)
			RETURNING id`, []any{storage.Now(s.now()), agent}, &id)
		if err != nil {
			return err
		}
		if !found {
			return nil // no work available
		}
		claimed, err = s.fetchTaskWithRelations(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if claimed != nil {
		s.log.Debug("task claimed", "id", claimed.ID, "agent", agent)
	}
	return claimed, nil
}

// HandOff atomically transfers a task from currentAgent to newAgent,
// resetting its status to idle and appending the hand-off comment as the
// audit trail. Any validation failure rolls back with no partial mutation.
func (s *Service) HandOff(ctx context.Context, id int64, currentAgent, newAgent, comment string) (*TaskWithRelations, error) {
	if currentAgent == "" {
		return nil, &ValidationError{Field: "current_agent", Reason: "must not be empty"}
	}
	if newAgent == "" {
		return nil, &ValidationError{Field: "new_agent", Reason: "must not be empty"}
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, &ValidationError{Field: "comment", Reason: "must not be empty"}
	}

	var result *TaskWithRelations
	err := s.db.Transaction(ctx, func(tx *storage.Runner) error {
		t, err := s.fetchTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if t.AssignedTo != currentAgent {
			return &OwnershipError{TaskID: id, Expected: currentAgent, Actual: t.AssignedTo}
		}
		if t.Status == StatusComplete {
			return &InvalidStateError{TaskID: id, Status: t.Status}
		}
		now := storage.Now(s.now())
		// A transfer always resets to idle: ready for the new agent to
		// pick up regardless of how far the previous agent got.
		if _, err := tx.Execute(ctx,
			"UPDATE tasks SET assigned_to = ?, status = 'idle', updated_at = ? WHERE id = ?",
			newAgent, now, id); err != nil {
			return err
		}
		if _, err := tx.Execute(ctx,
			"INSERT INTO comments (task_id, content, created_by, created_at) VALUES (?, ?, ?, ?)",
			id, comment, currentAgent, now); err != nil {
			return err
		}
		result, err = s.fetchTaskWithRelations(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("task handed off", "id", id, "from", currentAgent, "to", newAgent)
	return result, nil
}

// ─── Row plumbing ───────────────────────────────────────────────────────────

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", &ValidationError{Field: "tags", Reason: err.Error()}
	}
	return string(b), nil
}

func (s *Service) fetchTask(ctx context.Context, r *storage.Runner, id int64) (*Task, error) {
	var (
		t        Task
		status   string
		tags     string
		archived sql.NullString
	)
	found, err := r.QueryOne(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", []any{id},
		&t.ID, &t.Title, &t.Description, &status, &t.AssignedTo, &t.CreatedBy,
		&t.Priority, &tags, &t.CreatedAt, &t.UpdatedAt, &archived)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NotFoundError{Entity: "task", ID: id}
	}
	t.Status = Status(status)
	if archived.Valid {
		t.ArchivedAt = &archived.String
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		t.Tags = []string{}
	}
	return &t, nil
}

func (s *Service) fetchTaskWithRelations(ctx context.Context, r *storage.Runner, id int64) (*TaskWithRelations, error) {
	t, err := s.fetchTask(ctx, r, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.queryComments(ctx, r, id)
	if err != nil {
		return nil, err
	}
	links, err := s.queryLinks(ctx, r, id)
	if err != nil {
		return nil, err
	}
	return &TaskWithRelations{Task: *t, Comments: comments, Links: links}, nil
}

func (s *Service) queryTasks(ctx context.Context, r *storage.Runner, query string, args ...any) ([]Task, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		var (
			t        Task
			status   string
			tags     string
			archived sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &status, &t.AssignedTo,
			&t.CreatedBy, &t.Priority, &tags, &t.CreatedAt, &t.UpdatedAt, &archived); err != nil {
			return nil, &storage.QueryError{Query: query, Err: err}
		}
		t.Status = Status(status)
		if archived.Valid {
			t.ArchivedAt = &archived.String
		}
		if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
			t.Tags = []string{}
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.QueryError{Query: query, Err: err}
	}
	return tasks, nil
}
