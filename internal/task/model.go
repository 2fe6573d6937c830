// Package task implements the domain services for the task board: CRUD over
// tasks, comments, and links, plus the two atomic composite operations
// (claim-next-task and hand-off-task) that make up the assignment state
// machine.
package task

// Status is the lifecycle state of a task.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusWorking  Status = "working"
	StatusComplete Status = "complete"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusWorking, StatusComplete:
		return true
	}
	return false
}

// Task is the primary entity. Optional text attributes use the empty string
// for "unset"; ArchivedAt is nil while the task is active.
type Task struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	AssignedTo  string   `json:"assigned_to,omitempty"`
	CreatedBy   string   `json:"created_by,omitempty"`
	Priority    int      `json:"priority"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	ArchivedAt  *string  `json:"archived_at,omitempty"`
}

// Archived reports whether the task has been soft-deleted.
func (t *Task) Archived() bool { return t.ArchivedAt != nil }

// Comment is owned exclusively by its task and cascades on task delete.
type Comment struct {
	ID        int64  `json:"id"`
	TaskID    int64  `json:"task_id"`
	Content   string `json:"content"`
	CreatedBy string `json:"created_by,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Link is a URL reference attached to a task. The URL is an opaque string,
// not validated as a real URL.
type Link struct {
	ID          int64  `json:"id"`
	TaskID      int64  `json:"task_id"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// TaskWithRelations is a task together with its full comment and link lists,
// both ordered by creation time ascending. This is the shape returned by
// get_task and by both composite operations.
type TaskWithRelations struct {
	Task
	Comments []Comment `json:"comments"`
	Links    []Link    `json:"links"`
}
