package task

import "fmt"

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string // "task", "comment", "link"
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// OwnershipError reports a hand-off attempted by an agent that does not
// currently own the task.
type OwnershipError struct {
	TaskID   int64
	Expected string
	Actual   string
}

func (e *OwnershipError) Error() string {
	actual := e.Actual
	if actual == "" {
		actual = "no one"
	}
	return fmt.Sprintf("task %d is not assigned to %q (currently assigned to %s)",
		e.TaskID, e.Expected, actual)
}

// InvalidStateError reports an operation attempted against a task whose
// state forbids it, such as transferring a completed task.
type InvalidStateError struct {
	TaskID int64
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("task %d is %s and cannot be transferred", e.TaskID, e.Status)
}

// AlreadyArchivedError reports an archive of a task that is already archived.
type AlreadyArchivedError struct {
	TaskID int64
}

func (e *AlreadyArchivedError) Error() string {
	return fmt.Sprintf("task %d is already archived", e.TaskID)
}

// ValidationError reports malformed input to a domain operation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
