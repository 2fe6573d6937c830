package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agentboard/agentboard/internal/task"
)

// CreateTaskTool creates a new task on the board.
type CreateTaskTool struct {
	svc *task.Service
}

func NewCreateTaskTool(svc *task.Service) *CreateTaskTool { return &CreateTaskTool{svc: svc} }

func (t *CreateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("create_task",
		mcp.WithDescription("Create a new task. Returns the created task as JSON."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short task title"),
		),
		mcp.WithString("description",
			mcp.Description("Longer free-form description"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status: idle (default), working, or complete"),
			mcp.Enum("idle", "working", "complete"),
		),
		mcp.WithString("assigned_to",
			mcp.Description("Agent name this task is assigned to"),
		),
		mcp.WithString("created_by",
			mcp.Description("Agent name creating the task"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Numeric priority; higher is more important (default 0)"),
		),
		mcp.WithArray("tags",
			mcp.Description("Ordered list of tag strings"),
			mcp.Items(stringItems()),
		),
	)
}

func (t *CreateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	created, err := t.svc.CreateTask(ctx, task.CreateTaskParams{
		Title:       title,
		Description: req.GetString("description", ""),
		Status:      task.Status(req.GetString("status", "")),
		AssignedTo:  req.GetString("assigned_to", ""),
		CreatedBy:   req.GetString("created_by", ""),
		Priority:    intArg(req, "priority", 0),
		Tags:        stringListArg(req, "tags"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(created), nil
}

// UpdateTaskTool applies a partial update to a task.
type UpdateTaskTool struct {
	svc *task.Service
}

func NewUpdateTaskTool(svc *task.Service) *UpdateTaskTool { return &UpdateTaskTool{svc: svc} }

func (t *UpdateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("update_task",
		mcp.WithDescription("Update fields of an existing task. Omitted fields are left unchanged."),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("ID of the task to update"),
		),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum("idle", "working", "complete"),
		),
		mcp.WithString("assigned_to", mcp.Description("New assignee agent name")),
		mcp.WithNumber("priority", mcp.Description("New priority")),
		mcp.WithArray("tags",
			mcp.Description("Replacement tag list"),
			mcp.Items(stringItems()),
		),
	)
}

func (t *UpdateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "task_id")
	if id <= 0 {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	var p task.UpdateTaskParams
	args := req.GetArguments()
	if _, ok := args["title"]; ok {
		v := req.GetString("title", "")
		p.Title = &v
	}
	if _, ok := args["description"]; ok {
		v := req.GetString("description", "")
		p.Description = &v
	}
	if _, ok := args["status"]; ok {
		v := task.Status(req.GetString("status", ""))
		p.Status = &v
	}
	if _, ok := args["assigned_to"]; ok {
		v := req.GetString("assigned_to", "")
		p.AssignedTo = &v
	}
	if _, ok := args["priority"]; ok {
		v := intArg(req, "priority", 0)
		p.Priority = &v
	}
	if tags := stringListArg(req, "tags"); tags != nil {
		p.Tags = tags
	}
	updated, err := t.svc.UpdateTask(ctx, id, p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(updated), nil
}

// GetTaskTool fetches a task with its comments and links.
type GetTaskTool struct {
	svc *task.Service
}

func NewGetTaskTool(svc *task.Service) *GetTaskTool { return &GetTaskTool{svc: svc} }

func (t *GetTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("get_task",
		mcp.WithDescription("Get a task by ID, including its comments and links."),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("ID of the task"),
		),
	)
}

func (t *GetTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "task_id")
	if id <= 0 {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	got, err := t.svc.GetTask(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(got), nil
}

// DeleteTaskTool hard-deletes a task and its comments/links.
type DeleteTaskTool struct {
	svc *task.Service
}

func NewDeleteTaskTool(svc *task.Service) *DeleteTaskTool { return &DeleteTaskTool{svc: svc} }

func (t *DeleteTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_task",
		mcp.WithDescription("Permanently delete a task. Comments and links are deleted with it."),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("ID of the task to delete"),
		),
	)
}

func (t *DeleteTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "task_id")
	if id <= 0 {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	if err := t.svc.DeleteTask(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task %d deleted", id)), nil
}

// ArchiveTaskTool soft-deletes a task.
type ArchiveTaskTool struct {
	svc *task.Service
}

func NewArchiveTaskTool(svc *task.Service) *ArchiveTaskTool { return &ArchiveTaskTool{svc: svc} }

func (t *ArchiveTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("archive_task",
		mcp.WithDescription("Archive (soft-delete) a task. Archived tasks are excluded from queues and default listings."),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("ID of the task to archive"),
		),
	)
}

func (t *ArchiveTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "task_id")
	if id <= 0 {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	archived, err := t.svc.ArchiveTask(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(archived), nil
}

// ListTasksTool lists tasks with optional filters.
type ListTasksTool struct {
	svc *task.Service
}

func NewListTasksTool(svc *task.Service) *ListTasksTool { return &ListTasksTool{svc: svc} }

func (t *ListTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks, newest first. Archived tasks are excluded unless include_archived is set."),
		mcp.WithString("status",
			mcp.Description("Filter by status"),
			mcp.Enum("idle", "working", "complete"),
		),
		mcp.WithString("assigned_to",
			mcp.Description("Filter by assignee agent name"),
		),
		mcp.WithBoolean("include_archived",
			mcp.Description("Include archived tasks (default false)"),
		),
	)
}

func (t *ListTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := t.svc.ListTasks(ctx, task.ListTasksParams{
		Status:          task.Status(req.GetString("status", "")),
		AssignedTo:      req.GetString("assigned_to", ""),
		IncludeArchived: boolArg(req, "include_archived", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tasks), nil
}
