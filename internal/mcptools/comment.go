package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agentboard/agentboard/internal/task"
)

// AddCommentTool appends a comment to a task.
type AddCommentTool struct {
	svc *task.Service
}

func NewAddCommentTool(svc *task.Service) *AddCommentTool { return &AddCommentTool{svc: svc} }

func (t *AddCommentTool) Definition() mcp.Tool {
	return mcp.NewTool("add_comment",
		mcp.WithDescription("Add a comment to a task."),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("ID of the task to comment on"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Comment text"),
		),
		mcp.WithString("created_by",
			mcp.Description("Agent name writing the comment"),
		),
	)
}

func (t *AddCommentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "task_id")
	if id <= 0 {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}
	c, err := t.svc.AddComment(ctx, id, content, req.GetString("created_by", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(c), nil
}

// UpdateCommentTool replaces a comment's content.
type UpdateCommentTool struct {
	svc *task.Service
}

func NewUpdateCommentTool(svc *task.Service) *UpdateCommentTool { return &UpdateCommentTool{svc: svc} }

func (t *UpdateCommentTool) Definition() mcp.Tool {
	return mcp.NewTool("update_comment",
		mcp.WithDescription("Replace the content of an existing comment."),
		mcp.WithNumber("comment_id",
			mcp.Required(),
			mcp.Description("ID of the comment to update"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("New comment text"),
		),
	)
}

func (t *UpdateCommentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "comment_id")
	if id <= 0 {
		return mcp.NewToolResultError("'comment_id' is required"), nil
	}
	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}
	c, err := t.svc.UpdateComment(ctx, id, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(c), nil
}

// DeleteCommentTool removes a comment.
type DeleteCommentTool struct {
	svc *task.Service
}

func NewDeleteCommentTool(svc *task.Service) *DeleteCommentTool { return &DeleteCommentTool{svc: svc} }

func (t *DeleteCommentTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_comment",
		mcp.WithDescription("Delete a comment."),
		mcp.WithNumber("comment_id",
			mcp.Required(),
			mcp.Description("ID of the comment to delete"),
		),
	)
}

func (t *DeleteCommentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "comment_id")
	if id <= 0 {
		return mcp.NewToolResultError("'comment_id' is required"), nil
	}
	if err := t.svc.DeleteComment(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Comment %d deleted", id)), nil
}

// ListCommentsTool lists a task's comments oldest first.
type ListCommentsTool struct {
	svc *task.Service
}

func NewListCommentsTool(svc *task.Service) *ListCommentsTool { return &ListCommentsTool{svc: svc} }

func (t *ListCommentsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_comments",
		mcp.WithDescription("List a task's comments, oldest first."),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("ID of the task"),
		),
	)
}

func (t *ListCommentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "task_id")
	if id <= 0 {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	comments, err := t.svc.ListComments(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(comments), nil
}
