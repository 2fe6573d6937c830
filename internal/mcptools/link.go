package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agentboard/agentboard/internal/task"
)

// AddLinkTool attaches a URL reference to a task.
type AddLinkTool struct {
	svc *task.Service
}

func NewAddLinkTool(svc *task.Service) *AddLinkTool { return &AddLinkTool{svc: svc} }

func (t *AddLinkTool) Definition() mcp.Tool {
	return mcp.NewTool("add_link",
		mcp.WithDescription("Attach a URL reference to a task. The URL is stored as-is, not validated."),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("ID of the task"),
		),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL or reference string"),
		),
		mcp.WithString("description",
			mcp.Description("What the link points at"),
		),
		mcp.WithString("created_by",
			mcp.Description("Agent name adding the link"),
		),
	)
}

func (t *AddLinkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "task_id")
	if id <= 0 {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	url := req.GetString("url", "")
	if url == "" {
		return mcp.NewToolResultError("'url' is required"), nil
	}
	l, err := t.svc.AddLink(ctx, id, url, req.GetString("description", ""), req.GetString("created_by", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(l), nil
}

// UpdateLinkTool applies a partial update to a link.
type UpdateLinkTool struct {
	svc *task.Service
}

func NewUpdateLinkTool(svc *task.Service) *UpdateLinkTool { return &UpdateLinkTool{svc: svc} }

func (t *UpdateLinkTool) Definition() mcp.Tool {
	return mcp.NewTool("update_link",
		mcp.WithDescription("Update a link's URL or description. Omitted fields are left unchanged."),
		mcp.WithNumber("link_id",
			mcp.Required(),
			mcp.Description("ID of the link to update"),
		),
		mcp.WithString("url", mcp.Description("New URL")),
		mcp.WithString("description", mcp.Description("New description")),
	)
}

func (t *UpdateLinkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "link_id")
	if id <= 0 {
		return mcp.NewToolResultError("'link_id' is required"), nil
	}
	var p task.UpdateLinkParams
	args := req.GetArguments()
	if _, ok := args["url"]; ok {
		v := req.GetString("url", "")
		p.URL = &v
	}
	if _, ok := args["description"]; ok {
		v := req.GetString("description", "")
		p.Description = &v
	}
	l, err := t.svc.UpdateLink(ctx, id, p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(l), nil
}

// DeleteLinkTool removes a link.
type DeleteLinkTool struct {
	svc *task.Service
}

func NewDeleteLinkTool(svc *task.Service) *DeleteLinkTool { return &DeleteLinkTool{svc: svc} }

func (t *DeleteLinkTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_link",
		mcp.WithDescription("Delete a link."),
		mcp.WithNumber("link_id",
			mcp.Required(),
			mcp.Description("ID of the link to delete"),
		),
	)
}

func (t *DeleteLinkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "link_id")
	if id <= 0 {
		return mcp.NewToolResultError("'link_id' is required"), nil
	}
	if err := t.svc.DeleteLink(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Link %d deleted", id)), nil
}

// ListLinksTool lists a task's links oldest first.
type ListLinksTool struct {
	svc *task.Service
}

func NewListLinksTool(svc *task.Service) *ListLinksTool { return &ListLinksTool{svc: svc} }

func (t *ListLinksTool) Definition() mcp.Tool {
	return mcp.NewTool("list_links",
		mcp.WithDescription("List a task's links, oldest first."),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("ID of the task"),
		),
	)
}

func (t *ListLinksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "task_id")
	if id <= 0 {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	links, err := t.svc.ListLinks(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(links), nil
}
