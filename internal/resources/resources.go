// Package resources implements MCP resource handlers for the task board.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (agentboard://...) following MCP conventions.
package resources

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agentboard/agentboard/internal/task"
)

// Handler manages task board resource endpoints.
type Handler struct {
	tasks *task.Service
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(tasks *task.Service) *Handler {
	return &Handler{tasks: tasks}
}

// BoardResource returns the MCP resource definition for the active board.
func (h *Handler) BoardResource() mcp.Resource {
	return mcp.NewResource(
		"agentboard://board",
		"Active Task Board",
		mcp.WithResourceDescription("Every unarchived task with status, assignee, and priority"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleBoard returns the active (unarchived) tasks as JSON.
func (h *Handler) HandleBoard(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	tasks, err := h.tasks.ListTasks(ctx, task.ListTasksParams{})
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, tasks)
}

// ArchiveResource returns the MCP resource definition for archived tasks.
func (h *Handler) ArchiveResource() mcp.Resource {
	return mcp.NewResource(
		"agentboard://board/archive",
		"Archived Tasks",
		mcp.WithResourceDescription("Tasks that have been archived off the active board"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleArchive returns every archived task as JSON.
func (h *Handler) HandleArchive(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	all, err := h.tasks.ListTasks(ctx, task.ListTasksParams{IncludeArchived: true})
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	archived := make([]task.Task, 0, len(all))
	for _, t := range all {
		if t.ArchivedAt != nil {
			archived = append(archived, t)
		}
	}
	return jsonResource(req.Params.URI, archived)
}

// jsonResource marshals v into a single JSON resource content.
func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
