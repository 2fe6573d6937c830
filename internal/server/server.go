// Package server wires the MCP components and builds protocol handler
// instances.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools that depend on them. No business logic lives
// here — only wiring.
//
// Handlers are built per session, never shared. The protocol library keeps
// request-correlation bookkeeping on the handler instance, so one handler
// serving two concurrent clients would corrupt that bookkeeping. Every
// handler from the same Factory shares the one stateless task.Service.
package server

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/agentboard/agentboard/internal/mcptools"
	"github.com/agentboard/agentboard/internal/prompts"
	"github.com/agentboard/agentboard/internal/resources"
	"github.com/agentboard/agentboard/internal/task"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Factory builds one isolated protocol handler per client session.
type Factory struct {
	tasks *task.Service
	log   *slog.Logger
}

// NewFactory creates a Factory bound to the shared domain service.
func NewFactory(tasks *task.Service, log *slog.Logger) *Factory {
	return &Factory{tasks: tasks, log: log}
}

// catalog returns the full operation set wired to the shared service.
// The composite operations (signup_for_task, move_task) sit alongside
// plain CRUD as first-class catalog members.
func (f *Factory) catalog() []struct {
	def    mcp.Tool
	handle mcpserver.ToolHandlerFunc
} {
	type entry = struct {
		def    mcp.Tool
		handle mcpserver.ToolHandlerFunc
	}

	createTask := mcptools.NewCreateTaskTool(f.tasks)
	updateTask := mcptools.NewUpdateTaskTool(f.tasks)
	getTask := mcptools.NewGetTaskTool(f.tasks)
	deleteTask := mcptools.NewDeleteTaskTool(f.tasks)
	archiveTask := mcptools.NewArchiveTaskTool(f.tasks)
	listTasks := mcptools.NewListTasksTool(f.tasks)
	queue := mcptools.NewQueueTool(f.tasks)
	signup := mcptools.NewSignupTool(f.tasks)
	move := mcptools.NewMoveTool(f.tasks)
	addComment := mcptools.NewAddCommentTool(f.tasks)
	updateComment := mcptools.NewUpdateCommentTool(f.tasks)
	deleteComment := mcptools.NewDeleteCommentTool(f.tasks)
	listComments := mcptools.NewListCommentsTool(f.tasks)
	addLink := mcptools.NewAddLinkTool(f.tasks)
	updateLink := mcptools.NewUpdateLinkTool(f.tasks)
	deleteLink := mcptools.NewDeleteLinkTool(f.tasks)
	listLinks := mcptools.NewListLinksTool(f.tasks)

	return []entry{
		{createTask.Definition(), createTask.Handle},
		{updateTask.Definition(), updateTask.Handle},
		{getTask.Definition(), getTask.Handle},
		{deleteTask.Definition(), deleteTask.Handle},
		{archiveTask.Definition(), archiveTask.Handle},
		{listTasks.Definition(), listTasks.Handle},
		{queue.Definition(), queue.Handle},
		{signup.Definition(), signup.Handle},
		{move.Definition(), move.Handle},
		{addComment.Definition(), addComment.Handle},
		{updateComment.Definition(), updateComment.Handle},
		{deleteComment.Definition(), deleteComment.Handle},
		{listComments.Definition(), listComments.Handle},
		{addLink.Definition(), addLink.Handle},
		{updateLink.Definition(), updateLink.Handle},
		{deleteLink.Definition(), deleteLink.Handle},
		{listLinks.Definition(), listLinks.Handle},
	}
}

// Operations returns the static metadata for every supported operation.
func (f *Factory) Operations() []mcp.Tool {
	entries := f.catalog()
	defs := make([]mcp.Tool, 0, len(entries))
	for _, e := range entries {
		defs = append(defs, e.def)
	}
	return defs
}

// NewHandler constructs a fresh protocol handler with the full catalog
// registered. Each call returns an independent instance.
func (f *Factory) NewHandler() *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(
		"agentboard",
		Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions(serverInstructions()),
	)
	for _, e := range f.catalog() {
		s.AddTool(e.def, e.handle)
	}

	pickup := prompts.NewPickupPrompt()
	s.AddPrompt(pickup.Definition(), pickup.Handle)
	standup := prompts.NewStandupPrompt()
	s.AddPrompt(standup.Definition(), standup.Handle)

	board := resources.NewHandler(f.tasks)
	s.AddResource(board.BoardResource(), board.HandleBoard)
	s.AddResource(board.ArchiveResource(), board.HandleArchive)

	return s
}

func serverInstructions() string {
	return `Agentboard is a shared task board for autonomous agents.

Workflow:
- create_task to put work on the board; assign it with assigned_to.
- get_my_queue to see your pending work, highest priority first.
- signup_for_task to claim your next idle task (it becomes "working").
- move_task to hand a task to another agent with a hand-off note.
- Mark work done by update_task with status "complete", then archive_task.

Comments (add_comment) and links (add_link) attach context to a task and
are returned with it by get_task, signup_for_task, and move_task.`
}
