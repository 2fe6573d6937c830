package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agentboard/agentboard/internal/task"
)

// QueueTool returns an agent's ordered work queue.
type QueueTool struct {
	svc *task.Service
}

func NewQueueTool(svc *task.Service) *QueueTool { return &QueueTool{svc: svc} }

func (t *QueueTool) Definition() mcp.Tool {
	return mcp.NewTool("get_my_queue",
		mcp.WithDescription("List the agent's active tasks (non-archived, not complete), "+
			"ordered by priority descending then creation time ascending."),
		mcp.WithString("agent_name",
			mcp.Required(),
			mcp.Description("Agent whose queue to return"),
		),
	)
}

func (t *QueueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agent := req.GetString("agent_name", "")
	if agent == "" {
		return mcp.NewToolResultError("'agent_name' is required"), nil
	}
	queue, err := t.svc.Queue(ctx, agent)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(queue), nil
}

// SignupTool is claim-next-task: it atomically claims the agent's
// highest-priority idle task.
type SignupTool struct {
	svc *task.Service
}

func NewSignupTool(svc *task.Service) *SignupTool { return &SignupTool{svc: svc} }

func (t *SignupTool) Definition() mcp.Tool {
	return mcp.NewTool("signup_for_task",
		mcp.WithDescription("Claim the agent's next idle task: the highest-priority one, oldest first "+
			"on ties. The task's status is atomically set to working and the task is returned with "+
			"its comments and links. Returns a no-work notice when the queue has no idle task."),
		mcp.WithString("agent_name",
			mcp.Required(),
			mcp.Description("Agent claiming work"),
		),
	)
}

func (t *SignupTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agent := req.GetString("agent_name", "")
	if agent == "" {
		return mcp.NewToolResultError("'agent_name' is required"), nil
	}
	claimed, err := t.svc.ClaimNext(ctx, agent)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if claimed == nil {
		// No work available is a normal outcome, not an error.
		return mcp.NewToolResultText("No idle tasks available for " + agent), nil
	}
	return jsonResult(claimed), nil
}

// MoveTool is hand-off-task: it atomically transfers a task between agents,
// resets it to idle, and records the hand-off comment.
type MoveTool struct {
	svc *task.Service
}

func NewMoveTool(svc *task.Service) *MoveTool { return &MoveTool{svc: svc} }

func (t *MoveTool) Definition() mcp.Tool {
	return mcp.NewTool("move_task",
		mcp.WithDescription("Hand a task off to another agent. The task must currently be assigned to "+
			"current_agent and must not be complete. Its status is reset to idle and the hand-off "+
			"comment is appended as the audit trail. The whole transfer is atomic."),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("ID of the task to transfer"),
		),
		mcp.WithString("current_agent",
			mcp.Required(),
			mcp.Description("Agent currently assigned to the task"),
		),
		mcp.WithString("new_agent",
			mcp.Required(),
			mcp.Description("Agent to transfer the task to"),
		),
		mcp.WithString("comment",
			mcp.Required(),
			mcp.Description("Hand-off note recorded as a comment by current_agent"),
		),
	)
}

func (t *MoveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "task_id")
	if id <= 0 {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	currentAgent := req.GetString("current_agent", "")
	if currentAgent == "" {
		return mcp.NewToolResultError("'current_agent' is required"), nil
	}
	newAgent := req.GetString("new_agent", "")
	if newAgent == "" {
		return mcp.NewToolResultError("'new_agent' is required"), nil
	}
	comment := req.GetString("comment", "")
	if comment == "" {
		return mcp.NewToolResultError("'comment' is required"), nil
	}
	moved, err := t.svc.HandOff(ctx, id, currentAgent, newAgent, comment)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(moved), nil
}
