// Package prompts implements MCP prompt handlers for the task board.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// PickupPrompt handles the pickup-work MCP prompt.
// It guides the AI to claim and start its next task from the board.
type PickupPrompt struct{}

// NewPickupPrompt creates a PickupPrompt.
func NewPickupPrompt() *PickupPrompt {
	return &PickupPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *PickupPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("pickup-work",
		mcp.WithPromptDescription(
			"Claim your next task from the board and start working on it. "+
				"Reviews your queue, claims the highest-priority idle task, "+
				"and pulls in its comments and links for context.",
		),
		mcp.WithArgument("agent_name",
			mcp.ArgumentDescription("The agent name tasks are assigned to"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the pickup-work prompt request.
func (p *PickupPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	agent := ""
	if args := req.Params.Arguments; args != nil {
		agent = args["agent_name"]
	}
	if agent == "" {
		return nil, fmt.Errorf("agent_name is required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Pick up work for %s", agent),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I am agent '%s'. Please pick up my next piece of work:\n\n"+
						"1. Run `get_my_queue` with agent_name='%s' and show me what's pending\n"+
						"2. Run `signup_for_task` with agent_name='%s' to claim the next idle task\n"+
						"3. Summarize the claimed task, including its comments and links\n"+
						"4. If nothing is available, say so — don't claim work assigned to other agents",
					agent, agent, agent,
				)),
			},
		},
	}, nil
}
