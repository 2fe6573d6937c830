package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StandupPrompt handles the board-standup MCP prompt.
// It instructs the AI to read the board and present its current state.
type StandupPrompt struct{}

// NewStandupPrompt creates a StandupPrompt.
func NewStandupPrompt() *StandupPrompt {
	return &StandupPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StandupPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("board-standup",
		mcp.WithPromptDescription(
			"Summarize the state of the task board. "+
				"Shows what each agent is working on, what's idle, "+
				"and what's blocked or stale.",
		),
	)
}

// Handle processes the board-standup prompt request.
func (p *StandupPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Task Board Standup",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `list_tasks` and give me a standup-style summary of the board.\n\n" +
						"Then:\n" +
						"1. Group tasks by assignee and show each agent's working vs idle items\n" +
						"2. Call out high-priority tasks that nobody has claimed yet\n" +
						"3. Flag tasks that look stale (working for a long time with no recent comments)\n" +
						"4. Suggest which task should be picked up next and by whom",
				),
			},
		},
	}, nil
}
