// Package mcptools declares the MCP operation catalog for the task board.
//
// Each tool follows the same pattern:
// - A struct holding the injected task.Service
// - Definition() returns the mcp.Tool schema (statically declared)
// - Handle() validates arguments, dispatches to the service, and wraps any
//   domain error into an error result — exceptions never cross the protocol
//   boundary.
package mcptools

import (
	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
)

// int64Arg extracts an integer argument from a tool request, returning 0
// if the key is missing or not a number (JSON numbers are float64).
func int64Arg(req mcp.CallToolRequest, key string) int64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return 0
	}
	return int64(v)
}

// intArg extracts an integer argument with a default.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// stringListArg extracts a string-array argument. Returns nil when the key
// is absent so callers can distinguish "not provided" from "empty list".
func stringListArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// jsonResult marshals v as the tool's text payload.
func jsonResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to encode result: " + err.Error())
	}
	return mcp.NewToolResultText(string(b))
}

// stringItems is the JSON schema for string-array parameters.
func stringItems() map[string]any {
	return map[string]any{"type": "string"}
}
