package mcpserver

import (
	"fmt"

	"battle-companion/internal/battle"

	"github.com/mark3labs/mcp-go/mcp"
)

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

func toolError(code, message string) *mcp.CallToolResult {
	result := mcp.NewToolResultStructured(
		map[string]any{
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		},
		fmt.Sprintf("%s: %s", code, message),
	)
	result.IsError = true
	return result
}

func battleError(err error) *mcp.CallToolResult {
	if err == nil {
		return toolError("internal_error", "unknown battle error")
	}
	return toolError(battle.ErrorCode(err), err.Error())
}
