package common

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorResult flattens err into the error result returned to the caller.
// Domain failures never surface as Go errors from a tool handler.
func ErrorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("Error: " + err.Error())
}
