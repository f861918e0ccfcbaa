package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tool is the interface for all tools
type Tool interface {
	Name() string
	Description() string
	// Params declares the tool's input schema.
	Params() []mcp.ToolOption
	Run(ctx context.Context, req mcp.CallToolRequest) (string, error)
}
