package tools

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/comigor/chatbot-go/internal/logger"
)

// ToolManager manages the available tools
type ToolManager struct {
	tools map[string]Tool
}

// NewToolManager creates a new ToolManager
func NewToolManager() *ToolManager {
	return &ToolManager{
		tools: make(map[string]Tool),
	}
}

// RegisterTool registers a new tool
func (m *ToolManager) RegisterTool(tool Tool) {
	m.tools[tool.Name()] = tool
}

// GetTool retrieves a tool by name
func (m *ToolManager) GetTool(name string) (Tool, error) {
	tool, ok := m.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

// List returns all registered tools sorted by name
func (m *ToolManager) List() []Tool {
	ts := make([]Tool, 0, len(m.tools))
	for _, t := range m.tools {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Name() < ts[j].Name() })
	return ts
}

// Server builds an MCP server exposing every registered tool.
func (m *ToolManager) Server(name, version string) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false))
	for _, t := range m.List() {
		opts := append([]mcp.ToolOption{mcp.WithDescription(t.Description())}, t.Params()...)
		s.AddTool(mcp.NewTool(t.Name(), opts...), handler(t))
	}
	return s
}

// Handler serves the MCP server over streamable HTTP.
func (m *ToolManager) Handler(name, version string) http.Handler {
	return server.NewStreamableHTTPServer(m.Server(name, version))
}

// handler adapts a Tool to mcp-go. Tool failures are reported to the caller
// as error results, not protocol errors.
func handler(t Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger.L.Debug("tool invoked", "tool", t.Name(), "args", req.GetArguments())
		out, err := t.Run(ctx, req)
		if err != nil {
			logger.L.Warn("tool failed", "tool", t.Name(), "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}
