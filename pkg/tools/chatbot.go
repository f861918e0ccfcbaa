package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Responder answers a message.
type Responder interface {
	Respond(ctx context.Context, text string) string
}

// Resetter wipes and retrains the bot.
type Resetter interface {
	Reset(ctx context.Context) bool
}

var (
	ErrNoMessage   = errors.New("no message provided")
	ErrResetFailed = errors.New("reset failed")
)

// RespondTool asks the bot for a reply.
type RespondTool struct {
	bot Responder
}

// NewRespondTool creates a new RespondTool
func NewRespondTool(bot Responder) *RespondTool {
	return &RespondTool{bot: bot}
}

// Name returns the name of the tool
func (t *RespondTool) Name() string { return "get_response" }

// Description returns the description of the tool
func (t *RespondTool) Description() string {
	return "Sends a message to the chatbot and returns its reply."
}

func (t *RespondTool) Params() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("message", mcp.Required(), mcp.Description("What to say to the bot")),
	}
}

// Run runs the tool
func (t *RespondTool) Run(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	message := strings.TrimSpace(req.GetString("message", ""))
	if message == "" {
		return "", ErrNoMessage
	}
	return t.bot.Respond(ctx, message), nil
}

// ResetTool wipes learned statements and retrains.
type ResetTool struct {
	bot Resetter
}

// NewResetTool creates a new ResetTool
func NewResetTool(bot Resetter) *ResetTool {
	return &ResetTool{bot: bot}
}

func (t *ResetTool) Name() string { return "reset_bot" }

func (t *ResetTool) Description() string {
	return "Clears the chatbot's storage and retrains it from its corpus."
}

func (t *ResetTool) Params() []mcp.ToolOption { return nil }

func (t *ResetTool) Run(ctx context.Context, _ mcp.CallToolRequest) (string, error) {
	if !t.bot.Reset(ctx) {
		return "", ErrResetFailed
	}
	return "reset ok", nil
}
