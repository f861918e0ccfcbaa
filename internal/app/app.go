// Package app holds the state shared by every front end: configuration, the
// trained response engine and the optional chat log.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/comigor/chatbot-go/internal/chatlog"
	"github.com/comigor/chatbot-go/internal/config"
	"github.com/comigor/chatbot-go/internal/engine"
	"github.com/comigor/chatbot-go/internal/llm"
	"github.com/comigor/chatbot-go/internal/logger"
	"github.com/comigor/chatbot-go/internal/web"
	"github.com/comigor/chatbot-go/pkg/tools"
)

// Version is reported by the MCP server.
var Version = "dev"

// App is built once in main and passed to whichever front end runs.
type App struct {
	Config  *config.Config
	Engine  *engine.Engine
	ChatLog *chatlog.Log
}

// New builds and trains the engine and opens the chat log when enabled.
func New(ctx context.Context, cfg *config.Config, opts ...engine.Option) (*App, error) {
	if cfg.LLM.Enabled() {
		opts = append([]engine.Option{engine.WithLLM(llm.NewClient(cfg.LLM), cfg.LLM)}, opts...)
	}

	eng, err := engine.New(cfg.Bot, cfg.Resolve(cfg.Bot.StoragePath), opts...)
	if err != nil {
		return nil, err
	}
	if err := eng.Initialize(ctx); err != nil {
		eng.Close()
		return nil, fmt.Errorf("train chatbot: %w", err)
	}

	a := &App{Config: cfg, Engine: eng}
	if cfg.ChatLog.Enabled {
		log, err := chatlog.Open(ctx, cfg.Resolve(cfg.ChatLog.Path))
		if err != nil {
			eng.Close()
			return nil, err
		}
		a.ChatLog = log
		logger.L.Info("chat log enabled", "path", cfg.Resolve(cfg.ChatLog.Path))
	}
	return a, nil
}

// Recorder returns the chat log as a web.Recorder, or nil when disabled.
func (a *App) Recorder() web.Recorder {
	if a.ChatLog == nil {
		return nil
	}
	return a.ChatLog
}

// Tools registers the bot's MCP tools.
func (a *App) Tools() *tools.ToolManager {
	m := tools.NewToolManager()
	m.RegisterTool(tools.NewRespondTool(a.Engine))
	m.RegisterTool(tools.NewResetTool(a.Engine))
	return m
}

// Handler returns the HTTP surface.
func (a *App) Handler() http.Handler {
	opts := web.Options{
		BotName:  a.Engine.Name(),
		Recorder: a.Recorder(),
	}
	if a.Config.MCP.Enabled {
		opts.MCP = a.Tools().Handler(a.Engine.Name(), Version)
	}
	return web.NewRouter(a.Engine, opts)
}

// Close releases the engine and the chat log.
func (a *App) Close() error {
	var errs []error
	if err := a.Engine.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.ChatLog != nil {
		if err := a.ChatLog.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
