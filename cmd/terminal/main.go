package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/comigor/chatbot-go/internal/app"
	"github.com/comigor/chatbot-go/internal/config"
	"github.com/comigor/chatbot-go/internal/logger"
	"github.com/comigor/chatbot-go/internal/terminal"
)

const msgInterrupted = "Bot: Goodbye! Thanks for chatting!"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Stdin, os.Stdout)
	stop()
	os.Exit(code)
}

// run returns the process exit code. Interrupts, including one during setup,
// end the chat normally.
func run(ctx context.Context, in io.Reader, out io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	// stdout belongs to the conversation
	level := "warn"
	if cfg.Log.Level == "error" {
		level = cfg.Log.Level
	}
	closer := logger.Setup(os.Stderr, logger.Options{
		Level:      level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer closer.Close()

	fmt.Fprintln(out, "Setting up the chatbot...")
	a, err := app.New(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintf(out, "\n\n%s\n", msgInterrupted)
			return 0
		}
		fmt.Fprintf(out, "\nAn error occurred: %v\n", err)
		return 1
	}
	defer a.Close()
	fmt.Fprintln(out, "Chatbot is ready!")

	if err := terminal.New(a.Engine, in, out, a.Recorder()).Run(ctx); err != nil {
		logger.L.Error("terminal loop failed", "error", err)
	}
	return 0
}
