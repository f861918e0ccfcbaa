// Command chatlog inspects the recorded chat history.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/comigor/chatbot-go/internal/chatlog"
	"github.com/comigor/chatbot-go/internal/config"
)

func main() {
	session := flag.StringP("session", "s", "", "show only this session")
	orphans := flag.Bool("orphans", false, "show messages recorded without a session")
	del := flag.Bool("delete", false, "delete the session given by --session and its messages")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(context.Background(), os.Stdout, *session, *orphans, *del); err != nil {
		fmt.Fprintf(os.Stderr, "chatlog: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, session string, orphans, del bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := chatlog.Open(ctx, cfg.Resolve(cfg.ChatLog.Path))
	if err != nil {
		return err
	}
	defer log.Close()

	switch {
	case del:
		if session == "" {
			return errors.New("--delete requires --session")
		}
		if err := log.DeleteSession(ctx, session); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", session)
		return nil
	case orphans:
		msgs, err := log.Messages(ctx, "")
		if err != nil {
			return err
		}
		printMessages(out, msgs)
		return nil
	case session != "":
		s, err := log.Session(ctx, session)
		if err != nil {
			return err
		}
		return printSession(ctx, out, log, s)
	}

	sessions, err := log.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "no sessions recorded")
	}
	for _, s := range sessions {
		if err := printSession(ctx, out, log, s); err != nil {
			return err
		}
	}
	return nil
}

func printSession(ctx context.Context, out io.Writer, log *chatlog.Log, s chatlog.Session) error {
	msgs, err := log.Messages(ctx, s.SessionID)
	if err != nil {
		return err
	}
	heading := color.New(color.Bold)
	heading.Fprintf(out, "%s (%d messages, updated %s)\n", s, len(msgs), s.UpdatedAt.Format("2006-01-02 15:04"))
	printMessages(out, msgs)
	return nil
}

func printMessages(out io.Writer, msgs []chatlog.Message) {
	for _, m := range msgs {
		fmt.Fprintf(out, "  %s\n    you: %s\n    bot: %s\n", m, chatlog.Preview(m.UserMessage), chatlog.Preview(m.BotResponse))
	}
}
