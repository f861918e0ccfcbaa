// Package terminal runs the interactive console chat.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/qmuntal/stateless"

	"github.com/comigor/chatbot-go/internal/chatlog"
	"github.com/comigor/chatbot-go/internal/logger"
)

// Loop states
var (
	StateAwaitingInput stateless.State = "AwaitingInput"
	StateResponding    stateless.State = "Responding"
	StateFinished      stateless.State = "Finished"
)

// Loop triggers
var (
	TriggerInput     stateless.Trigger = "Input"
	TriggerEmpty     stateless.Trigger = "Empty"
	TriggerReplied   stateless.Trigger = "Replied"
	TriggerQuit      stateless.Trigger = "Quit"
	TriggerInterrupt stateless.Trigger = "Interrupt"
)

const (
	msgGoodbye     = "Goodbye! Have a great day!"
	msgInterrupted = "Goodbye! Thanks for chatting!"
	msgEmpty       = "Please type something!"
)

var exitWords = []string{"quit", "exit", "bye"}

// Responder answers a line of input.
type Responder interface {
	Respond(ctx context.Context, text string) string
}

// Recorder persists exchanges.
type Recorder interface {
	Record(ctx context.Context, sessionID, userMessage, botResponse string) (chatlog.Message, error)
}

// Loop reads lines from in and writes the bot's replies to out until the user
// says goodbye, in is exhausted or ctx is cancelled.
type Loop struct {
	bot      Responder
	in       io.Reader
	out      io.Writer
	recorder Recorder
	session  string

	youLabel string
	botLabel string
}

// New creates a loop. recorder may be nil; otherwise the whole run is logged
// under one fresh session.
func New(bot Responder, in io.Reader, out io.Writer, recorder Recorder) *Loop {
	l := &Loop{
		bot:      bot,
		in:       in,
		out:      out,
		recorder: recorder,
		youLabel: color.New(color.FgCyan, color.Bold).Sprint("You:"),
		botLabel: color.New(color.FgGreen, color.Bold).Sprint("Bot:"),
	}
	if recorder != nil {
		l.session = chatlog.NewSessionID()
	}
	return l
}

type readResult struct {
	line string
	eof  bool
}

// Run blocks until the conversation finishes. Cancelling ctx while the loop
// waits for input ends it with a goodbye, not an error.
func (l *Loop) Run(ctx context.Context) error {
	fsm := l.machine()
	l.banner()

	lines := make(chan readResult)
	stop := make(chan struct{})
	defer close(stop)
	go l.read(lines, stop)

	// transitions must complete even after an interrupt
	fireCtx := context.WithoutCancel(ctx)

	for {
		if done, _ := fsm.IsInState(StateFinished); done {
			return nil
		}

		fmt.Fprintf(l.out, "%s ", l.youLabel)

		var res readResult
		select {
		case <-ctx.Done():
			fmt.Fprintln(l.out)
			if err := fsm.FireCtx(fireCtx, TriggerInterrupt, msgInterrupted); err != nil {
				return err
			}
			continue
		case res = <-lines:
		}

		text := strings.TrimSpace(res.line)
		var err error
		switch {
		case res.eof:
			fmt.Fprintln(l.out)
			err = fsm.FireCtx(fireCtx, TriggerQuit, msgGoodbye)
		case slices.Contains(exitWords, strings.ToLower(text)):
			err = fsm.FireCtx(fireCtx, TriggerQuit, msgGoodbye)
		case text == "":
			err = fsm.FireCtx(fireCtx, TriggerEmpty)
		default:
			if err = fsm.FireCtx(ctx, TriggerInput, text); err == nil {
				err = fsm.FireCtx(fireCtx, TriggerReplied)
			}
		}
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
	}
}

func (l *Loop) machine() *stateless.StateMachine {
	fsm := stateless.NewStateMachine(StateAwaitingInput)

	fsm.Configure(StateAwaitingInput).
		Permit(TriggerInput, StateResponding).
		Permit(TriggerQuit, StateFinished).
		Permit(TriggerInterrupt, StateFinished).
		InternalTransition(TriggerEmpty, func(_ context.Context, _ ...any) error {
			l.say(msgEmpty)
			return nil
		})

	fsm.Configure(StateResponding).
		OnEntry(func(ctx context.Context, args ...any) error {
			text := args[0].(string)
			reply := l.bot.Respond(ctx, text)
			l.say(reply)
			l.record(ctx, text, reply)
			return nil
		}).
		Permit(TriggerReplied, StateAwaitingInput)

	fsm.Configure(StateFinished).
		OnEntry(func(_ context.Context, args ...any) error {
			l.say(args[0].(string))
			return nil
		})

	return fsm
}

func (l *Loop) banner() {
	line := strings.Repeat("=", 50)
	fmt.Fprintf(l.out, "\n%s\n", line)
	fmt.Fprintln(l.out, "Welcome to Terminal Chatbot!")
	fmt.Fprintln(l.out, "Type 'quit', 'exit', or 'bye' to stop chatting")
	fmt.Fprintln(l.out, line)
}

func (l *Loop) say(text string) {
	fmt.Fprintf(l.out, "%s %s\n", l.botLabel, text)
}

func (l *Loop) record(ctx context.Context, text, reply string) {
	if l.recorder == nil {
		return
	}
	if _, err := l.recorder.Record(context.WithoutCancel(ctx), l.session, text, reply); err != nil {
		logger.L.Warn("failed to record chat message", "error", err, "session", l.session)
	}
}

func (l *Loop) read(lines chan<- readResult, stop <-chan struct{}) {
	sc := bufio.NewScanner(l.in)
	for sc.Scan() {
		select {
		case lines <- readResult{line: sc.Text()}:
		case <-stop:
			return
		}
	}
	if err := sc.Err(); err != nil {
		logger.L.Warn("read stdin error", "error", err)
	}
	select {
	case lines <- readResult{eof: true}:
	case <-stop:
	}
}
