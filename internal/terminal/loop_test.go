package terminal

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/comigor/chatbot-go/internal/chatlog"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type echoBot struct {
	asked []string
}

func (b *echoBot) Respond(_ context.Context, text string) string {
	b.asked = append(b.asked, text)
	return "echo: " + text
}

type memRecorder struct {
	sessions []string
	pairs    [][2]string
}

func (r *memRecorder) Record(_ context.Context, sessionID, userMessage, botResponse string) (chatlog.Message, error) {
	r.sessions = append(r.sessions, sessionID)
	r.pairs = append(r.pairs, [2]string{userMessage, botResponse})
	return chatlog.Message{}, nil
}

func run(t *testing.T, input string, rec Recorder) (string, *echoBot) {
	t.Helper()
	bot := &echoBot{}
	var out bytes.Buffer
	require.NoError(t, New(bot, strings.NewReader(input), &out, rec).Run(context.Background()))
	return out.String(), bot
}

func TestRun_Conversation(t *testing.T) {
	out, bot := run(t, "Hello\n   \nHow are you?\nquit\n", nil)

	require.Contains(t, out, "Welcome to Terminal Chatbot!")
	require.Contains(t, out, "Type 'quit', 'exit', or 'bye' to stop chatting")
	require.Contains(t, out, "Bot: echo: Hello\n")
	require.Contains(t, out, "Bot: Please type something!\n")
	require.Contains(t, out, "Bot: echo: How are you?\n")
	require.True(t, strings.HasSuffix(out, "Bot: Goodbye! Have a great day!\n"), out)
	require.Equal(t, []string{"Hello", "How are you?"}, bot.asked)
	require.Equal(t, 4, strings.Count(out, "You: "))
}

func TestRun_ExitWordsAreCaseInsensitive(t *testing.T) {
	for _, word := range []string{"quit", "EXIT", " Bye "} {
		out, bot := run(t, word+"\nHello\n", nil)
		require.Contains(t, out, "Bot: Goodbye! Have a great day!", word)
		require.Empty(t, bot.asked, "nothing after %q may reach the bot", word)
	}
}

func TestRun_EOFFinishes(t *testing.T) {
	out, bot := run(t, "Hello", nil)
	require.Equal(t, []string{"Hello"}, bot.asked)
	require.True(t, strings.HasSuffix(out, "Bot: Goodbye! Have a great day!\n"), out)
}

func TestRun_Interrupt(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bot := &echoBot{}
	var out bytes.Buffer
	require.NoError(t, New(bot, pr, &out, nil).Run(ctx))
	require.Contains(t, out.String(), "Bot: Goodbye! Thanks for chatting!\n")
	require.Empty(t, bot.asked)
}

func TestRun_RecordsUnderOneSession(t *testing.T) {
	rec := &memRecorder{}
	run(t, "Hello\n\nWhat is Go?\nbye\n", rec)

	require.Equal(t, [][2]string{
		{"Hello", "echo: Hello"},
		{"What is Go?", "echo: What is Go?"},
	}, rec.pairs)
	require.Len(t, rec.sessions, 2)
	require.NotEmpty(t, rec.sessions[0])
	require.Equal(t, rec.sessions[0], rec.sessions[1])
}

func TestMachine_Transitions(t *testing.T) {
	l := New(&echoBot{}, strings.NewReader(""), io.Discard, nil)
	fsm := l.machine()
	ctx := context.Background()

	require.NoError(t, fsm.FireCtx(ctx, TriggerInput, "Hello"))
	require.Equal(t, StateResponding, fsm.MustState())
	require.NoError(t, fsm.FireCtx(ctx, TriggerReplied))
	require.Equal(t, StateAwaitingInput, fsm.MustState())
	require.NoError(t, fsm.FireCtx(ctx, TriggerEmpty))
	require.Equal(t, StateAwaitingInput, fsm.MustState())

	// quitting is not allowed mid-response
	require.NoError(t, fsm.FireCtx(ctx, TriggerInput, "Hello"))
	require.Error(t, fsm.FireCtx(ctx, TriggerQuit, msgGoodbye))
}
