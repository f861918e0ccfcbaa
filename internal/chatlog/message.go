package chatlog

import (
	"fmt"
	"time"
)

// Session groups the messages of one conversation.
type Session struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Session) String() string {
	return fmt.Sprintf("Chat Session %s", s.SessionID)
}

// Message is one user message and the bot's answer. SessionID is nil for
// exchanges recorded outside a session.
type Message struct {
	ID          int64     `json:"id"`
	SessionID   *string   `json:"session_id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Timestamp   time.Time `json:"timestamp"`
}

func (m Message) String() string {
	return fmt.Sprintf("Message at %s", m.Timestamp.Format("2006-01-02 15:04"))
}

const previewLen = 50

// Preview shortens text for listings.
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= previewLen {
		return text
	}
	return string(r[:previewLen]) + "..."
}
