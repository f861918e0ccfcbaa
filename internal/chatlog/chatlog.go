// Package chatlog provides SQLite-based persistence for chat sessions and
// their messages. It is append-only from the caller's side: sessions appear on
// their first message and messages are never updated.
package chatlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("chatlog: session not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS chat_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NULL REFERENCES chat_sessions (id) ON DELETE CASCADE,
		user_message TEXT NOT NULL,
		bot_response TEXT NOT NULL,
		timestamp DATETIME NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages (session_id, timestamp);`,
}

// Log is a chat history backed by a SQLite file.
type Log struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the history database at path.
func Open(ctx context.Context, path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("chatlog: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("chatlog: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("chatlog: create schema: %w", err)
		}
	}

	return &Log{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Record stores one exchange. An empty sessionID stores the message without a
// session; otherwise the session is created on first use and its updated_at
// refreshed.
func (l *Log) Record(ctx context.Context, sessionID, userMessage, botResponse string) (Message, error) {
	now := l.now()
	msg := Message{UserMessage: userMessage, BotResponse: botResponse, Timestamp: now}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Message{}, fmt.Errorf("chatlog: begin: %w", err)
	}
	defer tx.Rollback()

	var sessionRef sql.NullInt64
	if sessionID != "" {
		if _, err := tx.ExecContext(ctx, `INSERT INTO chat_sessions (session_id, created_at, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (session_id) DO UPDATE SET updated_at = excluded.updated_at;`, sessionID, now, now); err != nil {
			return Message{}, fmt.Errorf("chatlog: upsert session: %w", err)
		}
		if err := tx.QueryRowContext(ctx, `SELECT id FROM chat_sessions WHERE session_id = ?;`, sessionID).Scan(&sessionRef.Int64); err != nil {
			return Message{}, fmt.Errorf("chatlog: lookup session: %w", err)
		}
		sessionRef.Valid = true
		msg.SessionID = &sessionID
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO chat_messages (session_id, user_message, bot_response, timestamp) VALUES (?, ?, ?, ?);`,
		sessionRef, userMessage, botResponse, now)
	if err != nil {
		return Message{}, fmt.Errorf("chatlog: insert message: %w", err)
	}
	if msg.ID, err = res.LastInsertId(); err != nil {
		return Message{}, fmt.Errorf("chatlog: message id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Message{}, fmt.Errorf("chatlog: commit: %w", err)
	}
	return msg, nil
}

// Session returns the session with the given identifier.
func (l *Log) Session(ctx context.Context, sessionID string) (Session, error) {
	var s Session
	err := l.db.QueryRowContext(ctx, `SELECT id, session_id, created_at, updated_at FROM chat_sessions WHERE session_id = ?;`, sessionID).
		Scan(&s.ID, &s.SessionID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("chatlog: get session: %w", err)
	}
	return s, nil
}

// Sessions lists every session, newest first.
func (l *Log) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, session_id, created_at, updated_at FROM chat_sessions ORDER BY created_at DESC, id DESC;`)
	if err != nil {
		return nil, fmt.Errorf("chatlog: list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.SessionID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("chatlog: scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Messages returns the messages of a session in chronological order. An empty
// sessionID lists the messages recorded without a session.
func (l *Log) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	query := `SELECT m.id, s.session_id, m.user_message, m.bot_response, m.timestamp
		FROM chat_messages m JOIN chat_sessions s ON s.id = m.session_id
		WHERE s.session_id = ? ORDER BY m.timestamp ASC, m.id ASC;`
	args := []any{sessionID}
	if sessionID == "" {
		query = `SELECT m.id, NULL, m.user_message, m.bot_response, m.timestamp
			FROM chat_messages m WHERE m.session_id IS NULL ORDER BY m.timestamp ASC, m.id ASC;`
		args = nil
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("chatlog: list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var sid sql.NullString
		if err := rows.Scan(&m.ID, &sid, &m.UserMessage, &m.BotResponse, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("chatlog: scan message: %w", err)
		}
		if sid.Valid {
			m.SessionID = &sid.String
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and, by cascade, its messages.
func (l *Log) DeleteSession(ctx context.Context, sessionID string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE session_id = ?;`, sessionID)
	if err != nil {
		return fmt.Errorf("chatlog: delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Close releases the database handle.
func (l *Log) Close() error {
	return l.db.Close()
}
