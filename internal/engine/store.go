package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Statement is one known utterance. InResponseTo holds the text it answers,
// empty for conversation openers.
type Statement struct {
	ID           int64
	Text         string
	SearchText   string
	InResponseTo string
	Occurrence   int
	CreatedAt    time.Time
}

// Storage is the read side of the statement store used by strategies.
type Storage interface {
	// KnownStatements lists distinct statements that have at least one
	// response, in training order.
	KnownStatements(ctx context.Context) ([]Statement, error)
	// Responses lists statements given in response to text, most frequent first.
	Responses(ctx context.Context, text string) ([]Statement, error)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS statements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		search_text TEXT NOT NULL,
		in_response_to TEXT NOT NULL DEFAULT '',
		occurrence INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		UNIQUE (text, in_response_to)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_statements_in_response_to ON statements (in_response_to);`,
}

// Store keeps statements in a SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (creating if needed) the SQLite file at path and ensures the schema.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("engine: create storage dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("engine: open storage: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("engine: create schema: %w", err)
		}
	}
	return nil
}

// Path returns the storage file location.
func (s *Store) Path() string { return s.path }

// Train stores every conversation as a chain: each line is recorded in
// response to the one before it. Pairs seen before have their occurrence
// bumped instead of being duplicated.
func (s *Store) Train(ctx context.Context, conversations [][]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("engine: begin training: %w", err)
	}
	defer tx.Rollback()

	insert, err := tx.PrepareContext(ctx, `INSERT INTO statements (text, search_text, in_response_to, occurrence, created_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (text, in_response_to) DO UPDATE SET occurrence = occurrence + 1;`)
	if err != nil {
		return fmt.Errorf("engine: prepare training: %w", err)
	}
	defer insert.Close()

	now := time.Now().UTC()
	for _, conversation := range conversations {
		previous := ""
		for _, text := range conversation {
			if text == "" {
				continue
			}
			if _, err := insert.ExecContext(ctx, text, normalize(text), previous, now); err != nil {
				return fmt.Errorf("engine: train %q: %w", text, err)
			}
			previous = text
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("engine: commit training: %w", err)
	}
	return nil
}

// KnownStatements implements Storage.
func (s *Store) KnownStatements(ctx context.Context) ([]Statement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT s.id, s.text, s.search_text, s.in_response_to, s.occurrence, s.created_at
		FROM statements s
		WHERE s.id IN (SELECT MIN(id) FROM statements GROUP BY text)
		  AND EXISTS (SELECT 1 FROM statements r WHERE r.in_response_to = s.text)
		ORDER BY s.id ASC;`)
	if err != nil {
		return nil, fmt.Errorf("engine: query known statements: %w", err)
	}
	return scanStatements(rows)
}

// Responses implements Storage.
func (s *Store) Responses(ctx context.Context, text string) ([]Statement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, search_text, in_response_to, occurrence, created_at
		FROM statements WHERE in_response_to = ? ORDER BY occurrence DESC, id ASC;`, text)
	if err != nil {
		return nil, fmt.Errorf("engine: query responses: %w", err)
	}
	return scanStatements(rows)
}

// Count returns the number of stored statements.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM statements;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("engine: count statements: %w", err)
	}
	return n, nil
}

// Drop removes every statement and recreates an empty schema.
func (s *Store) Drop(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS statements;`); err != nil {
		return fmt.Errorf("engine: drop statements: %w", err)
	}
	return s.ensureSchema(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanStatements(rows *sql.Rows) ([]Statement, error) {
	defer rows.Close()
	var out []Statement
	for rows.Next() {
		var st Statement
		if err := rows.Scan(&st.ID, &st.Text, &st.SearchText, &st.InResponseTo, &st.Occurrence, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("engine: scan statement: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("engine: iterate statements: %w", err)
	}
	return out, nil
}
