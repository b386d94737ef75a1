// SQLite conversation storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/richinex/kbagent/llm"
)

// SqliteStorage implements ConversationStorage using SQLite.
// Used as the local memory backend when threads should not leave the machine.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	return newSqliteStorage(db)
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	return newSqliteStorage(db)
}

func newSqliteStorage(db *sql.DB) (*SqliteStorage, error) {
	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			message_index INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE,
			UNIQUE(session_id, message_index)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session
		ON messages(session_id, message_index);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save replaces the conversation history for a session.
func (s *SqliteStorage) Save(ctx context.Context, sessionID string, history []llm.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback after Commit is a no-op
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO sessions (session_id) VALUES (?)",
		sessionID); err != nil {
		return fmt.Errorf("failed to ensure session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear old messages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO messages (session_id, message_index, role, content) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, msg := range history {
		if _, err := stmt.ExecContext(ctx, sessionID, i, msg.Role, msg.Content); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE sessions SET updated_at = datetime('now') WHERE session_id = ?",
		sessionID); err != nil {
		return fmt.Errorf("failed to update session timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load loads conversation history for a session.
// Returns empty slice if session doesn't exist.
func (s *SqliteStorage) Load(ctx context.Context, sessionID string) ([]llm.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content FROM messages WHERE session_id = ? ORDER BY message_index ASC",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []llm.ChatMessage{}
	for rows.Next() {
		var msg llm.ChatMessage
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

// Delete deletes a session and its messages.
func (s *SqliteStorage) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSessions lists all session IDs, most recently updated first.
func (s *SqliteStorage) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id FROM sessions ORDER BY updated_at DESC, session_id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var sessionID string
		if err := rows.Scan(&sessionID); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sessionID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

// Exists checks if a session exists.
func (s *SqliteStorage) Exists(ctx context.Context, sessionID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE session_id = ?",
		sessionID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return count > 0, nil
}

// Verify SqliteStorage implements ConversationStorage
var _ ConversationStorage = (*SqliteStorage)(nil)
