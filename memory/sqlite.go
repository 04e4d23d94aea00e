package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/taskmesh/core"

	_ "modernc.org/sqlite" // cgo-free sqlite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// SQLiteStore persists conversation states as JSON rows in a sqlite
// database, one row per conversation id. The schema is migrated on open.
// updated_at is bookkeeping only; the store itself applies no expiry.
type SQLiteStore struct {
	db *sql.DB
}

var _ core.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path and ensures
// the schema exists. Use ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent conversations.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load implements core.Store. Unknown ids yield a fresh empty state.
func (s *SQLiteStore) Load(ctx context.Context, conversationID string) (core.ConversationState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM conversations WHERE id = ?`, conversationID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewConversationState(), nil
	}
	if err != nil {
		return core.ConversationState{}, fmt.Errorf("load conversation %q: %w", conversationID, err)
	}

	var state core.ConversationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return core.ConversationState{}, fmt.Errorf("decode conversation %q: %w", conversationID, err)
	}
	return state, nil
}

// Save implements core.Store.
func (s *SQLiteStore) Save(ctx context.Context, conversationID string, state core.ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode conversation %q: %w", conversationID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		conversationID, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save conversation %q: %w", conversationID, err)
	}
	return nil
}

// Reset implements core.Store. Resetting an unknown id is a no-op.
func (s *SQLiteStore) Reset(ctx context.Context, conversationID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = ?`, conversationID); err != nil {
		return fmt.Errorf("reset conversation %q: %w", conversationID, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
