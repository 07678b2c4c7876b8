package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed by the store.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Statements run one at a time; the dialect subset here is shared by SQLite and Postgres
var schema = []string{
	`CREATE TABLE IF NOT EXISTS device (
    device_id TEXT PRIMARY KEY,
    auth_token TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS session (
    session_id TEXT PRIMARY KEY,
    admin_player_id TEXT NOT NULL,
    status INTEGER NOT NULL CHECK (status IN (0, 1, 2)),
    created_at TIMESTAMP NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS session_token (
    join_token TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES session(session_id),
    role_id INTEGER NOT NULL CHECK (role_id IN (0, 1, 2))
)`,
	`CREATE INDEX IF NOT EXISTS idx_session_token_session_id ON session_token(session_id)`,
	`CREATE TABLE IF NOT EXISTS session_player (
    player_id TEXT PRIMARY KEY,
    device_id TEXT NOT NULL,
    session_id TEXT NOT NULL REFERENCES session(session_id),
    role_id INTEGER NOT NULL CHECK (role_id IN (0, 1, 2)),
    score INTEGER NOT NULL DEFAULT 0,
    username TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (device_id, session_id, role_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_session_player_session_id ON session_player(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_session_player_device_id ON session_player(device_id)`,
	`CREATE TABLE IF NOT EXISTS session_question (
    question_id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES session(session_id),
    author_player_id TEXT NOT NULL,
    prompt TEXT NOT NULL,
    answer TEXT NOT NULL,
    points INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_session_question_session_id ON session_question(session_id)`,
	`CREATE TABLE IF NOT EXISTS session_answer (
    question_id TEXT NOT NULL REFERENCES session_question(question_id),
    player_id TEXT NOT NULL REFERENCES session_player(player_id),
    answer_text TEXT NOT NULL,
    correct BOOLEAN NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (question_id, player_id)
)`,
}
