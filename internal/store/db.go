// Package store persists users, threads, and messages in sqlite.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS users (
  id       TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  is_admin INTEGER NOT NULL DEFAULT 0
);
`,
	`
CREATE TABLE IF NOT EXISTS threads (
  id         TEXT PRIMARY KEY,
  user_a     TEXT NOT NULL REFERENCES users(id),
  user_b     TEXT NOT NULL REFERENCES users(id),
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL,
  CHECK (user_a < user_b)
);
`,
	`
CREATE UNIQUE INDEX IF NOT EXISTS idx_threads_pair ON threads(user_a, user_b);
`,
	`
CREATE TABLE IF NOT EXISTS thread_participants (
  thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
  user_id   TEXT NOT NULL REFERENCES users(id),
  PRIMARY KEY (thread_id, user_id)
);
`,
	`
CREATE TABLE IF NOT EXISTS messages (
  id         TEXT PRIMARY KEY,
  thread_id  TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
  sender_id  TEXT NOT NULL REFERENCES users(id),
  body       TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  is_read    INTEGER NOT NULL DEFAULT 0
);
`,
	`
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, created_at);
`,
	`
CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(thread_id, is_read) WHERE is_read = 0;
`,
}

// Store wraps the sqlite database handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at path and applies
// the schema migrations in order.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable sqlite WAL: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply migration %d: %w", i, err)
		}
	}

	return &Store{db: db}, nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
