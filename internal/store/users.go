package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/threadline/dm-platform/internal/model"
)

// UpsertUser syncs a user reference from the identity service. Accounts are
// owned externally; this only records the id, username, and admin flag so
// foreign keys and existence checks can resolve.
func (s *Store) UpsertUser(ctx context.Context, u model.User) error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	if u.Username == "" {
		return errors.New("username is required")
	}

	query := `INSERT INTO users (id, username, is_admin) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, is_admin = excluded.is_admin`
	if _, err := s.db.ExecContext(ctx, query, u.ID, u.Username, boolToInt(u.IsAdmin)); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UserExists reports whether a user with the given id is known.
func (s *Store) UserExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query user: %w", err)
	}
	return true, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
