package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/threadline/dm-platform/internal/model"
)

// ErrDuplicateThread is returned when a thread for the same participant
// pair already exists. The unique index on the ordered pair makes
// concurrent find-or-create converge on a single row.
var ErrDuplicateThread = errors.New("thread for participant pair already exists")

// OrderPair returns the participant pair in normalized (ascending) order.
func OrderPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// CreateThread inserts a new thread and its participant rows.
func (s *Store) CreateThread(ctx context.Context, t *model.Thread) error {
	if len(t.Participants) != 2 {
		return errors.New("thread requires exactly 2 participants")
	}
	userA, userB := OrderPair(t.Participants[0], t.Participants[1])

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO threads (id, user_a, user_b, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, userA, userB, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateThread
		}
		return fmt.Errorf("insert thread: %w", err)
	}

	for _, userID := range []string{userA, userB} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO thread_participants (thread_id, user_id) VALUES (?, ?)`,
			t.ID, userID,
		); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}

	return tx.Commit()
}

// FindThreadByParticipants returns the thread whose participant set equals
// exactly {a, b}, or nil if none exists.
func (s *Store) FindThreadByParticipants(ctx context.Context, a, b string) (*model.Thread, error) {
	userA, userB := OrderPair(a, b)
	return s.scanThread(s.db.QueryRowContext(ctx,
		`SELECT id, user_a, user_b, created_at, updated_at FROM threads WHERE user_a = ? AND user_b = ?`,
		userA, userB,
	))
}

// GetThread returns a thread by id, or nil if it does not exist.
func (s *Store) GetThread(ctx context.Context, id string) (*model.Thread, error) {
	return s.scanThread(s.db.QueryRowContext(ctx,
		`SELECT id, user_a, user_b, created_at, updated_at FROM threads WHERE id = ?`, id,
	))
}

// DeleteThread removes a thread. Messages and participant rows cascade.
func (s *Store) DeleteThread(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListThreadsForUser returns all threads the target user participates in,
// ordered by thread id, each annotated with its most recent message. If
// scopeUserID is non-empty, results are restricted to threads that user
// also participates in.
func (s *Store) ListThreadsForUser(ctx context.Context, targetUserID, scopeUserID string) ([]model.Thread, error) {
	query := `SELECT id, user_a, user_b, created_at, updated_at FROM threads WHERE (user_a = ? OR user_b = ?)`
	args := []any{targetUserID, targetUserID}
	if scopeUserID != "" {
		query += ` AND (user_a = ? OR user_b = ?)`
		args = append(args, scopeUserID, scopeUserID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query threads: %w", err)
	}
	defer rows.Close()

	var threads []model.Thread
	for rows.Next() {
		var t model.Thread
		var userA, userB string
		if err := rows.Scan(&t.ID, &userA, &userB, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		t.Participants = []string{userA, userB}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range threads {
		last, err := s.lastMessage(ctx, threads[i].ID)
		if err != nil {
			return nil, err
		}
		threads[i].LastMessage = last
	}
	return threads, nil
}

func (s *Store) lastMessage(ctx context.Context, threadID string) (*model.Message, error) {
	m, err := scanMessage(s.db.QueryRowContext(ctx,
		`SELECT id, thread_id, sender_id, body, created_at, is_read FROM messages
		 WHERE thread_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, threadID,
	))
	if err != nil {
		return nil, fmt.Errorf("query last message: %w", err)
	}
	return m, nil
}

func (s *Store) scanThread(row *sql.Row) (*model.Thread, error) {
	t := &model.Thread{}
	var userA, userB string
	err := row.Scan(&t.ID, &userA, &userB, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan thread: %w", err)
	}
	t.Participants = []string{userA, userB}
	return t, nil
}
