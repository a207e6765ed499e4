package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/threadline/dm-platform/internal/model"
)

// MessageFacts is a message joined with its owning thread's participants,
// enough to evaluate the read-receipt policy without further lookups.
type MessageFacts struct {
	Message            model.Message
	ThreadParticipants []string
}

// CreateMessage inserts a message and touches the owning thread's
// updated_at in the same transaction.
func (s *Store) CreateMessage(ctx context.Context, m *model.Message) error {
	if m.ThreadID == "" {
		return errors.New("thread id is required")
	}
	if m.SenderID == "" {
		return errors.New("sender id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, thread_id, sender_id, body, created_at, is_read) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.ThreadID, m.SenderID, m.Text, m.CreatedAt, boolToInt(m.IsRead),
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE threads SET updated_at = ? WHERE id = ?`, time.Now().UTC(), m.ThreadID,
	); err != nil {
		return fmt.Errorf("touch thread: %w", err)
	}

	return tx.Commit()
}

// ListMessages returns all messages of a thread ordered by creation time.
func (s *Store) ListMessages(ctx context.Context, threadID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, sender_id, body, created_at, is_read FROM messages
		 WHERE thread_id = ? ORDER BY created_at, id`, threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		var read int
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Text, &m.CreatedAt, &read); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.IsRead = read != 0
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// GetMessageFacts returns the messages matching ids, each joined with its
// thread's participants. Missing ids simply produce fewer rows; callers
// compare lengths to detect them.
func (s *Store) GetMessageFacts(ctx context.Context, ids []string) ([]MessageFacts, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		`SELECT m.id, m.thread_id, m.sender_id, m.body, m.created_at, m.is_read, t.user_a, t.user_b
		 FROM messages m JOIN threads t ON t.id = m.thread_id
		 WHERE m.id IN (%s) ORDER BY m.id`, placeholders(len(ids)),
	)
	rows, err := s.db.QueryContext(ctx, query, toAnySlice(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query messages by id: %w", err)
	}
	defer rows.Close()

	var facts []MessageFacts
	for rows.Next() {
		var f MessageFacts
		var read int
		var userA, userB string
		if err := rows.Scan(
			&f.Message.ID, &f.Message.ThreadID, &f.Message.SenderID, &f.Message.Text,
			&f.Message.CreatedAt, &read, &userA, &userB,
		); err != nil {
			return nil, fmt.Errorf("scan message facts: %w", err)
		}
		f.Message.IsRead = read != 0
		f.ThreadParticipants = []string{userA, userB}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// MarkMessagesRead sets is_read on every message in ids as a single atomic
// update and returns the number of rows updated.
func (s *Store) MarkMessagesRead(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`UPDATE messages SET is_read = 1 WHERE id IN (%s)`, placeholders(len(ids)))
	res, err := tx.ExecContext(ctx, query, toAnySlice(ids)...)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(n), nil
}

// CountUnread counts unread messages in threads the target user
// participates in, excluding messages the target authored. A non-empty
// scopeUserID restricts the count to threads that user also shares.
func (s *Store) CountUnread(ctx context.Context, targetUserID, scopeUserID string) (int, error) {
	query := `SELECT COUNT(*) FROM messages m JOIN threads t ON t.id = m.thread_id
		WHERE m.is_read = 0 AND m.sender_id != ? AND (t.user_a = ? OR t.user_b = ?)`
	args := []any{targetUserID, targetUserID, targetUserID}
	if scopeUserID != "" {
		query += ` AND (t.user_a = ? OR t.user_b = ?)`
		args = append(args, scopeUserID, scopeUserID)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func scanMessage(row *sql.Row) (*model.Message, error) {
	m := &model.Message{}
	var read int
	err := row.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Text, &m.CreatedAt, &read)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.IsRead = read != 0
	return m, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toAnySlice(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
