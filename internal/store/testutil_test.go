package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/threadline/dm-platform/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "dm.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close test store: %v", err)
		}
	})
	return s
}

func mustSyncUser(t *testing.T, s *Store, id string, admin bool) {
	t.Helper()

	err := s.UpsertUser(context.Background(), model.User{
		ID:       id,
		Username: "user-" + id,
		IsAdmin:  admin,
	})
	if err != nil {
		t.Fatalf("sync user %q: %v", id, err)
	}
}

func mustCreateThread(t *testing.T, s *Store, id string, participants ...string) *model.Thread {
	t.Helper()

	now := time.Now().UTC()
	th := &model.Thread{
		ID:           id,
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateThread(context.Background(), th); err != nil {
		t.Fatalf("create thread %q: %v", id, err)
	}
	return th
}

func mustCreateMessage(t *testing.T, s *Store, id, threadID, senderID, text string) *model.Message {
	t.Helper()

	m := &model.Message{
		ID:        id,
		ThreadID:  threadID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateMessage(context.Background(), m); err != nil {
		t.Fatalf("create message %q: %v", id, err)
	}
	return m
}
