package store

import (
	"context"
	"testing"
	"time"
)

func TestCreateMessageTouchesThread(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustSyncUser(t, s, "alice", false)
	mustSyncUser(t, s, "bob", false)

	th := mustCreateThread(t, s, "t1", "alice", "bob")
	before, err := s.GetThread(ctx, th.ID)
	if err != nil {
		t.Fatalf("get thread: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	mustCreateMessage(t, s, "m1", th.ID, "alice", "hello")

	after, err := s.GetThread(ctx, th.ID)
	if err != nil {
		t.Fatalf("get thread: %v", err)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("updated_at not touched: before=%v after=%v", before.UpdatedAt, after.UpdatedAt)
	}

	msgs, err := s.ListMessages(ctx, th.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].IsRead {
		t.Fatalf("expected 1 unread message, got %+v", msgs)
	}
}

func TestGetMessageFacts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustSyncUser(t, s, "alice", false)
	mustSyncUser(t, s, "bob", false)

	th := mustCreateThread(t, s, "t1", "alice", "bob")
	mustCreateMessage(t, s, "m1", th.ID, "alice", "hello")
	mustCreateMessage(t, s, "m2", th.ID, "bob", "hi")

	facts, err := s.GetMessageFacts(ctx, []string{"m1", "m2", "missing"})
	if err != nil {
		t.Fatalf("get message facts: %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("expected 2 facts (missing id skipped), got %d", len(facts))
	}
	if got := facts[0].ThreadParticipants; len(got) != 2 {
		t.Fatalf("expected thread participants on facts, got %v", got)
	}
}

func TestMarkMessagesRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustSyncUser(t, s, "alice", false)
	mustSyncUser(t, s, "bob", false)

	th := mustCreateThread(t, s, "t1", "alice", "bob")
	mustCreateMessage(t, s, "m1", th.ID, "alice", "one")
	mustCreateMessage(t, s, "m2", th.ID, "alice", "two")

	n, err := s.MarkMessagesRead(ctx, []string{"m1", "m2"})
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n != 2 {
		t.Fatalf("marked %d messages, want 2", n)
	}

	msgs, err := s.ListMessages(ctx, th.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	for _, m := range msgs {
		if !m.IsRead {
			t.Fatalf("message %q still unread", m.ID)
		}
	}
}

func TestCountUnread(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"alice", "bob", "carol"} {
		mustSyncUser(t, s, id, false)
	}

	ab := mustCreateThread(t, s, "t1", "alice", "bob")
	ac := mustCreateThread(t, s, "t2", "alice", "carol")

	mustCreateMessage(t, s, "m1", ab.ID, "bob", "for alice")
	mustCreateMessage(t, s, "m2", ac.ID, "carol", "for alice too")
	mustCreateMessage(t, s, "m3", ab.ID, "alice", "authored by alice, not counted")

	// Unscoped: both incoming unread messages count, alice's own does not.
	n, err := s.CountUnread(ctx, "alice", "")
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if n != 2 {
		t.Fatalf("unscoped unread = %d, want 2", n)
	}

	// Scoped to bob: only the shared thread's message counts.
	n, err = s.CountUnread(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("count unread scoped: %v", err)
	}
	if n != 1 {
		t.Fatalf("scoped unread = %d, want 1", n)
	}

	// Read messages stop counting.
	if _, err := s.MarkMessagesRead(ctx, []string{"m1"}); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	n, err = s.CountUnread(ctx, "alice", "")
	if err != nil {
		t.Fatalf("count unread after read: %v", err)
	}
	if n != 1 {
		t.Fatalf("unread after marking = %d, want 1", n)
	}
}
