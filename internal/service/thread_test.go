package service

import (
	"context"
	"errors"
	"testing"

	"github.com/threadline/dm-platform/internal/events"
)

func TestResolveOrCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice", false)
	f.seedUser(t, "bob", false)

	first, created, err := f.threads.ResolveOrCreate(ctx, asUser("alice"), []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if !created {
		t.Fatal("expected first call to create the thread")
	}

	// Same pair in reverse order resolves to the same thread.
	second, created, err := f.threads.ResolveOrCreate(ctx, asUser("bob"), []string{"bob", "alice"})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if created {
		t.Fatal("expected second call to find the existing thread")
	}
	if second.ID != first.ID {
		t.Fatalf("second resolve returned %q, want %q", second.ID, first.ID)
	}

	if got := f.publisher.byType(events.TypeThreadCreated); len(got) != 1 {
		t.Fatalf("expected exactly one thread.created event, got %d", len(got))
	}
}

func TestResolveOrCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice", false)
	f.seedUser(t, "bob", false)

	tests := []struct {
		name         string
		participants []string
	}{
		{"one participant", []string{"alice"}},
		{"three participants", []string{"alice", "bob", "carol"}},
		{"duplicate participant", []string{"alice", "alice"}},
		{"empty", nil},
		{"unknown participant", []string{"alice", "ghost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.threads.ResolveOrCreate(ctx, asUser("alice"), tt.participants)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestResolveOrCreatePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice", false)
	f.seedUser(t, "bob", false)
	f.seedUser(t, "carol", false)

	// A bystander cannot create a thread for other users.
	_, _, err := f.threads.ResolveOrCreate(ctx, asUser("carol"), []string{"alice", "bob"})
	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("bystander create error = %v, want PermissionError", err)
	}

	// An admin can.
	_, created, err := f.threads.ResolveOrCreate(ctx, asAdmin("root"), []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if !created {
		t.Fatal("expected admin to create the thread")
	}

	// A bystander cannot resolve an existing thread either.
	_, _, err = f.threads.ResolveOrCreate(ctx, asUser("carol"), []string{"alice", "bob"})
	if !errors.As(err, &perr) {
		t.Fatalf("bystander resolve error = %v, want PermissionError", err)
	}
}

func TestDeleteThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice", false)
	f.seedUser(t, "bob", false)
	f.seedUser(t, "carol", false)

	pair := []string{"alice", "bob"}
	thread, _, err := f.threads.ResolveOrCreate(ctx, asUser("alice"), pair)
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	if _, err := f.messages.Create(ctx, asUser("alice"), newMessage(thread.ID, "alice", "hi")); err != nil {
		t.Fatalf("create message: %v", err)
	}

	// Outsider cannot delete.
	var perr *PermissionError
	if err := f.threads.Delete(ctx, asUser("carol"), pair); !errors.As(err, &perr) {
		t.Fatalf("outsider delete error = %v, want PermissionError", err)
	}

	// Missing thread is 404.
	var nerr *NotFoundError
	if err := f.threads.Delete(ctx, asUser("carol"), []string{"bob", "carol"}); !errors.As(err, &nerr) {
		t.Fatalf("missing thread delete error = %v, want NotFoundError", err)
	}

	// A participant can delete; messages cascade.
	if err := f.threads.Delete(ctx, asUser("bob"), pair); err != nil {
		t.Fatalf("participant delete: %v", err)
	}
	var verr *ValidationError
	if _, err := f.messages.List(ctx, asUser("alice"), thread.ID); !errors.As(err, &verr) {
		t.Fatalf("list after delete error = %v, want ValidationError", err)
	}
}

func TestAdminDeletesAnyThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice", false)
	f.seedUser(t, "bob", false)

	pair := []string{"alice", "bob"}
	if _, _, err := f.threads.ResolveOrCreate(ctx, asUser("alice"), pair); err != nil {
		t.Fatalf("create thread: %v", err)
	}

	if err := f.threads.Delete(ctx, asAdmin("root"), pair); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestListForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "alice", false)
	f.seedUser(t, "bob", false)
	f.seedUser(t, "carol", false)

	if _, _, err := f.threads.ResolveOrCreate(ctx, asUser("alice"), []string{"alice", "bob"}); err != nil {
		t.Fatalf("create thread ab: %v", err)
	}
	if _, _, err := f.threads.ResolveOrCreate(ctx, asUser("alice"), []string{"alice", "carol"}); err != nil {
		t.Fatalf("create thread ac: %v", err)
	}

	// Unknown target user fails validation.
	var verr *ValidationError
	if _, err := f.threads.ListForUser(ctx, asUser("alice"), "ghost"); !errors.As(err, &verr) {
		t.Fatalf("unknown target error = %v, want ValidationError", err)
	}

	// Admin sees all of alice's threads.
	threads, err := f.threads.ListForUser(ctx, asAdmin("root"), "alice")
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("admin sees %d threads, want 2", len(threads))
	}

	// Bob only sees the thread he shares with alice, whatever target he asks about.
	threads, err = f.threads.ListForUser(ctx, asUser("bob"), "alice")
	if err != nil {
		t.Fatalf("bob list: %v", err)
	}
	if len(threads) != 1 {
		t.Fatalf("bob sees %d threads, want 1", len(threads))
	}
}
