package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/threadline/dm-platform/internal/events"
	"github.com/threadline/dm-platform/internal/model"
	"github.com/threadline/dm-platform/internal/policy"
	"github.com/threadline/dm-platform/internal/store"
	"github.com/threadline/dm-platform/pkg/logger"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) byType(t events.Type) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store     *store.Store
	publisher *capturePublisher
	threads   *ThreadService
	messages  *MessageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "dm.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	pub := &capturePublisher{}
	log := logger.NewNop()
	return &fixture{
		store:     st,
		publisher: pub,
		threads:   NewThreadService(st, pub, nil, log),
		messages:  NewMessageService(st, pub, nil, log),
	}
}

func (f *fixture) seedUser(t *testing.T, id string, admin bool) {
	t.Helper()

	err := f.store.UpsertUser(context.Background(), model.User{
		ID:       id,
		Username: "user-" + id,
		IsAdmin:  admin,
	})
	if err != nil {
		t.Fatalf("seed user %q: %v", id, err)
	}
}

func asUser(id string) policy.Principal {
	return policy.Principal{ID: id}
}

func asAdmin(id string) policy.Principal {
	return policy.Principal{ID: id, Admin: true}
}
