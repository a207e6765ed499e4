package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the name of the direct-messaging events stream.
	StreamName = "DIRECT_MESSAGES"

	// SubjectPrefix is the prefix for all direct-messaging subjects.
	SubjectPrefix = "dm"
)

// Type identifies a domain event.
type Type string

const (
	TypeThreadCreated  Type = "thread.created"
	TypeThreadDeleted  Type = "thread.deleted"
	TypeMessageCreated Type = "message.created"
	TypeMessagesRead   Type = "messages.read"
)

// Event is the payload published for every domain event.
type Event struct {
	ID           string    `json:"id"`
	Type         Type      `json:"type"`
	ThreadID     string    `json:"thread_id,omitempty"`
	MessageIDs   []string  `json:"message_ids,omitempty"`
	Participants []string  `json:"participants,omitempty"`
	ActorID      string    `json:"actor_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Publisher emits domain events. Implementations must be safe for
// concurrent use; publishing is best-effort and must not block requests.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// StreamPublisher publishes events to a JetStream stream.
type StreamPublisher struct {
	client *Client
}

// NewStreamPublisher creates a publisher backed by the given client.
func NewStreamPublisher(client *Client) *StreamPublisher {
	return &StreamPublisher{client: client}
}

// EnsureStream ensures the events stream exists.
func (p *StreamPublisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Direct-messaging thread and message events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Subject returns the subject for an event type.
func Subject(t Type) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, t)
}

// Publish marshals and publishes the event.
func (p *StreamPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.client.JetStream().Publish(ctx, Subject(event.Type), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// NoopPublisher discards events. Used when NATS is not configured.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(ctx context.Context, event Event) error {
	return nil
}
