package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/threadline/dm-platform/internal/events"
	"github.com/threadline/dm-platform/internal/model"
	"github.com/threadline/dm-platform/internal/policy"
	"github.com/threadline/dm-platform/internal/store"
	"github.com/threadline/dm-platform/pkg/logger"
	"github.com/threadline/dm-platform/pkg/metrics"
)

// ThreadService handles thread operations.
type ThreadService struct {
	store     *store.Store
	publisher events.Publisher
	cache     UnreadCache
	logger    *logger.Logger
}

// NewThreadService creates a new thread service. cache may be nil.
func NewThreadService(st *store.Store, pub events.Publisher, cache UnreadCache, log *logger.Logger) *ThreadService {
	return &ThreadService{
		store:     st,
		publisher: pub,
		cache:     cache,
		logger:    log,
	}
}

// ResolveOrCreate finds the thread for the given participant pair or
// creates it. The returned bool is true when a new thread was created.
func (s *ThreadService) ResolveOrCreate(ctx context.Context, principal policy.Principal, participants []string) (*model.Thread, bool, error) {
	if err := s.validateParticipants(ctx, participants); err != nil {
		return nil, false, err
	}

	existing, err := s.store.FindThreadByParticipants(ctx, participants[0], participants[1])
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if !policy.CanAccess(principal, policy.Thread{Participants: existing.Participants}) {
			return nil, false, &PermissionError{Msg: "not a participant of this thread"}
		}
		return existing, false, nil
	}

	if !policy.CanAccess(principal, policy.ThreadCreate{Participants: participants}) {
		return nil, false, &PermissionError{Msg: "cannot create a thread for other users"}
	}

	now := time.Now().UTC()
	thread := &model.Thread{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.CreateThread(ctx, thread)
	if errors.Is(err, store.ErrDuplicateThread) {
		// Lost the find-or-create race; the unique pair index guarantees
		// a single winner, so read it back.
		winner, ferr := s.store.FindThreadByParticipants(ctx, participants[0], participants[1])
		if ferr != nil {
			return nil, false, ferr
		}
		if winner == nil {
			return nil, false, err
		}
		return winner, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	metrics.ThreadsCreated.Inc()
	s.publish(ctx, events.Event{
		Type:         events.TypeThreadCreated,
		ThreadID:     thread.ID,
		Participants: thread.Participants,
		ActorID:      principal.ID,
	})

	return thread, true, nil
}

// Delete removes the thread for the given participant pair and all of its
// messages.
func (s *ThreadService) Delete(ctx context.Context, principal policy.Principal, participants []string) error {
	if err := s.validateParticipants(ctx, participants); err != nil {
		return err
	}

	thread, err := s.store.FindThreadByParticipants(ctx, participants[0], participants[1])
	if err != nil {
		return err
	}
	if thread == nil {
		return &NotFoundError{Msg: "thread not found"}
	}

	if !policy.CanAccess(principal, policy.Thread{Participants: thread.Participants}) {
		return &PermissionError{Msg: "not a participant of this thread"}
	}

	if err := s.store.DeleteThread(ctx, thread.ID); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}

	// Unread messages went away with the thread.
	s.invalidateUnread(ctx, thread.Participants...)
	s.publish(ctx, events.Event{
		Type:         events.TypeThreadDeleted,
		ThreadID:     thread.ID,
		Participants: thread.Participants,
		ActorID:      principal.ID,
	})

	return nil
}

// ListForUser returns threads the target user participates in, each with
// its last message. Non-admin principals only see threads they share with
// the target.
func (s *ThreadService) ListForUser(ctx context.Context, principal policy.Principal, targetUserID string) ([]model.Thread, error) {
	exists, err := s.store.UserExists(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &ValidationError{Msg: "user not found"}
	}

	scope := ""
	if !principal.Admin {
		scope = principal.ID
	}
	return s.store.ListThreadsForUser(ctx, targetUserID, scope)
}

// validateParticipants enforces the exactly-2-distinct-existing rule shared
// by thread creation and deletion payloads.
func (s *ThreadService) validateParticipants(ctx context.Context, participants []string) error {
	if len(participants) != 2 || participants[0] == participants[1] {
		return &ValidationError{Msg: "thread must include exactly 2 different participants"}
	}
	for _, id := range participants {
		exists, err := s.store.UserExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return &ValidationError{Msg: "user not found"}
		}
	}
	return nil
}

func (s *ThreadService) invalidateUnread(ctx context.Context, userIDs ...string) {
	if s.cache == nil || len(userIDs) == 0 {
		return
	}
	s.cache.Invalidate(ctx, userIDs...)
}

func (s *ThreadService) publish(ctx context.Context, event events.Event) {
	event.ID = uuid.Must(uuid.NewV7()).String()
	event.CreatedAt = time.Now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		metrics.EventPublishFailures.Inc()
		s.logger.Warn("failed to publish event",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
