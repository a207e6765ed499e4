package service

import (
	"context"
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

// UnreadCache caches unread-count results. A nil cache disables caching.
type UnreadCache interface {
	Get(ctx context.Context, targetUserID, scopeUserID string) (int, bool)
	Set(ctx context.Context, targetUserID, scopeUserID string, count int)
	Invalidate(ctx context.Context, userIDs ...string)
}

// MessageService handles message operations.
type MessageService struct {
	store     *store.Store
	publisher events.Publisher
	cache     UnreadCache
	logger    *logger.Logger
}

// NewMessageService creates a new message service. cache may be nil.
func NewMessageService(st *store.Store, pub events.Publisher, cache UnreadCache, log *logger.Logger) *MessageService {
	return &MessageService{
		store:     st,
		publisher: pub,
		cache:     cache,
		logger:    log,
	}
}

// List returns all messages of a thread the principal may access.
func (s *MessageService) List(ctx context.Context, principal policy.Principal, threadID string) ([]model.Message, error) {
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, &ValidationError{Msg: "thread not found"}
	}

	if !policy.CanAccess(principal, policy.Thread{Participants: thread.Participants}) {
		return nil, &PermissionError{Msg: "not a participant of this thread"}
	}

	return s.store.ListMessages(ctx, threadID)
}

// Create persists a new unread message in the thread, touching the
// thread's updated_at. The declared sender must be a thread participant
// and, unless the principal is admin, the principal themselves.
func (s *MessageService) Create(ctx context.Context, principal policy.Principal, req *model.CreateMessageRequest) (*model.Message, error) {
	thread, err := s.store.GetThread(ctx, req.ThreadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, &ValidationError{Msg: "thread not found"}
	}

	if !participantOf(thread.Participants, req.SenderID) {
		return nil, &ValidationError{Msg: "sender is not participant of this thread"}
	}

	if !policy.CanAccess(principal, policy.MessageCreate{SenderID: req.SenderID}) {
		return nil, &PermissionError{Msg: "cannot send messages as another user"}
	}

	msg := &model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ThreadID:  thread.ID,
		SenderID:  req.SenderID,
		Text:      req.Text,
		CreatedAt: time.Now().UTC(),
		IsRead:    false,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	metrics.MessagesCreated.Inc()
	s.invalidateUnread(ctx, receiversOf(thread.Participants, req.SenderID)...)
	s.publish(ctx, events.Event{
		Type:         events.TypeMessageCreated,
		ThreadID:     thread.ID,
		MessageIDs:   []string{msg.ID},
		Participants: thread.Participants,
		ActorID:      principal.ID,
	})

	return msg, nil
}

// MarkRead marks every message in ids as read and returns the count
// updated. All ids must exist and the principal must be the receiver of
// every message; any failure aborts the whole batch with no update.
func (s *MessageService) MarkRead(ctx context.Context, principal policy.Principal, ids []string) (int, error) {
	unique := dedupe(ids)

	facts, err := s.store.GetMessageFacts(ctx, unique)
	if err != nil {
		return 0, err
	}
	if len(facts) != len(unique) {
		return 0, &ValidationError{Msg: "not all messages exist"}
	}

	affected := make(map[string]struct{})
	for _, f := range facts {
		receipt := policy.ReadReceipt{
			ThreadParticipants: f.ThreadParticipants,
			SenderID:           f.Message.SenderID,
		}
		if !policy.CanMarkRead(principal, receipt) {
			return 0, &PermissionError{Msg: "only the receiver may mark a message read"}
		}
		for _, p := range f.ThreadParticipants {
			affected[p] = struct{}{}
		}
	}

	count, err := s.store.MarkMessagesRead(ctx, unique)
	if err != nil {
		return 0, err
	}

	metrics.MessagesMarkedRead.Add(float64(count))
	s.invalidateUnread(ctx, mapKeys(affected)...)
	if count > 0 {
		s.publish(ctx, events.Event{
			Type:       events.TypeMessagesRead,
			MessageIDs: unique,
			ActorID:    principal.ID,
		})
	}

	return count, nil
}

// CountUnread returns the number of unread messages addressed to the
// target user. Non-admin principals are scoped to threads they share with
// the target; any authenticated principal may query any target.
func (s *MessageService) CountUnread(ctx context.Context, principal policy.Principal, targetUserID string) (int, error) {
	exists, err := s.store.UserExists(ctx, targetUserID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, &ValidationError{Msg: "user not found"}
	}

	scope := ""
	if !principal.Admin {
		scope = principal.ID
	}

	if s.cache != nil {
		if n, ok := s.cache.Get(ctx, targetUserID, scope); ok {
			metrics.UnreadCacheHits.Inc()
			return n, nil
		}
	}

	count, err := s.store.CountUnread(ctx, targetUserID, scope)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, targetUserID, scope, count)
	}
	return count, nil
}

func (s *MessageService) invalidateUnread(ctx context.Context, userIDs ...string) {
	if s.cache == nil || len(userIDs) == 0 {
		return
	}
	s.cache.Invalidate(ctx, userIDs...)
}

func (s *MessageService) publish(ctx context.Context, event events.Event) {
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

func participantOf(participants []string, userID string) bool {
	for _, p := range participants {
		if p == userID {
			return true
		}
	}
	return false
}

func receiversOf(participants []string, senderID string) []string {
	var out []string
	for _, p := range participants {
		if p != senderID {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func mapKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
