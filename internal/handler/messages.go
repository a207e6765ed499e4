package handler

import (
	"encoding/json"
	"net/http"

	"github.com/threadline/dm-platform/internal/middleware"
	"github.com/threadline/dm-platform/internal/model"
	"github.com/threadline/dm-platform/internal/service"
	"github.com/threadline/dm-platform/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	messages *service.MessageService
	logger   *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		messages: svc,
		logger:   log,
	}
}

// List handles GET /api/v1/messages?thread_id=<id>.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	threadID := r.URL.Query().Get("thread_id")
	if threadID == "" {
		writeError(w, http.StatusBadRequest, "param 'thread_id' must exist")
		return
	}

	messages, err := h.messages.List(ctx, principal, threadID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}

	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		Messages: messages,
		Total:    len(messages),
	})
}

// Create handles POST /api/v1/messages.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	var req model.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateID(req.ThreadID); err != nil {
		writeError(w, http.StatusBadRequest, "thread: "+err.Error())
		return
	}
	if err := middleware.ValidateID(req.SenderID); err != nil {
		writeError(w, http.StatusBadRequest, "sender: "+err.Error())
		return
	}
	if err := middleware.ValidateMessageText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.messages.Create(ctx, principal, &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// MarkRead handles PUT /api/v1/messages/read.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	var req model.MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	count, err := h.messages.MarkRead(ctx, principal, req.MessageIDs)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.MarkReadResponse{
		UpdatedMessagesAmount: count,
	})
}

// UnreadAmount handles POST /api/v1/messages/unread_amount.
func (h *MessageHandler) UnreadAmount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	var req model.UnreadAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateID(req.UserID); err != nil {
		writeError(w, http.StatusBadRequest, "user_id: "+err.Error())
		return
	}

	count, err := h.messages.CountUnread(ctx, principal, req.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.UnreadAmountResponse{
		UserID:               req.UserID,
		UnreadMessagesAmount: count,
	})
}
