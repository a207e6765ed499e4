// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/threadline/dm-platform/internal/middleware"
	"github.com/threadline/dm-platform/internal/model"
	"github.com/threadline/dm-platform/internal/service"
	"github.com/threadline/dm-platform/pkg/logger"
)

// ThreadHandler handles thread endpoints.
type ThreadHandler struct {
	threads *service.ThreadService
	logger  *logger.Logger
}

// NewThreadHandler creates a new thread handler.
func NewThreadHandler(svc *service.ThreadService, log *logger.Logger) *ThreadHandler {
	return &ThreadHandler{
		threads: svc,
		logger:  log,
	}
}

// ResolveOrCreate handles POST /api/v1/threads. Returns the existing
// thread for the participant pair with 200, or creates it and returns 201.
func (h *ThreadHandler) ResolveOrCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	var req model.ThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, id := range req.Participants {
		if err := middleware.ValidateID(id); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	thread, created, err := h.threads.ResolveOrCreate(ctx, principal, req.Participants)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, thread)
}

// Delete handles DELETE /api/v1/threads. The thread is addressed by its
// participant pair; deletion cascades to its messages.
func (h *ThreadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	var req model.ThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.threads.Delete(ctx, principal, req.Participants); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/threads?user_id=<id>.
func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := middleware.GetPrincipal(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "param 'user_id' must exist")
		return
	}

	threads, err := h.threads.ListForUser(ctx, principal, userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if threads == nil {
		threads = []model.Thread{}
	}

	writeJSON(w, http.StatusOK, &model.ListThreadsResponse{
		Threads: threads,
		Total:   len(threads),
	})
}
