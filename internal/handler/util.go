package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/threadline/dm-platform/internal/service"
	"github.com/threadline/dm-platform/pkg/logger"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Unclassified errors become opaque 500s with the cause logged.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	var (
		validationErr *service.ValidationError
		permissionErr *service.PermissionError
		notFoundErr   *service.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Msg)
	case errors.As(err, &permissionErr):
		writeError(w, http.StatusForbidden, permissionErr.Msg)
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, notFoundErr.Msg)
	default:
		log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
