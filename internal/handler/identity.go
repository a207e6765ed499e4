package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/threadline/dm-platform/internal/middleware"
	"github.com/threadline/dm-platform/internal/model"
	"github.com/threadline/dm-platform/internal/store"
	"github.com/threadline/dm-platform/pkg/logger"
)

// IdentitySync keeps the local user reference table in step with the
// identity asserted by the JWT. Accounts stay owned by the identity
// service; only the id, username, and admin flag are mirrored so foreign
// keys and existence checks can resolve. Must run after Auth.
func IdentitySync(st *store.Store, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := middleware.GetPrincipal(r.Context())
			if principal.ID != "" {
				username := middleware.GetUsername(r.Context())
				if username == "" {
					username = principal.ID
				}
				err := st.UpsertUser(r.Context(), model.User{
					ID:       principal.ID,
					Username: username,
					IsAdmin:  principal.Admin,
				})
				if err != nil {
					log.Warn("identity sync failed",
						zap.String("user_id", principal.ID),
						zap.Error(err),
					)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
