// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/threadline/dm-platform/internal/policy"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// PrincipalKey is the context key for the authenticated principal.
	PrincipalKey ContextKey = "principal"
	// UsernameKey is the context key for the principal's username.
	UsernameKey ContextKey = "username"
)

// Claims are the JWT claims issued by the identity service. Subject is
// the user id.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// Auth creates JWT authentication middleware. Tokens must be HMAC-signed
// by the identity service with the shared secret.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header format"}`, http.StatusUnauthorized)
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			principal := policy.Principal{
				ID:    claims.Subject,
				Admin: claims.Admin,
			}
			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			ctx = context.WithValue(ctx, UsernameKey, claims.Username)

			// Surface the principal to the request logger upstream.
			if h, ok := ctx.Value(principalHolderKey).(*principalHolder); ok {
				h.principal = principal
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal gets the authenticated principal from context.
func GetPrincipal(ctx context.Context) policy.Principal {
	if v := ctx.Value(PrincipalKey); v != nil {
		return v.(policy.Principal)
	}
	return policy.Principal{}
}

// GetUsername gets the principal's username from context.
func GetUsername(ctx context.Context) string {
	if v := ctx.Value(UsernameKey); v != nil {
		return v.(string)
	}
	return ""
}
