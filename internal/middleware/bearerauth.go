// Package middleware provides HTTP middlewares for authentication, rate
// limiting and logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/atinyakov/NoteKeeper/internal/service"
)

type ctxKey string

const (
	userKey   ctxKey = "user"
	userIDKey ctxKey = "userID"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*service.Claims, error)
}

// BearerAuth is a middleware that requires an "Authorization: Bearer <token>"
// header.
//
// A request without a token is rejected with 401 Unauthorized; a token that
// fails verification (bad signature, expired, malformed) with 403 Forbidden.
// On success the username and user id from the token are stored in the
// request context for downstream handlers.
func BearerAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			claims, err := verifier.VerifyToken(token)
			if err != nil {
				writeError(w, http.StatusForbidden, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, claims.Username)
			ctx = context.WithValue(ctx, userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetUsernameFromContext returns the authenticated username, or "" if the
// request did not pass BearerAuth.
func GetUsernameFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(userKey).(string); ok {
		return s
	}
	return ""
}

// GetUserIDFromContext returns the authenticated user id, or 0.
func GetUserIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(userIDKey).(int64); ok {
		return id
	}
	return 0
}

// WithUsername returns a copy of ctx carrying username as the authenticated user.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userKey, username)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
