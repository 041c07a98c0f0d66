package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/rathod-sahaab/elide/internal/httputil"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "elide_session"

type contextKey string

const (
	userIDContextKey       contextKey = "userID"
	sessionTokenContextKey contextKey = "sessionToken"
)

// GetUserID returns the authenticated user's id from the request context.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDContextKey).(uuid.UUID)
	return id, ok
}

// GetSessionToken returns the raw session token from the request context.
func GetSessionToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(sessionTokenContextKey).(string)
	return token, ok
}

// RequireAuth resolves the session cookie and injects the user id into the
// request context. Requests without a live session get a 401.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		userID, err := s.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userID)
		ctx = context.WithValue(ctx, sessionTokenContextKey, cookie.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth injects the user id when a live session is present and passes
// the request through untouched otherwise. A stale cookie counts as anonymous.
func (s *Service) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := s.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userID)
		ctx = context.WithValue(ctx, sessionTokenContextKey, cookie.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
