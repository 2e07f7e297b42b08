package server

import (
	"context"
	"net/http"
	"strings"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
)

// RequireAuth validates the Bearer access token on protected routes and
// injects the authenticated user ID into the request context. Any missing,
// malformed, expired or unverifiable token yields 401 with a detail body;
// clients use that uniform 401 as the trigger for their refresh flow.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeDetailError(w, http.StatusUnauthorized, "authentication credentials were not provided")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeDetailError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			identity, err := s.tokens.Introspect(parts[1])
			if err != nil {
				writeDetailError(w, http.StatusUnauthorized, "token is invalid or expired")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, identity.UserID)
			next(w, r.WithContext(ctx))
		}
	}
}

// userIDFromContext returns the authenticated user ID set by RequireAuth.
func userIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(ContextKeyUserID).(string)
	return userID
}
