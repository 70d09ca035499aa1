// ABOUTME: HTTP middleware gating endpoints on the admin role
// ABOUTME: Resolves the session and stores it in the request context

package auth

import (
	"log/slog"
	"net/http"
)

// RequireAdmin creates an HTTP middleware that only lets resolved admin
// sessions through. Unauthenticated requests get 401, non-admins get 403.
func RequireAdmin(resolver SessionResolver) func(http.Handler) http.Handler {
	logger := slog.Default().With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := resolver.Resolve(r.Context(), r)
			if err != nil {
				logger.Error("resolving session", "error", err, "path", r.URL.Path)
				writeJSONError(w, http.StatusInternalServerError, "session unavailable")
				return
			}

			if !session.IsAuthenticated {
				writeJSONError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			if !session.IsAdmin() {
				writeJSONError(w, http.StatusForbidden, "admin role required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
