// ABOUTME: Session resolution from cookies and bearer tokens
// ABOUTME: Missing or invalid credentials resolve to an anonymous session, not an error

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/labeldesk/internal/store"
)

// SessionCookieName is the name of the browser session cookie
const SessionCookieName = "labeldesk_session"

// SessionResolver resolves the Session for a request.
type SessionResolver interface {
	Resolve(ctx context.Context, r *http.Request) (Session, error)
}

// Resolver resolves sessions against the user and session stores.
type Resolver struct {
	users    store.UserStore
	sessions store.SessionStore
	verifier TokenVerifier
	logger   *slog.Logger
}

// Ensure Resolver implements SessionResolver.
var _ SessionResolver = (*Resolver)(nil)

// NewResolver creates a resolver. verifier may be nil to disable bearer tokens.
func NewResolver(users store.UserStore, sessions store.SessionStore, verifier TokenVerifier) *Resolver {
	return &Resolver{
		users:    users,
		sessions: sessions,
		verifier: verifier,
		logger:   slog.Default().With("component", "auth"),
	}
}

// Resolve returns the session for r. The cookie session wins over a bearer
// token when both are present and valid.
func (rv *Resolver) Resolve(ctx context.Context, r *http.Request) (Session, error) {
	userID, err := rv.userFromCookie(ctx, r)
	if err != nil {
		return Anonymous(), err
	}

	if userID == "" {
		userID = rv.userFromBearer(r)
	}
	if userID == "" {
		return Anonymous(), nil
	}

	user, err := rv.users.GetUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		rv.logger.Debug("credential references missing user", "user_id", userID)
		return Anonymous(), nil
	}
	if err != nil {
		return Anonymous(), fmt.Errorf("loading user: %w", err)
	}

	return Authenticated(user), nil
}

func (rv *Resolver) userFromCookie(ctx context.Context, r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", nil
	}

	session, err := rv.sessions.GetSession(ctx, cookie.Value)
	if errors.Is(err, store.ErrSessionNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading session: %w", err)
	}

	return session.UserID, nil
}

func (rv *Resolver) userFromBearer(r *http.Request) string {
	if rv.verifier == nil {
		return ""
	}

	token, ok := extractBearerToken(r.Header.Get("Authorization"))
	if !ok {
		return ""
	}

	userID, err := rv.verifier.Verify(token)
	if err != nil {
		rv.logger.Debug("rejected bearer token", "error", err)
		return ""
	}
	return userID
}

// extractBearerToken extracts a bearer token from the Authorization header.
func extractBearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}
