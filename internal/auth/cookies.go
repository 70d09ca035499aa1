// ABOUTME: Browser session creation and teardown
// ABOUTME: Persists sessions in the store and manages the session cookie

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/2389/labeldesk/internal/store"
)

// SessionManager creates and destroys cookie-backed sessions.
type SessionManager struct {
	store    store.SessionStore
	duration time.Duration
}

// NewSessionManager creates a session manager issuing sessions valid for duration.
func NewSessionManager(sessions store.SessionStore, duration time.Duration) *SessionManager {
	return &SessionManager{store: sessions, duration: duration}
}

// Create starts a new session for userID and sets the session cookie.
func (m *SessionManager) Create(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string) (*store.Session, error) {
	sessionID, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}

	now := time.Now()
	session := &store.Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.duration),
	}

	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	return session, nil
}

// Destroy deletes the request's session, if any, and clears the cookie.
func (m *SessionManager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var err error
	if cookie, cookieErr := r.Cookie(SessionCookieName); cookieErr == nil && cookie.Value != "" {
		err = m.store.DeleteSession(ctx, cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	return err
}

// GenerateSecureToken returns a URL-safe random token of n bytes of entropy.
func GenerateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
