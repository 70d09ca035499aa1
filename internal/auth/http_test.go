// ABOUTME: Tests for the RequireAdmin HTTP middleware and session cookies
// ABOUTME: Covers 401, 403, pass-through and store failures

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/labeldesk/internal/store"
)

func TestRequireAdmin(t *testing.T) {
	s, verifier, resolver := newResolverFixture(t)
	adminToken, _ := verifier.Generate("admin-1", time.Hour)
	editorToken, _ := verifier.Generate("editor-1", time.Hour)

	var gotSession Session
	handler := RequireAdmin(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{name: "anonymous", token: "", status: http.StatusUnauthorized},
		{name: "editor", token: editorToken, status: http.StatusForbidden},
		{name: "admin", token: adminToken, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/releases", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	assert.Equal(t, "admin-1", gotSession.UserID())

	s.FailWith(errors.New("boom"))
	req := httptest.NewRequest(http.MethodGet, "/admin/releases", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "x"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSessionManager_CreateAndDestroy(t *testing.T) {
	s := store.NewMockStore()
	manager := NewSessionManager(s, time.Hour)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	rec := httptest.NewRecorder()

	session, err := manager.Create(ctx, rec, req, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, session.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	_, err = s.GetSession(ctx, session.ID)
	require.NoError(t, err)

	logout := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	logout.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	require.NoError(t, manager.Destroy(ctx, rec, logout))

	_, err = s.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestContext_NoSession(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), Anonymous())
	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.False(t, got.IsAuthenticated)
}
