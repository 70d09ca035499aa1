// ABOUTME: Tests for server wiring, health endpoints and lifecycle
// ABOUTME: Uses the in-memory store so no database file is needed

package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/labeldesk/internal/auth"
	"github.com/2389/labeldesk/internal/config"
	"github.com/2389/labeldesk/internal/store"
	"github.com/2389/labeldesk/internal/webadmin"
)

const testSecret = "server-package-test-secret-32by!"

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{HTTPAddr: "127.0.0.1:0"},
		Database: config.DatabaseConfig{Path: ":memory:"},
		Auth:     config.AuthConfig{JWTSecret: testSecret, SessionDuration: time.Hour},
		Admin:    config.AdminConfig{SessionPollInterval: time.Second},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *store.MockStore) {
	t.Helper()
	st := store.NewMockStore()
	srv, err := NewWithStore(cfg, st, nil)
	require.NoError(t, err)
	t.Cleanup(srv.admin.Close)
	return srv, st
}

func addAdminSession(t *testing.T, st *store.MockStore) string {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, st.CreateUser(ctx, &store.User{ID: "root", Username: "root", Role: auth.AdminRoleTag, CreatedAt: now}))
	require.NoError(t, st.CreateSession(ctx, &store.Session{ID: "sess-root", UserID: "root", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))
	return "sess-root"
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewWithStore_RejectsWeakSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "short"

	_, err := NewWithStore(cfg, store.NewMockStore(), nil)
	assert.ErrorIs(t, err, auth.ErrWeakSecret)
}

func TestHealth(t *testing.T) {
	srv, st := newTestServer(t, testConfig())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	addAdminSession(t, st)
	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1 users")
}

func TestRootRedirectsToAdmin(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, webadmin.AdminPath, rec.Header().Get("Location"))
}

func TestReleasesRoutes_RequireAdminAndCSRF(t *testing.T) {
	srv, st := newTestServer(t, testConfig())
	sessionID := addAdminSession(t, st)
	require.NoError(t, st.CreateUser(context.Background(), &store.User{ID: "ed", Username: "ed", Role: "editor"}))
	require.NoError(t, st.CreateSession(context.Background(), &store.Session{ID: "sess-ed", UserID: "ed", ExpiresAt: time.Now().Add(time.Hour)}))

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/admin/releases", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/releases", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "sess-ed"})
	assert.Equal(t, http.StatusForbidden, serve(srv, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/releases", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: sessionID})
	rec = serve(srv, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No releases yet.")

	form := url.Values{"title": {"Night Drive"}, "artist": {"The Lanterns"}}.Encode()
	post := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/releases", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: sessionID})
		req.AddCookie(&http.Cookie{Name: webadmin.CSRFCookieName, Value: "csrf"})
		if header != "" {
			req.Header.Set(webadmin.CSRFHeader, header)
		}
		return serve(srv, req)
	}

	assert.Equal(t, http.StatusForbidden, post("").Code)
	rec = post("csrf")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "Night Drive")
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "labeldesk_active_mounts")

	cfg := testConfig()
	cfg.Metrics.Enabled = false
	disabled, _ := newTestServer(t, cfg)
	rec = serve(disabled, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPurgeExpiredSessions(t *testing.T) {
	srv, st := newTestServer(t, testConfig())
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, st.CreateUser(ctx, &store.User{ID: "u", Username: "u"}))
	require.NoError(t, st.CreateSession(ctx, &store.Session{ID: "old", UserID: "u", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, st.CreateSession(ctx, &store.Session{ID: "new", UserID: "u", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))

	srv.purgeExpiredSessions(ctx)

	removed, err := st.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed, "expired session already purged")
	_, err = st.GetSession(ctx, "new")
	assert.NoError(t, err)
}

func TestServe_GracefulShutdown(t *testing.T) {
	srv, st := newTestServer(t, testConfig())
	srv.cleanupInterval = 10 * time.Millisecond

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Equal(t, 1, st.CloseCalls())
}
