// ABOUTME: Admin web UI package for labeldesk
// ABOUTME: Provides login, CSRF handling, the admin shell and its live stream routes

package webadmin

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/2389/labeldesk/internal/auth"
	"github.com/2389/labeldesk/internal/gate"
	"github.com/2389/labeldesk/internal/store"
	"github.com/2389/labeldesk/internal/throttle"
)

const (
	// CSRFCookieName is the name of the CSRF token cookie
	CSRFCookieName = "labeldesk_csrf"

	// CSRFHeader carries the CSRF token on script-issued requests
	CSRFHeader = "X-CSRF-Token"

	// DefaultPollInterval is how often a mount re-resolves its session
	DefaultPollInterval = 30 * time.Second

	// DefaultHeartbeatInterval is how often an idle stream sends a comment
	DefaultHeartbeatInterval = 15 * time.Second

	// AdminPath is the admin page itself
	AdminPath = "/admin"
)

type contextKey string

const csrfContextKey contextKey = "csrf_token"

// Observer receives page and mount events. metrics.Registry implements it.
type Observer interface {
	gate.Observer
	MountOpened()
	MountClosed()
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(gate.View)            {}
func (nopObserver) ObserveTabSelected(gate.Tab)          {}
func (nopObserver) ObserveRedirect(gate.RedirectOutcome) {}
func (nopObserver) MountOpened()                         {}
func (nopObserver) MountClosed()                         {}

// Config holds admin UI configuration
type Config struct {
	// PollInterval is how often a mounted page re-resolves its session
	PollInterval time.Duration

	// HeartbeatInterval is how often an idle stream sends a keepalive
	HeartbeatInterval time.Duration

	// Scheduler runs the deferred login redirect. Defaults to the system timer.
	Scheduler gate.Scheduler

	// Observer receives instrumentation events. Optional.
	Observer Observer

	// LoginLimiter throttles failed logins per username. Defaults to
	// throttle.DefaultMaxFailures per throttle.DefaultWindow.
	LoginLimiter *throttle.Limiter
}

// Admin handles admin UI routes
type Admin struct {
	users    store.UserStore
	resolver auth.SessionResolver
	sessions *auth.SessionManager
	config   Config
	logger   *slog.Logger
	hub      *mountHub
	limiter  *throttle.Limiter

	loginTmpl *template.Template
	shellTmpl *template.Template
	frameTmpl *template.Template
}

// New creates a new Admin handler
func New(users store.UserStore, resolver auth.SessionResolver, sessions *auth.SessionManager, cfg Config) *Admin {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = gate.SystemScheduler{}
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.LoginLimiter == nil {
		cfg.LoginLimiter = throttle.New(throttle.DefaultMaxFailures, throttle.DefaultWindow, throttle.DefaultMaxKeys)
	}

	return &Admin{
		users:     users,
		resolver:  resolver,
		sessions:  sessions,
		config:    cfg,
		logger:    slog.Default().With("component", "admin"),
		hub:       newMountHub(4 * cfg.HeartbeatInterval),
		limiter:   cfg.LoginLimiter,
		loginTmpl: template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/login.html")),
		shellTmpl: template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/admin.html", "templates/partials/*.html")),
		frameTmpl: template.Must(template.ParseFS(templateFS, "templates/partials/*.html")),
	}
}

// Close unmounts every live page and ends their streams
func (a *Admin) Close() {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
}

// RegisterRoutes registers all admin routes on the given mux
func (a *Admin) RegisterRoutes(mux *http.ServeMux) {
	// Auth endpoints
	mux.HandleFunc("GET /api/login", a.handleLoginPage)
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.HandleFunc("POST /api/logout", a.handleLogout)
	mux.HandleFunc("GET /api/auth/user", a.handleAuthUser)

	// The page shell renders for everyone; the stream decides what they see
	mux.HandleFunc("GET /admin", a.handleShell)
	mux.HandleFunc("GET /admin/{$}", a.handleShell)
	mux.HandleFunc("GET /admin/stream", a.handleStream)
	mux.HandleFunc("POST /admin/mounts/{id}/tab", a.handleSelectTab)

	a.logger.Info("admin routes registered")
}

// RequireCSRF rejects state-changing requests whose CSRF token doesn't match the cookie
func (a *Admin) RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if !a.validateCSRF(r) {
			a.logger.Warn("rejected request with invalid CSRF token", "path", r.URL.Path)
			http.Error(w, "Invalid CSRF token", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getCSRFToken retrieves the CSRF token from the request context
func getCSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfContextKey).(string)
	return token
}

// ensureCSRFToken generates a CSRF token if not present and adds it to context
func (a *Admin) ensureCSRFToken(w http.ResponseWriter, r *http.Request) (*http.Request, string) {
	cookie, err := r.Cookie(CSRFCookieName)
	if err == nil && cookie.Value != "" {
		ctx := context.WithValue(r.Context(), csrfContextKey, cookie.Value)
		return r.WithContext(ctx), cookie.Value
	}

	token, err := auth.GenerateSecureToken(32)
	if err != nil {
		a.logger.Error("failed to generate CSRF token", "error", err)
		token = "" // Will fail validation, but won't crash
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	ctx := context.WithValue(r.Context(), csrfContextKey, token)
	return r.WithContext(ctx), token
}

// validateCSRF checks the CSRF token from form or header against cookie
func (a *Admin) validateCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	token := r.Header.Get(CSRFHeader)
	if token == "" {
		token = r.FormValue("csrf_token")
	}

	return token != "" && token == cookie.Value
}

type loginData struct {
	Title     string
	Error     string
	Username  string
	CSRFToken string
}

// renderLoginPage renders the login page
func (a *Admin) renderLoginPage(w http.ResponseWriter, status int, data loginData) {
	data.Title = "Sign in"
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := a.loginTmpl.Execute(w, data); err != nil {
		a.logger.Error("failed to render login page", "error", err)
	}
}

// handleLoginPage renders the login page
func (a *Admin) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// Already signed in: straight to the admin page
	if session, err := a.resolver.Resolve(r.Context(), r); err == nil && session.IsAuthenticated {
		http.Redirect(w, r, AdminPath, http.StatusSeeOther)
		return
	}

	_, csrfToken := a.ensureCSRFToken(w, r)
	a.renderLoginPage(w, http.StatusOK, loginData{CSRFToken: csrfToken})
}

// handleLogin processes login form submission
func (a *Admin) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, http.StatusBadRequest, loginData{Error: "Invalid form data", CSRFToken: csrfToken})
		return
	}

	if !a.validateCSRF(r) {
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, http.StatusForbidden, loginData{Error: "Invalid request, please try again", CSRFToken: csrfToken})
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	data := loginData{Username: username, CSRFToken: getCSRFTokenFromCookie(r)}

	if username == "" || password == "" {
		data.Error = "Username and password required"
		a.renderLoginPage(w, http.StatusBadRequest, data)
		return
	}

	// Reserved before the password check; concurrent attempts share one count
	throttleKey := strings.ToLower(strings.TrimSpace(username))
	if !a.limiter.Reserve(throttleKey) {
		a.logger.Warn("login throttled", "username", username)
		data.Error = "Too many failed attempts, try again later"
		a.renderLoginPage(w, http.StatusTooManyRequests, data)
		return
	}

	user, err := auth.Authenticate(r.Context(), a.users, username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			data.Error = "Invalid username or password"
			a.renderLoginPage(w, http.StatusUnauthorized, data)
			return
		}
		a.logger.Error("failed to authenticate", "error", err)
		data.Error = "An error occurred"
		a.renderLoginPage(w, http.StatusInternalServerError, data)
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, r, user.ID); err != nil {
		a.logger.Error("failed to create session", "error", err)
		data.Error = "An error occurred"
		a.renderLoginPage(w, http.StatusInternalServerError, data)
		return
	}

	a.limiter.Reset(throttleKey)
	a.logger.Info("login successful", "username", username, "role", auth.RoleOf(user))
	http.Redirect(w, r, AdminPath, http.StatusSeeOther)
}

// handleLogout logs out the current user
func (a *Admin) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil {
		// Don't block logout on a bad token; a forged logout only signs someone out
		if !a.validateCSRF(r) {
			a.logger.Warn("logout request with invalid CSRF token")
		}
	}

	if err := a.sessions.Destroy(r.Context(), w, r); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
		a.logger.Error("failed to delete session", "error", err)
	}

	// Clear CSRF cookie; the next sign-in gets a fresh token and mount owner
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.Redirect(w, r, gate.LoginPath, http.StatusSeeOther)
}

type authUserResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
}

// handleAuthUser returns the signed-in user as JSON
func (a *Admin) handleAuthUser(w http.ResponseWriter, r *http.Request) {
	session, err := a.resolver.Resolve(r.Context(), r)
	if err != nil {
		a.logger.Error("failed to resolve session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session unavailable"})
		return
	}
	if !session.IsAuthenticated || session.User == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	u := session.User
	writeJSON(w, http.StatusOK, authUserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		IsAdmin:     session.IsAdmin(),
	})
}

func getCSRFTokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to encode json response", "error", err)
	}
}
