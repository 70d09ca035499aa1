// ABOUTME: Server orchestrator wiring store, auth, admin page, releases and metrics
// ABOUTME: Owns the HTTP server lifecycle, health endpoints and session cleanup

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/2389/labeldesk/internal/auth"
	"github.com/2389/labeldesk/internal/config"
	"github.com/2389/labeldesk/internal/metrics"
	"github.com/2389/labeldesk/internal/releases"
	"github.com/2389/labeldesk/internal/store"
	"github.com/2389/labeldesk/internal/webadmin"
)

// SessionCleanupInterval is how often expired sessions are purged.
const SessionCleanupInterval = time.Hour

// Server orchestrates the labeldesk components.
type Server struct {
	config     *config.Config
	store      store.Store
	admin      *webadmin.Admin
	metrics    *metrics.Registry
	httpServer *http.Server
	logger     *slog.Logger

	cleanupInterval time.Duration
}

// OpenStore opens the sqlite store named by config or LABELDESK_DB_PATH.
func OpenStore(cfg *config.Config) (store.Store, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("LABELDESK_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// New creates a Server backed by the configured sqlite database.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	srv, err := NewWithStore(cfg, s, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return srv, nil
}

// NewWithStore creates a Server over an existing store. The server owns the
// store from here on and closes it on shutdown.
func NewWithStore(cfg *config.Config, s store.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("creating JWT verifier: %w", err)
	}
	resolver := auth.NewResolver(s, s, verifier)
	sessions := auth.NewSessionManager(s, cfg.Auth.SessionDuration)

	reg := metrics.New()

	srv := &Server{
		config:          cfg,
		store:           s,
		metrics:         reg,
		logger:          logger.With("component", "server"),
		cleanupInterval: SessionCleanupInterval,
	}

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("GET /healthz", srv.handleHealth)
	mux.HandleFunc("GET /healthz/ready", srv.handleReady)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, webadmin.AdminPath, http.StatusSeeOther)
	})

	srv.admin = webadmin.New(s, resolver, sessions, webadmin.Config{
		PollInterval: cfg.Admin.SessionPollInterval,
		Observer:     reg,
	})
	srv.admin.RegisterRoutes(mux)

	// The releases tab fetches its own fragments; admins only, CSRF on writes
	requireAdmin := auth.RequireAdmin(resolver)
	releaseHandler := releases.NewHandler(releases.NewService(s, logger), logger)
	releaseHandler.RegisterRoutes(mux, func(next http.Handler) http.Handler {
		return requireAdmin(srv.admin.RequireCSRF(next))
	})

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, reg.Handler())
		srv.logger.Info("metrics enabled", "path", cfg.Metrics.Path)
	}

	srv.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Open admin streams would otherwise hold Shutdown until its deadline
	srv.httpServer.RegisterOnShutdown(srv.admin.Close)

	srv.logger.Info("admin page enabled", "path", webadmin.AdminPath)
	return srv, nil
}

// Handler returns the server's root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens on the configured address and serves until ctx is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	cleanupDone := make(chan struct{})
	go func() {
		defer close(cleanupDone)
		s.cleanupLoop(cleanupCtx)
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	stopCleanup()
	<-cleanupDone

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// The caller's context is already canceled at this point.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server, unmounts every admin page and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))
	s.admin.Close()
	errs = appendCloseError(errs, "store close", s.store.Close())

	return errors.Join(errs...)
}

// cleanupLoop purges expired sessions until ctx is canceled.
func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purgeExpiredSessions(ctx)
		}
	}
}

func (s *Server) purgeExpiredSessions(ctx context.Context) {
	removed, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("failed to delete expired sessions", "error", err)
		}
		return
	}
	if removed > 0 {
		s.logger.Info("deleted expired sessions", "count", removed)
	}
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once at least one user exists to sign in with.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountUsers(r.Context())
	if err != nil {
		s.logger.Error("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	if count == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no users, run labeldesk adduser"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d users)", count)
}
