// Package server assembles labeldesk into a single HTTP server.
//
// Routes:
//
//   - GET /healthz: liveness
//   - GET /healthz/ready: 200 once at least one user exists
//   - /api/login, /api/logout, /api/auth/user: sign-in (webadmin)
//   - /admin, /admin/stream, /admin/mounts/{id}/tab: the admin page (webadmin)
//   - /admin/releases...: releases tab fragments, admin only (releases)
//   - metrics.path: prometheus scrape endpoint when metrics.enabled is set
//
// Expired sessions are purged every SessionCleanupInterval while the server runs.
package server
