// Package webadmin provides the browser-facing admin page and its sign-in flow.
//
// # Overview
//
// The admin page is served in two parts:
//
//   - Shell: GET /admin renders the page in its loading state
//   - Stream: GET /admin/stream is a Server-Sent Events connection that
//     mounts a gate.Page and pushes every render to the browser
//
// One stream is one mount. When the stream closes the page is unmounted,
// which cancels any redirect still waiting to fire.
//
// # Events
//
// The stream emits:
//
//   - mounted: {"id": "<mount id>"}
//   - render: {"revision": n, "view": "...", "html": "..."}
//   - notify: a gate.Notification as JSON
//   - redirect: the path to navigate to, as plain text
//
// Render revisions only grow within a mount. The browser drops any render
// whose revision is not newer than the last one it applied.
//
// # Tabs
//
// POST /admin/mounts/{id}/tab with form value tab selects a tab on a live
// mount. The request must carry the CSRF token in the X-CSRF-Token header and
// come from the browser that opened the mount.
//
// # Authentication
//
//   - GET /api/login, POST /api/login: password sign-in
//   - POST /api/logout: ends the cookie session
//   - GET /api/auth/user: the signed-in user as JSON, 401 when signed out
//
// The stream re-resolves its session every poll interval, so signing out in
// another tab is picked up by open pages.
package webadmin
