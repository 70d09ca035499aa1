// Package gate decides what the admin page shows for a session and owns the
// per-mount lifecycle of that page.
//
// # Decision
//
// Decide is a pure function from a session to exactly one View:
//
//	IsLoading                      -> ViewLoading
//	!IsAuthenticated               -> ViewRedirecting
//	role is exactly "ADMIN"        -> ViewAuthorized
//	anything else                  -> ViewDenied
//
// # Mounts
//
// A Page is one mount of the admin page. It starts in ViewLoading and is
// re-rendered with Update each time the auth collaborator reports a session.
// When the session resolves to unauthenticated, the page notifies once and
// schedules a single navigation to LoginPath after RedirectDelay. The
// redirect runs at most once per (IsLoading, IsAuthenticated) pair: repeated
// updates with the same pair do nothing, a different pair cancels a pending
// redirect, and Unmount cancels it as well.
//
// # Tabs
//
// In ViewAuthorized the page holds one of three tabs (catalog, releases,
// reports), defaulting to releases. Selecting a tab only changes local state.
// The releases tab is delegated: the frame marks it so the surface can mount
// the releases sub-view, which fetches its own data.
package gate
