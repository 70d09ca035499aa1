// Package store provides persistent storage for labeldesk using SQLite.
//
// # Architecture
//
// The package is interface-driven:
//
//   - UserStore: user accounts and their role tag
//   - SessionStore: browser sessions with expiry
//   - ReleaseStore: releases shown in the admin Releases tab
//   - Store: all of the above plus Close
//
// SQLiteStore implements every interface in a single struct. MockStore is an
// in-memory implementation used by tests in other packages.
//
// # Roles
//
// A user's role is a free-form string stored as-is (NULL when absent). The
// store does not interpret it; see auth.RoleOf for the typed accessor.
//
// # Timestamps
//
// Timestamps are stored as fixed-width UTC strings so that lexical order
// matches chronological order. Release dates are calendar dates (YYYY-MM-DD).
//
// # Errors
//
// Lookups return sentinel errors (ErrUserNotFound, ErrSessionNotFound,
// ErrReleaseNotFound). Expired sessions read as ErrSessionNotFound.
package store
