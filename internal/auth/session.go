// ABOUTME: Session snapshot and typed role accessor for the admin gate
// ABOUTME: Only the exact role tag "ADMIN" grants admin access

package auth

import (
	"github.com/2389/labeldesk/internal/store"
)

// AdminRoleTag is the only role tag that grants admin access. Comparison is
// exact and case-sensitive.
const AdminRoleTag = "ADMIN"

// Role is the typed view of a user's role tag.
type Role int

const (
	// RoleGuest is the default when there is no user or no role tag.
	RoleGuest Role = iota
	// RoleMember is any non-empty role tag other than AdminRoleTag.
	RoleMember
	// RoleAdmin is the exact AdminRoleTag.
	RoleAdmin
)

// String returns a lowercase name for logs and metrics.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleMember:
		return "member"
	default:
		return "guest"
	}
}

// RoleOf returns the typed role of a user record. A nil user or an empty tag
// yields RoleGuest.
func RoleOf(user *store.User) Role {
	if user == nil || user.Role == "" {
		return RoleGuest
	}
	if user.Role == AdminRoleTag {
		return RoleAdmin
	}
	return RoleMember
}

// Session is the current authentication snapshot for the viewing user.
type Session struct {
	IsAuthenticated bool
	IsLoading       bool
	User            *store.User
}

// Loading is the session state before resolution completes.
func Loading() Session {
	return Session{IsLoading: true}
}

// Anonymous is a resolved session with no authenticated user.
func Anonymous() Session {
	return Session{}
}

// Authenticated is a resolved session for user.
func Authenticated(user *store.User) Session {
	return Session{IsAuthenticated: true, User: user}
}

// Role returns the typed role of the session's user.
func (s Session) Role() Role {
	return RoleOf(s.User)
}

// IsAdmin reports whether the session is resolved, authenticated and admin.
func (s Session) IsAdmin() bool {
	return !s.IsLoading && s.IsAuthenticated && s.Role() == RoleAdmin
}

// UserID returns the user's ID, or "" when there is no user.
func (s Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}
