// ABOUTME: Store interfaces and data types for labeldesk persistence
// ABOUTME: Defines User, Session and Release records and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUserNotFound is returned when a user doesn't exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when trying to create a user with an existing username.
	ErrUsernameExists = errors.New("username already exists")

	// ErrSessionNotFound is returned when a session doesn't exist or is expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrReleaseNotFound is returned when a release doesn't exist.
	ErrReleaseNotFound = errors.New("release not found")

	// ErrReleaseConflict is returned when a release changed status underneath an update.
	ErrReleaseConflict = errors.New("release status changed concurrently")
)

// User is an account that can sign in to labeldesk.
type User struct {
	ID           string
	Username     string
	DisplayName  string
	PasswordHash string // bcrypt hash, empty if the account cannot log in with a password
	Role         string // free-form role tag, empty when none is assigned
	CreatedAt    time.Time
}

// Session is an authenticated browser session.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ReleaseStatus is the lifecycle state of a release.
type ReleaseStatus string

const (
	ReleaseStatusDraft     ReleaseStatus = "draft"
	ReleaseStatusSubmitted ReleaseStatus = "submitted"
	ReleaseStatusApproved  ReleaseStatus = "approved"
	ReleaseStatusRejected  ReleaseStatus = "rejected"
	ReleaseStatusLive      ReleaseStatus = "live"
)

// ValidReleaseStatuses lists all release statuses in lifecycle order.
var ValidReleaseStatuses = []ReleaseStatus{
	ReleaseStatusDraft,
	ReleaseStatusSubmitted,
	ReleaseStatusApproved,
	ReleaseStatusRejected,
	ReleaseStatusLive,
}

// Valid reports whether s is a known release status.
func (s ReleaseStatus) Valid() bool {
	for _, v := range ValidReleaseStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Release is a music release managed from the admin panel.
type Release struct {
	ID          string
	Title       string
	Artist      string
	UPC         string // 12-digit barcode, empty until assigned
	Status      ReleaseStatus
	Notes       string     // markdown
	ReleaseDate *time.Time // nil when unscheduled
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReleaseFilter narrows ListReleases results. Zero values mean "any".
type ReleaseFilter struct {
	Status ReleaseStatus
	Limit  int
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	CountUsers(ctx context.Context) (int, error)
	SetUserRole(ctx context.Context, id, role string) error
}

// SessionStore persists browser sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// ReleaseStore persists releases.
type ReleaseStore interface {
	CreateRelease(ctx context.Context, release *Release) error
	GetRelease(ctx context.Context, id string) (*Release, error)
	ListReleases(ctx context.Context, filter ReleaseFilter) ([]*Release, error)
	// UpdateReleaseStatus moves a release from one status to another.
	// Returns ErrReleaseConflict if the release is no longer in status from.
	UpdateReleaseStatus(ctx context.Context, id string, from, to ReleaseStatus, at time.Time) error
}

// Store combines every persistence concern.
type Store interface {
	UserStore
	SessionStore
	ReleaseStore
	Close() error
}
