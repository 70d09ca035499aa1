// ABOUTME: Pure view decision for the admin page
// ABOUTME: Maps a session to loading, redirecting, denied or authorized

package gate

import (
	"time"

	"github.com/2389/labeldesk/internal/auth"
)

const (
	// LoginPath is where unauthenticated viewers are sent.
	LoginPath = "/api/login"

	// RedirectDelay is how long the unauthenticated notice shows before navigating.
	RedirectDelay = 500 * time.Millisecond
)

// View is one of the mutually exclusive renderable states of the page.
type View int

const (
	ViewLoading View = iota
	ViewRedirecting
	ViewDenied
	ViewAuthorized
)

// String returns the view name used in templates, events and metrics.
func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewRedirecting:
		return "redirecting"
	case ViewDenied:
		return "denied"
	case ViewAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Decide returns the view for a session.
func Decide(s auth.Session) View {
	switch {
	case s.IsLoading:
		return ViewLoading
	case !s.IsAuthenticated:
		return ViewRedirecting
	case auth.RoleOf(s.User) == auth.RoleAdmin:
		return ViewAuthorized
	default:
		return ViewDenied
	}
}
