// ABOUTME: Tests for the pure view decision
// ABOUTME: Exhaustively covers loading, authentication and role combinations

package gate

import (
	"testing"

	"github.com/2389/labeldesk/internal/auth"
	"github.com/2389/labeldesk/internal/store"
)

var roleVariants = []*store.User{
	nil,
	{ID: "u-empty"},
	{ID: "u-admin", Role: "ADMIN"},
	{ID: "u-lower", Role: "admin"},
	{ID: "u-editor", Role: "editor"},
	{ID: "u-owner", Role: "OWNER"},
}

func TestDecide_LoadingWins(t *testing.T) {
	for _, authed := range []bool{false, true} {
		for _, user := range roleVariants {
			s := auth.Session{IsLoading: true, IsAuthenticated: authed, User: user}
			if got := Decide(s); got != ViewLoading {
				t.Errorf("Decide(%+v) = %v, want loading", s, got)
			}
		}
	}
}

func TestDecide_UnauthenticatedRedirects(t *testing.T) {
	for _, user := range roleVariants {
		s := auth.Session{IsAuthenticated: false, User: user}
		if got := Decide(s); got != ViewRedirecting {
			t.Errorf("Decide(%+v) = %v, want redirecting", s, got)
		}
	}
}

func TestDecide_Authenticated(t *testing.T) {
	for _, user := range roleVariants {
		s := auth.Session{IsAuthenticated: true, User: user}
		want := ViewDenied
		if user != nil && user.Role == "ADMIN" {
			want = ViewAuthorized
		}
		if got := Decide(s); got != want {
			t.Errorf("Decide(role=%v) = %v, want %v", user, got, want)
		}
	}
}

func TestView_String(t *testing.T) {
	tests := map[View]string{
		ViewLoading:     "loading",
		ViewRedirecting: "redirecting",
		ViewDenied:      "denied",
		ViewAuthorized:  "authorized",
		View(42):        "unknown",
	}
	for v, want := range tests {
		if got := v.String(); got != want {
			t.Errorf("View(%d).String() = %q, want %q", int(v), got, want)
		}
	}
}
