// ABOUTME: Tests for the typed role accessor and session helpers
// ABOUTME: Only the exact "ADMIN" tag maps to RoleAdmin

package auth

import (
	"testing"

	"github.com/2389/labeldesk/internal/store"
)

func TestRoleOf(t *testing.T) {
	tests := []struct {
		name string
		user *store.User
		want Role
	}{
		{name: "nil user", user: nil, want: RoleGuest},
		{name: "empty role", user: &store.User{ID: "u"}, want: RoleGuest},
		{name: "admin", user: &store.User{Role: "ADMIN"}, want: RoleAdmin},
		{name: "lowercase admin", user: &store.User{Role: "admin"}, want: RoleMember},
		{name: "mixed case admin", user: &store.User{Role: "Admin"}, want: RoleMember},
		{name: "padded admin", user: &store.User{Role: " ADMIN"}, want: RoleMember},
		{name: "editor", user: &store.User{Role: "editor"}, want: RoleMember},
		{name: "superadmin", user: &store.User{Role: "SUPERADMIN"}, want: RoleMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoleOf(tt.user); got != tt.want {
				t.Errorf("RoleOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRole_String(t *testing.T) {
	if RoleAdmin.String() != "admin" || RoleMember.String() != "member" || RoleGuest.String() != "guest" {
		t.Errorf("unexpected role names: %s %s %s", RoleAdmin, RoleMember, RoleGuest)
	}
}

func TestSession_IsAdmin(t *testing.T) {
	admin := &store.User{ID: "a", Role: AdminRoleTag}

	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{name: "loading", session: Loading(), want: false},
		{name: "anonymous", session: Anonymous(), want: false},
		{name: "authenticated admin", session: Authenticated(admin), want: true},
		{name: "authenticated without user", session: Session{IsAuthenticated: true}, want: false},
		{name: "still loading with admin user", session: Session{IsLoading: true, IsAuthenticated: true, User: admin}, want: false},
		{name: "admin user but unauthenticated", session: Session{User: admin}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_UserID(t *testing.T) {
	if got := Anonymous().UserID(); got != "" {
		t.Errorf("UserID() = %q, want empty", got)
	}
	if got := Authenticated(&store.User{ID: "u-1"}).UserID(); got != "u-1" {
		t.Errorf("UserID() = %q, want u-1", got)
	}
}
