// ABOUTME: Tests for tab enumeration and selection
// ABOUTME: Covers defaults, idempotent reselection and unknown ids

package gate

import (
	"errors"
	"testing"
)

func TestTabState_Default(t *testing.T) {
	s := NewTabState()
	if s.Active() != TabReleases {
		t.Errorf("Active() = %q, want releases", s.Active())
	}

	var zero TabState
	if zero.Active() != DefaultTab {
		t.Errorf("zero TabState Active() = %q, want default", zero.Active())
	}
}

func TestTabState_Select(t *testing.T) {
	s := NewTabState()

	changed, err := s.Select(TabCatalog)
	if err != nil || !changed {
		t.Fatalf("Select(catalog) = %v, %v; want true, nil", changed, err)
	}

	changed, err = s.Select(TabCatalog)
	if err != nil || changed {
		t.Errorf("reselect Select(catalog) = %v, %v; want false, nil", changed, err)
	}
	if s.Active() != TabCatalog {
		t.Errorf("Active() = %q, want catalog", s.Active())
	}

	_, err = s.Select(Tab("settings"))
	if !errors.Is(err, ErrUnknownTab) {
		t.Errorf("Select(settings) error = %v, want ErrUnknownTab", err)
	}
	if s.Active() != TabCatalog {
		t.Errorf("failed select changed Active() to %q", s.Active())
	}
}

func TestParseTab(t *testing.T) {
	for _, tab := range Tabs {
		got, err := ParseTab(string(tab))
		if err != nil || got != tab {
			t.Errorf("ParseTab(%q) = %q, %v", tab, got, err)
		}
	}

	for _, bad := range []string{"", "Releases", "admin"} {
		if _, err := ParseTab(bad); !errors.Is(err, ErrUnknownTab) {
			t.Errorf("ParseTab(%q) error = %v, want ErrUnknownTab", bad, err)
		}
	}
}

func TestTabViews(t *testing.T) {
	views := tabViews(TabReports)
	if len(views) != 3 {
		t.Fatalf("len(tabViews) = %d, want 3", len(views))
	}

	wantOrder := []Tab{TabCatalog, TabReleases, TabReports}
	for i, v := range views {
		if v.ID != wantOrder[i] {
			t.Errorf("views[%d].ID = %q, want %q", i, v.ID, wantOrder[i])
		}
		if v.Active != (v.ID == TabReports) {
			t.Errorf("views[%d].Active = %v", i, v.Active)
		}
		if v.Delegated != (v.ID == TabReleases) {
			t.Errorf("views[%d].Delegated = %v", i, v.Delegated)
		}
	}

	if views[0].Heading != "Catalog Management" || views[2].Heading != "Reports & Analytics" {
		t.Errorf("unexpected placeholder headings: %q, %q", views[0].Heading, views[2].Heading)
	}
	if TabReleases.Label() != "Releases" {
		t.Errorf("Label() = %q", TabReleases.Label())
	}
}
