// ABOUTME: Tab enumeration and tab selection state for the authorized panel
// ABOUTME: Selecting the active tab again is a no-op

package gate

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTab is returned for a tab id outside the enumeration.
	ErrUnknownTab = errors.New("unknown tab")

	// ErrTabUnavailable is returned when selecting a tab outside the authorized view.
	ErrTabUnavailable = errors.New("tabs are only available to admins")
)

// Tab identifies a panel in the authorized view.
type Tab string

const (
	TabCatalog  Tab = "catalog"
	TabReleases Tab = "releases"
	TabReports  Tab = "reports"
)

// DefaultTab is selected on every new mount.
const DefaultTab = TabReleases

// Tabs lists every tab in display order.
var Tabs = []Tab{TabCatalog, TabReleases, TabReports}

type tabInfo struct {
	label       string
	heading     string
	description string
	delegated   bool
}

var tabInfos = map[Tab]tabInfo{
	TabCatalog: {
		label:       "Catalog",
		heading:     "Catalog Management",
		description: "Manage artist profiles, labels, and catalog information",
	},
	TabReleases: {
		label:     "Releases",
		delegated: true,
	},
	TabReports: {
		label:       "Reports",
		heading:     "Reports & Analytics",
		description: "View detailed reports and analytics data",
	},
}

// Valid reports whether t is one of Tabs.
func (t Tab) Valid() bool {
	_, ok := tabInfos[t]
	return ok
}

// Label is the user-facing tab title.
func (t Tab) Label() string {
	return tabInfos[t].label
}

// ParseTab converts a tab id to a Tab.
func ParseTab(s string) (Tab, error) {
	t := Tab(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
	}
	return t, nil
}

// TabState is the selected tab of one mount.
type TabState struct {
	active Tab
}

// NewTabState returns a state with DefaultTab selected.
func NewTabState() TabState {
	return TabState{active: DefaultTab}
}

// Active returns the selected tab.
func (s TabState) Active() Tab {
	if s.active == "" {
		return DefaultTab
	}
	return s.active
}

// Select makes t the active tab. changed is false when t was already active.
func (s *TabState) Select(t Tab) (changed bool, err error) {
	if !t.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownTab, string(t))
	}
	if s.Active() == t {
		return false, nil
	}
	s.active = t
	return true, nil
}

// TabView describes one tab in a rendered frame.
type TabView struct {
	ID          Tab
	Label       string
	Active      bool
	Delegated   bool   // content is the delegated releases sub-view
	Heading     string // placeholder heading for inert tabs
	Description string // placeholder text for inert tabs
}

func tabViews(active Tab) []TabView {
	views := make([]TabView, 0, len(Tabs))
	for _, t := range Tabs {
		info := tabInfos[t]
		views = append(views, TabView{
			ID:          t,
			Label:       info.label,
			Active:      t == active,
			Delegated:   info.delegated,
			Heading:     info.heading,
			Description: info.description,
		})
	}
	return views
}
