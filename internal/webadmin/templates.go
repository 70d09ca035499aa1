// ABOUTME: Template data and rendering for the admin page frames
// ABOUTME: Turns a gate.Frame into the HTML fragment pushed over the stream

package webadmin

import (
	"bytes"

	"github.com/2389/labeldesk/internal/gate"
	"github.com/2389/labeldesk/internal/store"
)

// ReleasesFragmentPath is loaded into the releases tab when it mounts
const ReleasesFragmentPath = "/admin/releases"

type frameData struct {
	MountID      string
	CSRFToken    string
	View         string
	Revision     uint64
	Tabs         []gate.TabView
	Active       gate.Tab
	User         *store.User
	FragmentPath string
	LoginPath    string
}

func newFrameData(mountID, csrfToken string, frame gate.Frame) frameData {
	return frameData{
		MountID:      mountID,
		CSRFToken:    csrfToken,
		View:         frame.View.String(),
		Revision:     frame.Revision,
		Tabs:         frame.Tabs,
		Active:       frame.Active,
		User:         frame.User,
		FragmentPath: ReleasesFragmentPath,
		LoginPath:    gate.LoginPath,
	}
}

// renderFrame renders the "frame" partial for one page frame
func (a *Admin) renderFrame(m *mount, frame gate.Frame) (string, error) {
	var buf bytes.Buffer
	if err := a.frameTmpl.ExecuteTemplate(&buf, "frame", newFrameData(m.id, m.owner, frame)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
