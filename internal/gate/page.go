// ABOUTME: One mount of the admin page with its redirect side effect and tab state
// ABOUTME: Collaborators (notifier, navigator, scheduler, observer) are injected

package gate

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/2389/labeldesk/internal/auth"
	"github.com/2389/labeldesk/internal/store"
)

// ErrUnmounted is returned when interacting with a page after Unmount.
var ErrUnmounted = errors.New("page is unmounted")

// Severity is the visual weight of a notification.
type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

// Notification is a toast shown to the viewer.
type Notification struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// UnauthorizedNotification is shown once before redirecting to login.
var UnauthorizedNotification = Notification{
	Title:       "Unauthorized",
	Description: "You are logged out. Logging in again...",
	Severity:    SeverityDestructive,
}

// Notifier delivers notifications to the viewer.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Navigator performs a hard navigation away from the page.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(path string) { f(path) }

// RedirectOutcome labels what happened to a scheduled redirect.
type RedirectOutcome string

const (
	RedirectScheduled RedirectOutcome = "scheduled"
	RedirectFired     RedirectOutcome = "fired"
	RedirectCancelled RedirectOutcome = "cancelled"
)

// Observer receives page events for instrumentation.
type Observer interface {
	ObserveDecision(v View)
	ObserveTabSelected(t Tab)
	ObserveRedirect(o RedirectOutcome)
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(View)            {}
func (nopObserver) ObserveTabSelected(Tab)          {}
func (nopObserver) ObserveRedirect(RedirectOutcome) {}

// Options configures a Page. Notifier and Navigator are required.
type Options struct {
	Notifier  Notifier
	Navigator Navigator
	Scheduler Scheduler    // defaults to SystemScheduler
	Observer  Observer     // defaults to a no-op
	Logger    *slog.Logger // defaults to slog.Default()
}

// Frame is the render output of a page at one point in time.
type Frame struct {
	// Revision increases whenever the rendered output changes.
	Revision uint64
	View     View
	Active   Tab
	Tabs     []TabView // only populated in ViewAuthorized
	User     *store.User
}

// effectDeps is the dependency pair of the redirect side effect.
type effectDeps struct {
	loading       bool
	authenticated bool
}

// Page is one mount of the admin page. It is safe for concurrent use.
type Page struct {
	notifier  Notifier
	navigator Navigator
	scheduler Scheduler
	observer  Observer
	logger    *slog.Logger

	mu        sync.Mutex
	session   auth.Session
	view      View
	tabs      TabState
	revision  uint64
	deps      effectDeps
	depsSeen  bool
	pending   Timer
	redirect  uint64 // generation of the pending redirect
	unmounted bool
}

// NewPage mounts a page in the loading state.
func NewPage(opts Options) *Page {
	p := &Page{
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		scheduler: opts.Scheduler,
		observer:  opts.Observer,
		logger:    opts.Logger,
		session:   auth.Loading(),
		view:      ViewLoading,
		tabs:      NewTabState(),
		revision:  1,
	}
	if p.scheduler == nil {
		p.scheduler = SystemScheduler{}
	}
	if p.observer == nil {
		p.observer = nopObserver{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("component", "gate")
	return p
}

// Render returns the current frame without changing state.
func (p *Page) Render() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameLocked()
}

// Update re-renders the page with the latest session.
func (p *Page) Update(s auth.Session) Frame {
	p.mu.Lock()
	if p.unmounted {
		frame := p.frameLocked()
		p.mu.Unlock()
		return frame
	}

	prevView, prevUser := p.view, p.session.User
	p.session = s
	p.view = Decide(s)
	viewChanged := p.view != prevView
	if viewChanged || !sameRenderedUser(prevUser, s.User) {
		p.revision++
	}

	notify := p.runEffectLocked()
	frame := p.frameLocked()
	p.mu.Unlock()

	if viewChanged {
		p.observer.ObserveDecision(frame.View)
		p.logger.Debug("view changed", "from", prevView, "to", frame.View, "user_id", s.UserID())
	}
	if notify {
		p.notifier.Notify(UnauthorizedNotification)
	}
	return frame
}

// SelectTab switches the active tab. It never touches the redirect.
func (p *Page) SelectTab(t Tab) (Frame, error) {
	if !t.Valid() {
		return Frame{}, ErrUnknownTab
	}

	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		return Frame{}, ErrUnmounted
	}
	if p.view != ViewAuthorized {
		frame := p.frameLocked()
		p.mu.Unlock()
		return frame, ErrTabUnavailable
	}

	changed, err := p.tabs.Select(t)
	if err != nil {
		p.mu.Unlock()
		return Frame{}, err
	}
	if changed {
		p.revision++
	}
	frame := p.frameLocked()
	p.mu.Unlock()

	if changed {
		p.observer.ObserveTabSelected(t)
	}
	return frame, nil
}

// Unmount cancels any pending redirect. Later updates are ignored.
func (p *Page) Unmount() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unmounted {
		return
	}
	p.unmounted = true
	p.cancelPendingLocked()
}

// Session returns the last session the page rendered.
func (p *Page) Session() auth.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// runEffectLocked runs the redirect effect when its dependency pair changed.
// It reports whether the unauthorized notification should be sent.
func (p *Page) runEffectLocked() bool {
	deps := effectDeps{loading: p.session.IsLoading, authenticated: p.session.IsAuthenticated}
	if p.depsSeen && deps == p.deps {
		return false
	}
	p.deps = deps
	p.depsSeen = true

	// A redirect scheduled for the previous pair is stale now.
	p.cancelPendingLocked()

	if deps.loading || deps.authenticated {
		return false
	}

	p.redirect++
	generation := p.redirect
	p.pending = p.scheduler.AfterFunc(RedirectDelay, func() {
		p.fireRedirect(generation)
	})
	p.observer.ObserveRedirect(RedirectScheduled)
	p.logger.Info("session unauthenticated, redirect scheduled", "path", LoginPath, "delay", RedirectDelay)
	return true
}

func (p *Page) fireRedirect(generation uint64) {
	p.mu.Lock()
	if p.unmounted || p.pending == nil || p.redirect != generation {
		p.mu.Unlock()
		return
	}
	p.pending = nil
	p.mu.Unlock()

	p.observer.ObserveRedirect(RedirectFired)
	p.navigator.Navigate(LoginPath)
}

func (p *Page) cancelPendingLocked() {
	if p.pending == nil {
		return
	}
	if p.pending.Stop() {
		p.observer.ObserveRedirect(RedirectCancelled)
	}
	p.pending = nil
	p.redirect++
}

// sameRenderedUser compares the user fields a frame shows. Each poll
// resolves a fresh record, so pointers alone say nothing.
func sameRenderedUser(a, b *store.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID &&
		a.Username == b.Username &&
		a.DisplayName == b.DisplayName &&
		a.Role == b.Role
}

func (p *Page) frameLocked() Frame {
	frame := Frame{
		Revision: p.revision,
		View:     p.view,
		Active:   p.tabs.Active(),
		User:     p.session.User,
	}
	if p.view == ViewAuthorized {
		frame.Tabs = tabViews(frame.Active)
	}
	return frame
}
