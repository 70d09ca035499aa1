// ABOUTME: Admin page shell, live event stream and tab selection handlers
// ABOUTME: The stream mounts a gate.Page and pushes its renders to the browser

package webadmin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/2389/labeldesk/internal/gate"
)

type shellData struct {
	Title     string
	CSRFToken string
	Initial   frameData
}

// handleShell renders the admin page in its loading state.
// The stream takes over once the browser connects.
func (a *Admin) handleShell(w http.ResponseWriter, r *http.Request) {
	_, csrfToken := a.ensureCSRFToken(w, r)

	loading := gate.Frame{Revision: 0, View: gate.ViewLoading, Active: gate.DefaultTab}
	data := shellData{
		Title:     "Admin",
		CSRFToken: csrfToken,
		Initial:   newFrameData("", csrfToken, loading),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := a.shellTmpl.Execute(w, data); err != nil {
		a.logger.Error("failed to render admin shell", "error", err)
	}
}

// handleStream mounts a page for this connection and streams it until
// either side goes away. Closing the stream unmounts the page.
func (a *Admin) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Must run before the first write so the cookie header goes out
	r, owner := a.ensureCSRFToken(w, r)

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	m := a.hub.open(owner, func(m *mount) *gate.Page {
		return gate.NewPage(gate.Options{
			Notifier: gate.NotifierFunc(func(n gate.Notification) {
				a.queueJSON(m, "notify", n)
			}),
			Navigator: gate.NavigatorFunc(func(path string) {
				m.send(streamEvent{Name: "redirect", Data: []byte(path)})
			}),
			Scheduler: a.config.Scheduler,
			Observer:  a.config.Observer,
			Logger:    a.logger,
		})
	})
	a.config.Observer.MountOpened()
	defer func() {
		a.hub.remove(m.id)
		a.config.Observer.MountClosed()
	}()

	logger := a.logger.With("mount_id", m.id)
	logger.Debug("page mounted", "remote_addr", r.RemoteAddr)

	// Send initial mount event
	fmt.Fprintf(w, "event: mounted\ndata: {\"id\": %q}\n\n", m.id)
	flusher.Flush()

	a.queueRender(m, m.page.Render())
	a.refresh(r, m)

	poll := time.NewTicker(a.config.PollInterval)
	defer poll.Stop()

	// Heartbeat keeps proxies from dropping idle streams
	heartbeat := time.NewTicker(a.config.HeartbeatInterval)
	defer heartbeat.Stop()

	var lastRevision uint64
	for {
		select {
		case <-r.Context().Done():
			logger.Debug("page unmounted", "reason", "client disconnected")
			return

		case <-m.ctx.Done():
			logger.Debug("page unmounted", "reason", "mount closed")
			return

		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
			m.touch()

		case <-poll.C:
			a.refresh(r, m)

		case ev, ok := <-m.events:
			if !ok {
				return
			}
			// Renders can be queued out of order from different goroutines
			if ev.Name == "render" {
				if ev.Revision <= lastRevision {
					continue
				}
				lastRevision = ev.Revision
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
			m.touch()
		}
	}
}

// refresh re-resolves the connection's session and re-renders the page.
// A failed lookup keeps the last known session until the next poll.
func (a *Admin) refresh(r *http.Request, m *mount) {
	session, err := a.resolver.Resolve(r.Context(), r)
	if err != nil {
		if r.Context().Err() == nil {
			a.logger.Warn("failed to resolve session, keeping previous", "mount_id", m.id, "error", err)
		}
		return
	}
	a.queueRender(m, m.page.Update(session))
}

type tabResponse struct {
	Revision uint64   `json:"revision"`
	Active   gate.Tab `json:"active"`
}

// handleSelectTab switches the active tab of a live mount
func (a *Admin) handleSelectTab(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form data"})
		return
	}

	if !a.validateCSRF(r) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid CSRF token"})
		return
	}

	// Mounts are only visible to the browser that opened them
	m, ok := a.hub.get(r.PathValue("id"), getCSRFTokenFromCookie(r))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "mount not found"})
		return
	}

	tab, err := gate.ParseTab(r.FormValue("tab"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown tab"})
		return
	}

	frame, err := m.page.SelectTab(tab)
	switch {
	case errors.Is(err, gate.ErrUnmounted):
		writeJSON(w, http.StatusGone, map[string]string{"error": "page is no longer mounted"})
		return
	case errors.Is(err, gate.ErrTabUnavailable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "tabs are not available"})
		return
	case err != nil:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	a.queueRender(m, frame)
	writeJSON(w, http.StatusOK, tabResponse{Revision: frame.Revision, Active: frame.Active})
}

type renderEvent struct {
	Revision uint64 `json:"revision"`
	View     string `json:"view"`
	HTML     string `json:"html"`
}

// queueRender renders frame to HTML and queues it on the mount
func (a *Admin) queueRender(m *mount, frame gate.Frame) {
	html, err := a.renderFrame(m, frame)
	if err != nil {
		a.logger.Error("failed to render frame", "mount_id", m.id, "error", err)
		return
	}

	data, err := json.Marshal(renderEvent{Revision: frame.Revision, View: frame.View.String(), HTML: html})
	if err != nil {
		a.logger.Error("failed to marshal render event", "error", err)
		return
	}
	if !m.send(streamEvent{Name: "render", Data: data, Revision: frame.Revision}) {
		a.logger.Debug("render dropped", "mount_id", m.id, "revision", frame.Revision)
	}
}

// queueJSON queues a JSON-encoded event on the mount
func (a *Admin) queueJSON(m *mount, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		a.logger.Error("failed to marshal event", "event", name, "error", err)
		return
	}
	if !m.send(streamEvent{Name: name, Data: data}) {
		a.logger.Debug("event dropped", "mount_id", m.id, "event", name)
	}
}
