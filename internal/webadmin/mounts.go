// ABOUTME: Live admin page mounts shared between the stream and tab endpoints
// ABOUTME: Each mount owns a gate.Page and an outbound event queue

package webadmin

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/labeldesk/internal/gate"
)

// streamEvent is one server-sent event queued for a mount's stream
type streamEvent struct {
	Name     string
	Data     []byte
	Revision uint64 // render events only
}

// mount is one open admin page, alive for as long as its stream is
type mount struct {
	id    string
	owner string // CSRF token of the browser that opened it
	page  *gate.Page

	mu       sync.RWMutex
	events   chan streamEvent
	closed   bool
	cancel   context.CancelFunc
	ctx      context.Context
	openedAt time.Time
	lastSeen time.Time
}

// send safely queues an event on the mount
// Returns false if the mount is closed or the queue is full
func (m *mount) send(ev streamEvent) bool {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return false
	}
	// Hold the read lock while sending to prevent close during send
	select {
	case m.events <- ev:
		m.mu.RUnlock()
		return true
	default:
		m.mu.RUnlock()
		return false
	}
}

// touch records stream activity
func (m *mount) touch() {
	m.mu.Lock()
	m.lastSeen = time.Now()
	m.mu.Unlock()
}

// close safely closes the mount and unmounts its page
func (m *mount) close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.cancel()
	close(m.events)
	m.mu.Unlock()

	m.page.Unmount()
}

// mountHub tracks live mounts by id
type mountHub struct {
	mu        sync.RWMutex
	mounts    map[string]*mount
	idleLimit time.Duration
	cancel    context.CancelFunc
}

func newMountHub(idleLimit time.Duration) *mountHub {
	ctx, cancel := context.WithCancel(context.Background())
	hub := &mountHub{
		mounts:    make(map[string]*mount),
		idleLimit: idleLimit,
		cancel:    cancel,
	}
	go hub.cleanupLoop(ctx)
	return hub
}

// open registers a new mount owned by the given browser token. build
// creates the mount's page; it runs before the mount becomes visible.
func (h *mountHub) open(owner string, build func(m *mount) *gate.Page) *mount {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	m := &mount{
		id:       uuid.New().String(),
		owner:    owner,
		events:   make(chan streamEvent, 64),
		cancel:   cancel,
		ctx:      ctx,
		openedAt: now,
		lastSeen: now,
	}
	m.page = build(m)

	h.mu.Lock()
	h.mounts[m.id] = m
	h.mu.Unlock()
	return m
}

// get returns a live mount if it exists and belongs to owner
func (h *mountHub) get(id, owner string) (*mount, bool) {
	h.mu.RLock()
	m, ok := h.mounts[id]
	h.mu.RUnlock()

	if !ok || owner == "" || m.owner != owner {
		return nil, false
	}
	return m, true
}

// remove closes and forgets a mount
func (h *mountHub) remove(id string) {
	h.mu.Lock()
	m, ok := h.mounts[id]
	delete(h.mounts, id)
	h.mu.Unlock()

	if ok {
		m.close()
	}
}

// count returns the number of live mounts
func (h *mountHub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.mounts)
}

// cleanupLoop periodically closes mounts whose stream stopped making progress
func (h *mountHub) cleanupLoop(ctx context.Context) {
	interval := h.idleLimit / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.closeIdle(time.Now())
		}
	}
}

// closeIdle closes mounts with no stream activity within idleLimit
func (h *mountHub) closeIdle(now time.Time) int {
	var stale []*mount

	h.mu.Lock()
	for id, m := range h.mounts {
		m.mu.RLock()
		idle := now.Sub(m.lastSeen)
		m.mu.RUnlock()

		if idle > h.idleLimit {
			stale = append(stale, m)
			delete(h.mounts, id)
		}
	}
	h.mu.Unlock()

	for _, m := range stale {
		m.close()
	}
	return len(stale)
}

// Close closes all mounts and stops the cleanup goroutine
func (h *mountHub) Close() {
	h.cancel()

	h.mu.Lock()
	mounts := make([]*mount, 0, len(h.mounts))
	for id, m := range h.mounts {
		mounts = append(mounts, m)
		delete(h.mounts, id)
	}
	h.mu.Unlock()

	for _, m := range mounts {
		m.close()
	}
}
