// ABOUTME: Thread-safe attempt counter for throttling repeated login attempts.
// ABOUTME: Keys lock out after too many attempts within a window, oldest keys evict first.

package throttle

import (
	"container/list"
	"sync"
	"time"
)

const (
	// DefaultMaxFailures is how many failures a key may accrue before it is locked out.
	DefaultMaxFailures = 5

	// DefaultWindow is how long failures count against a key.
	DefaultWindow = 15 * time.Minute

	// DefaultMaxKeys bounds memory under a spray of distinct usernames.
	DefaultMaxKeys = 10000
)

// entry tracks unreset attempts for one key since its window opened.
type entry struct {
	attempts int
	opened   time.Time
	element  *list.Element
}

// Limiter tracks attempts per key that have not been Reset. A key whose
// window has passed starts over from zero. When full, the key whose window
// opened first is evicted.
type Limiter struct {
	mu          sync.Mutex
	entries     map[string]*entry
	order       *list.List // keys by window start, oldest at front
	window      time.Duration
	maxFailures int
	maxKeys     int
	now         func() time.Time
	done        chan struct{}
	closed      bool
}

// New creates a limiter and starts its background sweep. Non-positive
// arguments fall back to the package defaults.
func New(maxFailures int, window time.Duration, maxKeys int) *Limiter {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	l := &Limiter{
		entries:     make(map[string]*entry),
		order:       list.New(),
		window:      window,
		maxFailures: maxFailures,
		maxKeys:     maxKeys,
		now:         time.Now,
		done:        make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Reserve counts an attempt against key and reports whether it may proceed.
// A key already at its failure limit is refused and its count is left alone.
// Callers Reset the key when the attempt succeeds.
func (l *Limiter) Reserve(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok {
		if !l.expired(e) {
			if e.attempts >= l.maxFailures {
				return false
			}
			e.attempts++
			return true
		}
		l.removeLocked(key, e)
	}

	if len(l.entries) >= l.maxKeys {
		l.evictOldest()
	}

	l.entries[key] = &entry{
		attempts: 1,
		opened:   l.now(),
		element:  l.order.PushBack(key),
	}
	return true
}

// Attempts returns how many attempts count against key in its current window.
func (l *Limiter) Attempts(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || l.expired(e) {
		return 0
	}
	return e.attempts
}

// Reset forgets key, typically after a successful attempt.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok {
		l.removeLocked(key, e)
	}
}

// Len returns the number of tracked keys, expired or not.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) expired(e *entry) bool {
	return l.now().Sub(e.opened) >= l.window
}

// removeLocked must be called with mu held.
func (l *Limiter) removeLocked(key string, e *entry) {
	l.order.Remove(e.element)
	delete(l.entries, key)
}

// evictOldest must be called with mu held.
func (l *Limiter) evictOldest() {
	front := l.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	l.order.Remove(front)
	delete(l.entries, key)
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.done:
			return
		}
	}
}

// sweep drops expired keys from the front of the order list. Windows open
// in list order, so the first live key ends the scan.
func (l *Limiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for front := l.order.Front(); front != nil; front = l.order.Front() {
		key, _ := front.Value.(string)
		e := l.entries[key]
		if e == nil || !l.expired(e) {
			break
		}
		l.removeLocked(key, e)
		removed++
	}
	return removed
}

// Close stops the background sweep. It is safe to call multiple times.
func (l *Limiter) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		close(l.done)
		l.closed = true
	}
}
