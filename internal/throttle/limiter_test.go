// ABOUTME: Tests for the failed-attempt limiter used on the login route.
// ABOUTME: Covers lockout, window expiry, reset, eviction, sweep and atomic reservation.

package throttle

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clock is a settable time source for the limiter.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(t *testing.T, maxFailures int, window time.Duration, maxKeys int) (*Limiter, *clock) {
	t.Helper()
	l := New(maxFailures, window, maxKeys)
	t.Cleanup(l.Close)
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	l.now = c.now
	return l, c
}

func TestLimiter_LocksOutAfterMaxFailures(t *testing.T) {
	l, _ := newTestLimiter(t, 3, time.Minute, 10)

	for i := 1; i <= 3; i++ {
		assert.True(t, l.Reserve("harper"), "attempt %d", i)
		assert.Equal(t, i, l.Attempts("harper"))
	}
	assert.False(t, l.Reserve("harper"))
	assert.Equal(t, 3, l.Attempts("harper"), "refused attempts don't count")

	// Other keys are unaffected
	assert.True(t, l.Reserve("sam"))
}

func TestLimiter_WindowExpiry(t *testing.T) {
	l, c := newTestLimiter(t, 2, time.Minute, 10)

	l.Reserve("harper")
	l.Reserve("harper")
	require.False(t, l.Reserve("harper"))

	c.advance(59 * time.Second)
	assert.False(t, l.Reserve("harper"))

	// An attempt after expiry opens a fresh window
	c.advance(time.Second)
	assert.Equal(t, 0, l.Attempts("harper"))
	assert.True(t, l.Reserve("harper"))
	assert.Equal(t, 1, l.Attempts("harper"))
}

func TestLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute, 10)

	l.Reserve("harper")
	require.False(t, l.Reserve("harper"))

	l.Reset("harper")
	assert.Equal(t, 0, l.Len())
	assert.True(t, l.Reserve("harper"))

	// Resetting an unknown key is a no-op
	l.Reset("nobody")
}

func TestLimiter_EvictsOldestWindow(t *testing.T) {
	l, c := newTestLimiter(t, 1, time.Hour, 3)

	for i := 0; i < 3; i++ {
		l.Reserve(fmt.Sprintf("user-%d", i))
		c.advance(time.Second)
	}
	require.Equal(t, 3, l.Len())

	// Refused attempts don't move a key's window
	require.False(t, l.Reserve("user-0"))

	l.Reserve("user-3")
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 0, l.Attempts("user-0"), "oldest window should be evicted")
	assert.False(t, l.Reserve("user-1"))
	assert.False(t, l.Reserve("user-3"))
}

func TestLimiter_Sweep(t *testing.T) {
	l, c := newTestLimiter(t, 5, time.Minute, 10)

	l.Reserve("early")
	c.advance(30 * time.Second)
	l.Reserve("late")
	c.advance(45 * time.Second)

	assert.Equal(t, 1, l.sweep())
	assert.Equal(t, 1, l.Len())

	c.advance(time.Minute)
	assert.Equal(t, 1, l.sweep())
	assert.Equal(t, 0, l.Len())
}

func TestLimiter_ReserveIsAtomic(t *testing.T) {
	l := New(5, time.Minute, 10)
	defer l.Close()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	start := make(chan struct{})
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if l.Reserve("root") {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 5, granted)
	assert.Equal(t, 5, l.Attempts("root"))
}

func TestLimiter_Defaults(t *testing.T) {
	l := New(0, 0, 0)
	defer l.Close()

	assert.Equal(t, DefaultMaxFailures, l.maxFailures)
	assert.Equal(t, DefaultWindow, l.window)
	assert.Equal(t, DefaultMaxKeys, l.maxKeys)
}

func TestLimiter_CloseTwice(t *testing.T) {
	l := New(1, time.Minute, 1)
	l.Close()
	assert.NotPanics(t, l.Close)
}

func TestLimiter_Concurrent(t *testing.T) {
	l := New(1000, time.Minute, 100)
	defer l.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("user-%d", i%5)
			l.Reserve(key)
			l.Attempts(key)
			if i%10 == 0 {
				l.Reset(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, l.Len(), 5)
}
