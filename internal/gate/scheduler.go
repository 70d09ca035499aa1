// ABOUTME: One-shot scheduling abstraction for the deferred redirect
// ABOUTME: SystemScheduler is backed by time.AfterFunc

package gate

import "time"

// Timer is a pending scheduled call.
type Timer interface {
	// Stop prevents the call from running. It returns false if the call
	// already ran or was already stopped.
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler schedules on the runtime timer.
type SystemScheduler struct{}

// AfterFunc implements Scheduler.
func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
