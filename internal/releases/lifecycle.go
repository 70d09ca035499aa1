// ABOUTME: Release status transitions
// ABOUTME: Encodes which status changes the lifecycle allows

package releases

import (
	"github.com/2389/labeldesk/internal/store"
)

var transitions = map[store.ReleaseStatus][]store.ReleaseStatus{
	store.ReleaseStatusDraft:     {store.ReleaseStatusSubmitted},
	store.ReleaseStatusSubmitted: {store.ReleaseStatusApproved, store.ReleaseStatusRejected},
	store.ReleaseStatusRejected:  {store.ReleaseStatusDraft},
	store.ReleaseStatusApproved:  {store.ReleaseStatusLive},
	store.ReleaseStatusLive:      nil,
}

// CanTransition reports whether a release may move from one status to another.
func CanTransition(from, to store.ReleaseStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s store.ReleaseStatus) []store.ReleaseStatus {
	next := transitions[s]
	out := make([]store.ReleaseStatus, len(next))
	copy(out, next)
	return out
}
