// Package quota counts upstream calls made on behalf of anonymous sessions.
// Authenticated callers never touch the tracker.
package quota

import "sync"

// Tracker keeps a per-session counter of dispatched upstream calls against a
// fixed ceiling. Counters only grow; they disappear when the owning session
// does (Forget is wired to session expiry).
type Tracker struct {
	mu    sync.Mutex
	calls map[string]int
	limit int
}

// NewTracker creates a tracker with the given call ceiling.
func NewTracker(limit int) *Tracker {
	return &Tracker{
		calls: make(map[string]int),
		limit: limit,
	}
}

// Remaining reports whether the session may still dispatch upstream calls.
func (t *Tracker) Remaining(sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[sessionID] < t.limit
}

// Increment records one upstream dispatch for the session. It is called
// exactly once per request that is about to go upstream anonymously.
func (t *Tracker) Increment(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[sessionID]++
}

// Count returns the calls made so far by the session.
func (t *Tracker) Count(sessionID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[sessionID]
}

// Limit returns the configured ceiling.
func (t *Tracker) Limit() int {
	return t.limit
}

// Forget drops the counter for a destroyed session.
func (t *Tracker) Forget(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.calls, sessionID)
}
