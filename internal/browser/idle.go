// internal/browser/idle.go
package browser

import (
	"context"
	"sync"
	"time"
)

const minIdlePoll = 10 * time.Millisecond

// IdleTracker counts in-flight requests so navigation can wait for the
// network to go quiet. Engines feed it from their network events.
type IdleTracker struct {
	mu           sync.Mutex
	inflight     map[string]struct{}
	lastActivity time.Time
}

func NewIdleTracker() *IdleTracker {
	return &IdleTracker{inflight: make(map[string]struct{}), lastActivity: time.Now()}
}

// RequestStarted marks id as in flight.
func (t *IdleTracker) RequestStarted(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.lastActivity = time.Now()
}

// RequestFinished clears id. Unknown ids are ignored.
func (t *IdleTracker) RequestFinished(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[id]; ok {
		delete(t.inflight, id)
		t.lastActivity = time.Now()
	}
}

// Inflight returns the number of outstanding requests.
func (t *IdleTracker) Inflight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// Wait blocks until no request has been in flight for quiet, or ctx is done.
func (t *IdleTracker) Wait(ctx context.Context, quiet time.Duration) error {
	poll := quiet / 2
	if poll < minIdlePoll {
		poll = minIdlePoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		t.mu.Lock()
		idle := len(t.inflight) == 0 && time.Since(t.lastActivity) >= quiet
		t.mu.Unlock()
		if idle {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
