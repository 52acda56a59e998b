// internal/browser/context_utils.go
package browser

import (
	"context"
	"time"
)

// CombineContext returns a context carrying primary's values (for chromedp,
// the CDP target) that is canceled when either primary or operational is done.
func CombineContext(primary, operational context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	stop := context.AfterFunc(operational, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}

// detached keeps the values of its parent but none of its cancellation.
type detached struct {
	context.Context
}

func (detached) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detached) Done() <-chan struct{}       { return nil }
func (detached) Err() error                  { return nil }

// Detach returns a context with ctx's values that outlives ctx. Browser
// processes are started under it so they survive the request that launched them.
func Detach(ctx context.Context) context.Context {
	return detached{ctx}
}
