// internal/recording/session.go
package recording

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/browser"
	"github.com/xkilldash9x/caseforge-cli/internal/capture"
)

// Status is the lifecycle state of a Session.
type Status int32

const (
	StatusIdle Status = iota
	StatusRecording
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRecording:
		return "recording"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// closeTimeout bounds how long finalization waits for the browser to exit.
const closeTimeout = 10 * time.Second

// CompletionFunc receives the test cases of a finalized session.
type CompletionFunc func(s *Session, cases []schemas.TestCase)

// Session is one capture session. It owns its browser and interaction buffer
// until it is finalized.
type Session struct {
	ID        string
	Target    string
	StartedAt time.Time

	logger     *zap.Logger
	controller schemas.BrowserController
	buffer     *capture.Buffer
	status     atomic.Int32

	// pipeline turns the sealed buffer into test cases.
	pipeline   func([]schemas.Interaction) []schemas.TestCase
	onComplete CompletionFunc
	release    func(*Session)

	finalizeOnce sync.Once
	result       []schemas.TestCase
	done         chan struct{}
}

func (s *Session) Status() Status {
	return Status(s.status.Load())
}

// Interactions returns a snapshot of what has been captured so far.
func (s *Session) Interactions() []schemas.Interaction {
	return s.buffer.Snapshot()
}

// Done is closed once the session has been finalized.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Result returns the synthesized test cases. It is nil until Done is closed.
func (s *Session) Result() []schemas.TestCase {
	select {
	case <-s.done:
		return s.result
	default:
		return nil
	}
}

// watch finalizes the session if the browser goes away while recording.
func (s *Session) watch() {
	select {
	case <-s.controller.Disconnected():
		s.logger.Info("Browser closed while recording; finalizing session.")
		s.finalize(context.Background())
	case <-s.done:
	}
}

// finalize seals the buffer, synthesizes the test cases and releases the
// browser. Concurrent callers block until the first one finishes and then
// all see the same result.
func (s *Session) finalize(ctx context.Context) []schemas.TestCase {
	s.finalizeOnce.Do(func() {
		s.status.Store(int32(StatusStopped))
		interactions := s.buffer.Seal()
		s.result = s.pipeline(interactions)

		closeCtx, cancel := context.WithTimeout(browser.Detach(ctx), closeTimeout)
		if err := s.controller.Close(closeCtx); err != nil {
			s.logger.Warn("Failed to close browser cleanly.", zap.Error(err))
		}
		cancel()

		s.logger.Info("Recording session finalized.",
			zap.Int("interactions", len(interactions)),
			zap.Int("test_cases", len(s.result)),
			zap.Duration("duration", time.Since(s.StartedAt)))

		if s.release != nil {
			s.release(s)
		}
		close(s.done)
		if s.onComplete != nil {
			s.onComplete(s, s.result)
		}
	})
	return s.result
}
