// internal/recording/recorder.go
package recording

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/capture"
	"github.com/xkilldash9x/caseforge-cli/internal/config"
	"github.com/xkilldash9x/caseforge-cli/internal/segmentation"
	"github.com/xkilldash9x/caseforge-cli/internal/synthesis"
)

// Recorder owns at most one active Session at a time.
type Recorder struct {
	logger      *zap.Logger
	launcher    schemas.BrowserLauncher
	launchOpts  schemas.LaunchOptions
	cfg         config.RecordingConfig
	segmenter   segmentation.Segmenter
	synthesizer *synthesis.Synthesizer

	mu         sync.Mutex
	active     *Session
	starting   bool
	onComplete CompletionFunc
}

// NewRecorder creates a recorder that launches browsers through launcher.
func NewRecorder(
	logger *zap.Logger,
	launcher schemas.BrowserLauncher,
	launchOpts schemas.LaunchOptions,
	cfg config.RecordingConfig,
	segmenter segmentation.Segmenter,
	synthesizer *synthesis.Synthesizer,
) *Recorder {
	return &Recorder{
		logger:      logger.Named("recorder"),
		launcher:    launcher,
		launchOpts:  launchOpts,
		cfg:         cfg,
		segmenter:   segmenter,
		synthesizer: synthesizer,
	}
}

// OnComplete registers fn to receive the test cases of every finalized session,
// whether it was stopped or the browser disconnected.
func (r *Recorder) OnComplete(fn CompletionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onComplete = fn
}

// Active returns the recording session, or nil.
func (r *Recorder) Active() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// ValidateTarget checks that target is an absolute http(s) URL.
func ValidateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return schemas.NewValidationError(schemas.ErrCodeInvalidTarget, "%q is not a valid URL: %v", target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return schemas.NewValidationError(schemas.ErrCodeInvalidTarget, "%q must use http or https", target)
	}
	if u.Host == "" {
		return schemas.NewValidationError(schemas.ErrCodeInvalidTarget, "%q has no host", target)
	}
	return nil
}

// Start launches a browser, installs capture and navigates to target. When
// creds is non-empty a login is attempted; its failure is not an error.
func (r *Recorder) Start(ctx context.Context, target string, creds *schemas.Credentials) (*Session, error) {
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.active != nil || r.starting {
		r.mu.Unlock()
		return nil, schemas.ErrSessionAlreadyActive
	}
	r.starting = true
	onComplete := r.onComplete
	r.mu.Unlock()

	s, err := r.start(ctx, target, creds, onComplete)

	r.mu.Lock()
	r.starting = false
	if err == nil {
		r.active = s
	}
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	go s.watch()
	return s, nil
}

func (r *Recorder) start(ctx context.Context, target string, creds *schemas.Credentials, onComplete CompletionFunc) (*Session, error) {
	controller, err := r.launcher.Launch(ctx, r.launchOpts)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := r.logger.With(zap.String("session_id", id), zap.String("target", target))

	buffer := capture.NewBuffer()
	capturer := capture.NewCapturer(logger, buffer, capture.ScriptOptions{
		ShowIndicator: r.cfg.ShowIndicator,
		MaxTextLength: r.cfg.MaxTextLength,
	})

	s := &Session{
		ID:         id,
		Target:     target,
		StartedAt:  time.Now(),
		logger:     logger,
		controller: controller,
		buffer:     buffer,
		pipeline:   r.process,
		onComplete: onComplete,
		release:    r.release,
		done:       make(chan struct{}),
	}

	abort := func(cause error) (*Session, error) {
		if cerr := controller.Close(context.Background()); cerr != nil {
			logger.Warn("Failed to close browser after a failed start.", zap.Error(cerr))
		}
		return nil, cause
	}

	if err := capturer.Install(ctx, controller); err != nil {
		return abort(err)
	}
	s.status.Store(int32(StatusRecording))

	if err := controller.Navigate(ctx, target); err != nil {
		return abort(err)
	}

	if !creds.Empty() {
		NewLoginExecutor(logger, controller, r.cfg.LoginTimeout, r.cfg.LoginAttemptInterval).Login(ctx, *creds)
	}

	logger.Info("Recording started.")
	return s, nil
}

// Stop finalizes the active session and returns its test cases. A session
// already being finalized after a disconnect is no longer recording, so Stop
// fails with ErrNoActiveSession; its result arrives through Session.Done.
func (r *Recorder) Stop(ctx context.Context) ([]schemas.TestCase, error) {
	s := r.Active()
	if s == nil || s.Status() != StatusRecording {
		return nil, schemas.ErrNoActiveSession
	}
	return s.finalize(ctx), nil
}

func (r *Recorder) release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == s {
		r.active = nil
	}
}

func (r *Recorder) process(interactions []schemas.Interaction) []schemas.TestCase {
	return r.synthesizer.FromGroups(r.segmenter.Segment(interactions))
}
