// internal/recording/recorder_test.go
package recording

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/capture"
	"github.com/xkilldash9x/caseforge-cli/internal/config"
	"github.com/xkilldash9x/caseforge-cli/internal/mocks"
	"github.com/xkilldash9x/caseforge-cli/internal/segmentation"
	"github.com/xkilldash9x/caseforge-cli/internal/synthesis"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const target = "https://app.test/"

var testLaunchOpts = schemas.LaunchOptions{Headless: true}

// newController returns a controller mock that accepts the capture install,
// the initial navigation and Close.
func newController() *mocks.MockBrowserController {
	ctrl := mocks.NewMockBrowserController()
	ctrl.On("ExposeBinding", mock.Anything, capture.BindingName).Return(nil)
	ctrl.On("AddInitScript", mock.Anything, mock.AnythingOfType("string")).Return(nil)
	ctrl.On("Navigate", mock.Anything, target).Return(nil)
	ctrl.On("Close", mock.Anything).Return(nil)
	return ctrl
}

func newTestRecorder(t *testing.T, controllers ...*mocks.MockBrowserController) (*Recorder, *mocks.MockBrowserLauncher) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	launcher := new(mocks.MockBrowserLauncher)
	for _, c := range controllers {
		launcher.On("Launch", mock.Anything, testLaunchOpts).Return(c, nil).Once()
	}

	cfg := config.NewDefaultConfig()
	cfg.Recording.LoginTimeout = 20 * time.Millisecond
	cfg.Recording.LoginAttemptInterval = 0

	r := NewRecorder(logger, launcher, testLaunchOpts, cfg.Recording,
		segmentation.New(cfg.Segmentation),
		synthesis.New(logger, new(mocks.MockClassifier), cfg.Synthesis))
	return r, launcher
}

func TestStartRejectsInvalidTarget(t *testing.T) {
	r, launcher := newTestRecorder(t)

	for _, bad := range []string{"", "not a url", "/relative/path", "ftp://files.test/", "https://", "javascript:alert(1)"} {
		_, err := r.Start(context.Background(), bad, nil)
		assert.ErrorIs(t, err, schemas.ErrInvalidTarget, "target %q", bad)
		assert.ErrorIs(t, err, schemas.ErrValidation)
	}
	launcher.AssertNotCalled(t, "Launch", mock.Anything, mock.Anything)
	assert.Nil(t, r.Active())
}

func TestStartStopLifecycle(t *testing.T) {
	ctrl := newController()
	r, launcher := newTestRecorder(t, ctrl)

	s, err := r.Start(context.Background(), target, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusRecording, s.Status())
	assert.Same(t, s, r.Active())
	assert.Equal(t, 1, ctrl.HandlerCount())
	assert.NotEmpty(t, s.ID)

	ctrl.Emit(schemas.Signal{Kind: schemas.SignalFrameNavigated, URL: target, MainFrame: true})
	ctrl.Emit(schemas.Signal{
		Kind:    schemas.SignalBinding,
		Binding: capture.BindingName,
		Payload: `{"type":"click","target":{"tag":"button","text":"Save"}}`,
	})
	require.Len(t, s.Interactions(), 2)

	cases, err := r.Stop(context.Background())
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, schemas.CategoryFunctional, cases[0].Type)
	assert.Equal(t, schemas.CategoryUI, cases[1].Type)

	assert.Equal(t, StatusStopped, s.Status())
	assert.Nil(t, r.Active())
	assert.Equal(t, cases, s.Result())
	select {
	case <-s.Done():
	default:
		t.Fatal("expected session to be done after Stop")
	}

	// Events after stop are dropped.
	ctrl.Emit(schemas.Signal{Kind: schemas.SignalFrameNavigated, URL: target + "late", MainFrame: true})
	assert.Len(t, s.Interactions(), 2)

	_, err = r.Stop(context.Background())
	assert.ErrorIs(t, err, schemas.ErrNoActiveSession)

	ctrl.AssertNumberOfCalls(t, "Close", 1)
	launcher.AssertExpectations(t)
}

func TestStopWithoutInteractions(t *testing.T) {
	r, _ := newTestRecorder(t, newController())

	_, err := r.Start(context.Background(), target, nil)
	require.NoError(t, err)

	cases, err := r.Stop(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cases)
	assert.Empty(t, cases)
}

func TestStopWhenIdle(t *testing.T) {
	r, _ := newTestRecorder(t)
	_, err := r.Stop(context.Background())
	assert.ErrorIs(t, err, schemas.ErrNoActiveSession)
	assert.ErrorIs(t, err, schemas.ErrSessionState)
}

func TestSecondStartIsRejected(t *testing.T) {
	r, launcher := newTestRecorder(t, newController())

	_, err := r.Start(context.Background(), target, nil)
	require.NoError(t, err)

	_, err = r.Start(context.Background(), target, nil)
	assert.ErrorIs(t, err, schemas.ErrSessionAlreadyActive)
	launcher.AssertNumberOfCalls(t, "Launch", 1)

	_, err = r.Stop(context.Background())
	require.NoError(t, err)
}

func TestConcurrentStartAcquiresOnce(t *testing.T) {
	ctrl := newController()
	r, launcher := newTestRecorder(t, ctrl)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Start(context.Background(), target, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, schemas.ErrSessionAlreadyActive):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, rejected)
	launcher.AssertNumberOfCalls(t, "Launch", 1)

	_, err := r.Stop(context.Background())
	require.NoError(t, err)
}

func TestDisconnectFinalizes(t *testing.T) {
	ctrl := newController()
	r, _ := newTestRecorder(t, ctrl)

	completed := make(chan []schemas.TestCase, 1)
	r.OnComplete(func(s *Session, cases []schemas.TestCase) {
		completed <- cases
	})

	s, err := r.Start(context.Background(), target, nil)
	require.NoError(t, err)
	ctrl.Emit(schemas.Signal{Kind: schemas.SignalRequest, Method: "GET", URL: target + "api/items", ResourceType: schemas.ResourceXHR})

	ctrl.Disconnect()

	select {
	case cases := <-completed:
		require.Len(t, cases, 1)
		assert.Equal(t, schemas.CategoryFunctional, cases[0].Type)
	case <-time.After(2 * time.Second):
		t.Fatal("completion callback was not invoked after disconnect")
	}

	<-s.Done()
	assert.Equal(t, StatusStopped, s.Status())
	assert.Nil(t, r.Active())

	_, err = r.Stop(context.Background())
	assert.ErrorIs(t, err, schemas.ErrNoActiveSession)
	ctrl.AssertNumberOfCalls(t, "Close", 1)
}

func TestStopRacingDisconnectFinalizesOnce(t *testing.T) {
	ctrl := newController()
	r, _ := newTestRecorder(t, ctrl)

	var calls int
	var mu sync.Mutex
	r.OnComplete(func(*Session, []schemas.TestCase) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	s, err := r.Start(context.Background(), target, nil)
	require.NoError(t, err)

	go ctrl.Disconnect()
	if _, err := r.Stop(context.Background()); err != nil {
		// Disconnect won the race and already released the session.
		assert.ErrorIs(t, err, schemas.ErrNoActiveSession)
	}
	<-s.Done()

	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
	ctrl.AssertNumberOfCalls(t, "Close", 1)
}

func TestStopDuringDisconnectFinalize(t *testing.T) {
	closing := make(chan struct{})
	release := make(chan struct{})
	ctrl := mocks.NewMockBrowserController()
	ctrl.On("ExposeBinding", mock.Anything, capture.BindingName).Return(nil)
	ctrl.On("AddInitScript", mock.Anything, mock.AnythingOfType("string")).Return(nil)
	ctrl.On("Navigate", mock.Anything, target).Return(nil)
	ctrl.On("Close", mock.Anything).Run(func(mock.Arguments) {
		close(closing)
		<-release
	}).Return(nil)
	r, _ := newTestRecorder(t, ctrl)

	s, err := r.Start(context.Background(), target, nil)
	require.NoError(t, err)

	ctrl.Disconnect()
	<-closing
	assert.Equal(t, StatusStopped, s.Status())
	require.NotNil(t, r.Active(), "the slot is held until finalize completes")

	_, err = r.Stop(context.Background())
	assert.ErrorIs(t, err, schemas.ErrNoActiveSession)

	close(release)
	<-s.Done()
	assert.Nil(t, r.Active())
	ctrl.AssertNumberOfCalls(t, "Close", 1)
}

func TestStartFailureReleasesSlot(t *testing.T) {
	failing := mocks.NewMockBrowserController()
	failing.On("ExposeBinding", mock.Anything, capture.BindingName).Return(nil)
	failing.On("AddInitScript", mock.Anything, mock.Anything).Return(nil)
	failing.On("Navigate", mock.Anything, target).Return(errors.New("net::ERR_NAME_NOT_RESOLVED"))
	failing.On("Close", mock.Anything).Return(nil)

	r, _ := newTestRecorder(t, failing, newController())

	_, err := r.Start(context.Background(), target, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_NAME_NOT_RESOLVED")
	assert.Nil(t, r.Active())
	failing.AssertCalled(t, "Close", mock.Anything)

	s, err := r.Start(context.Background(), target, nil)
	require.NoError(t, err)
	assert.Same(t, s, r.Active())
	_, err = r.Stop(context.Background())
	require.NoError(t, err)
}

func TestLaunchFailure(t *testing.T) {
	r, launcher := newTestRecorder(t)
	launcher.On("Launch", mock.Anything, testLaunchOpts).Return(nil, errors.New("chrome not found"))

	_, err := r.Start(context.Background(), target, nil)
	assert.EqualError(t, err, "chrome not found")
	assert.Nil(t, r.Active())
}

func TestStartAttemptsLoginWithCredentials(t *testing.T) {
	ctrl := newController()
	// No candidate ever appears; login fails quietly and recording continues.
	ctrl.On("Evaluate", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(mocks.SetBool(false)).Return(nil)
	r, _ := newTestRecorder(t, ctrl)

	s, err := r.Start(context.Background(), target, &schemas.Credentials{Username: "bob", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, StatusRecording, s.Status())
	ctrl.AssertCalled(t, "Evaluate", mock.Anything, existsScript("#username"), mock.Anything)

	_, err = r.Stop(context.Background())
	require.NoError(t, err)
}

func TestStartSkipsLoginWithoutCredentials(t *testing.T) {
	ctrl := newController()
	r, _ := newTestRecorder(t, ctrl)

	_, err := r.Start(context.Background(), target, &schemas.Credentials{Username: "bob"})
	require.NoError(t, err)
	ctrl.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)

	_, err = r.Stop(context.Background())
	require.NoError(t, err)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "recording", StatusRecording.String())
	assert.Equal(t, "stopped", StatusStopped.String())
	assert.Equal(t, "unknown", Status(42).String())
}
