// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
)

// -- Browser Controller Mock --

// MockBrowserController mocks schemas.BrowserController. OnSignal and
// Disconnected are not mocked: handlers are recorded so tests can Emit
// signals, and Disconnect simulates the browser going away.
type MockBrowserController struct {
	mock.Mock

	mu       sync.Mutex
	handlers []schemas.SignalHandler

	disconnected chan struct{}
	disconnect   sync.Once
}

func NewMockBrowserController() *MockBrowserController {
	return &MockBrowserController{disconnected: make(chan struct{})}
}

func (m *MockBrowserController) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockBrowserController) OnSignal(handler schemas.SignalHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

func (m *MockBrowserController) ExposeBinding(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockBrowserController) AddInitScript(ctx context.Context, script string) error {
	return m.Called(ctx, script).Error(0)
}

func (m *MockBrowserController) Evaluate(ctx context.Context, script string, res interface{}) error {
	return m.Called(ctx, script, res).Error(0)
}

func (m *MockBrowserController) URL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockBrowserController) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockBrowserController) Disconnected() <-chan struct{} {
	return m.disconnected
}

// Emit delivers sig to every registered handler, as an engine goroutine would.
func (m *MockBrowserController) Emit(sig schemas.Signal) {
	m.mu.Lock()
	handlers := append([]schemas.SignalHandler(nil), m.handlers...)
	m.mu.Unlock()
	for _, h := range handlers {
		h(sig)
	}
}

// HandlerCount reports how many handlers were registered.
func (m *MockBrowserController) HandlerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers)
}

// Disconnect simulates the user closing the browser. Safe to call repeatedly.
func (m *MockBrowserController) Disconnect() {
	m.disconnect.Do(func() { close(m.disconnected) })
}

// SetBool is a Run helper for Evaluate expectations that decode into *bool.
func SetBool(v bool) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		if res, ok := args.Get(2).(*bool); ok {
			*res = v
		}
	}
}

// -- Browser Launcher Mock --

// MockBrowserLauncher mocks schemas.BrowserLauncher.
type MockBrowserLauncher struct {
	mock.Mock
}

func (m *MockBrowserLauncher) Launch(ctx context.Context, opts schemas.LaunchOptions) (schemas.BrowserController, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(schemas.BrowserController), args.Error(1)
}

// -- Document Reader Mock --

// MockDocumentReader mocks schemas.DocumentReader.
type MockDocumentReader struct {
	mock.Mock
}

func (m *MockDocumentReader) Read(ctx context.Context, data []byte, mediaType string) ([]schemas.UserStory, error) {
	args := m.Called(ctx, data, mediaType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schemas.UserStory), args.Error(1)
}

// -- Classifier Mock --

// MockClassifier mocks schemas.IntentClassifier.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(text string) schemas.Category {
	return m.Called(text).Get(0).(schemas.Category)
}
