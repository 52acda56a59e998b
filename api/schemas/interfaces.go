package schemas

import (
	"context"
)

// -- Browser Interfaces --

// BrowserLauncher acquires a fresh, exclusively owned browser.
type BrowserLauncher interface {
	// Launch starts a browser with a single page ready for navigation.
	Launch(ctx context.Context, opts LaunchOptions) (BrowserController, error)
}

// BrowserController is the narrow set of browser primitives the recorder
// needs. Implementations exist for chromedp and rod; tests use fakes.
type BrowserController interface {
	// Navigate loads url in the top-level frame and blocks until the network
	// is quiet or the navigation timeout elapses.
	Navigate(ctx context.Context, url string) error
	// OnSignal registers a handler for navigation, network and binding
	// signals. Handlers registered before Navigate see every signal.
	OnSignal(handler SignalHandler)
	// ExposeBinding installs a page-callable function named name whose calls
	// surface as SignalBinding signals.
	ExposeBinding(ctx context.Context, name string) error
	// AddInitScript evaluates script in every new document before page scripts run.
	AddInitScript(ctx context.Context, script string) error
	// Evaluate runs script in the current document and decodes the result into res.
	// res may be nil.
	Evaluate(ctx context.Context, script string, res interface{}) error
	// URL returns the current top-level document URL.
	URL(ctx context.Context) (string, error)
	// Close releases the browser. It is safe to call more than once.
	Close(ctx context.Context) error
	// Disconnected is closed when the browser goes away for any reason,
	// including the user closing the window.
	Disconnected() <-chan struct{}
}

// -- Document Interfaces --

// DocumentReader turns an uploaded document into normalized user stories.
type DocumentReader interface {
	// Read parses data according to mediaType. Unsupported media types fail
	// with ErrUnsupportedMediaType.
	Read(ctx context.Context, data []byte, mediaType string) ([]UserStory, error)
}

// -- Classification Interfaces --

// IntentClassifier maps free text to a test category. It never fails.
type IntentClassifier interface {
	Classify(text string) Category
}
