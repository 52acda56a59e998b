package schemas

import "time"

// -- Browser Signal Schemas --

// SignalKind classifies the low-level events a BrowserController emits.
type SignalKind string

const (
	// SignalFrameNavigated fires when any frame commits a navigation.
	SignalFrameNavigated SignalKind = "frame_navigated"
	// SignalRequest fires for every outgoing network request.
	SignalRequest SignalKind = "request"
	// SignalBinding fires when the in-page recorder calls back into Go.
	SignalBinding SignalKind = "binding"
)

// ResourceType mirrors the CDP resource type of a request, lowercased.
type ResourceType string

const (
	ResourceXHR      ResourceType = "xhr"
	ResourceFetch    ResourceType = "fetch"
	ResourceDocument ResourceType = "document"
	ResourceOther    ResourceType = "other"
)

// Signal is an engine-neutral browser event. Only the fields relevant to
// Kind are populated.
type Signal struct {
	Kind SignalKind

	// Navigation
	URL       string
	MainFrame bool

	// Request
	Method       string
	ResourceType ResourceType

	// Binding
	Binding string
	Payload string
}

// SignalHandler receives signals. Handlers are invoked from engine
// goroutines and must not block.
type SignalHandler func(Signal)

// Viewport is the window size of a launched browser.
type Viewport struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	Headless          bool
	IgnoreTLSErrors   bool
	InterceptRequests bool
	Viewport          Viewport
	Args              []string
	NavigationTimeout time.Duration
	// IdleQuietPeriod is how long the network must stay quiet for Navigate to return.
	IdleQuietPeriod time.Duration
}
