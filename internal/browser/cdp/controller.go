// internal/browser/cdp/controller.go
package cdp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	cdptypes "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/browser"
)

// Controller drives a single Chrome tab over the DevTools protocol.
type Controller struct {
	logger *zap.Logger
	opts   schemas.LaunchOptions

	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc

	idle *browser.IdleTracker

	// Set once the tab is attached.
	tabID     target.ID
	sessionID target.SessionID

	handlersMu sync.RWMutex
	handlers   []schemas.SignalHandler

	disconnected     chan struct{}
	disconnectedOnce sync.Once
	closeOnce        sync.Once
}

var _ schemas.BrowserController = (*Controller)(nil)

func newController(logger *zap.Logger, opts schemas.LaunchOptions, tabCtx context.Context, tabCancel, allocCancel context.CancelFunc) *Controller {
	return &Controller{
		logger:       logger,
		opts:         opts,
		tabCtx:       tabCtx,
		tabCancel:    tabCancel,
		allocCancel:  allocCancel,
		idle:         browser.NewIdleTracker(),
		disconnected: make(chan struct{}),
	}
}

// start subscribes to tab and browser events and enables the CDP domains the
// recorder depends on.
func (c *Controller) start(ctx context.Context) error {
	chromedp.ListenTarget(c.tabCtx, c.onTargetEvent)

	if tab := chromedp.FromContext(c.tabCtx).Target; tab != nil {
		c.tabID = tab.TargetID
		c.sessionID = tab.SessionID
	}
	chromedp.ListenBrowser(c.tabCtx, c.onBrowserEvent)

	go func() {
		<-c.tabCtx.Done()
		c.markDisconnected("tab context done")
	}()

	actions := chromedp.Tasks{
		network.Enable(),
		page.Enable(),
		runtime.Enable(),
	}
	if c.opts.InterceptRequests {
		actions = append(actions, fetch.Enable())
	}
	runCtx, cancel := browser.CombineContext(c.tabCtx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, actions); err != nil {
		return fmt.Errorf("failed to enable CDP domains: %w", err)
	}
	return nil
}

func (c *Controller) onBrowserEvent(ev interface{}) {
	switch e := ev.(type) {
	case *target.EventTargetDestroyed:
		if c.tabID != "" && e.TargetID == c.tabID {
			c.markDisconnected("target destroyed")
		}
	case *target.EventDetachedFromTarget:
		if c.sessionID != "" && e.SessionID == c.sessionID {
			c.markDisconnected("detached from target")
		}
	}
}

func (c *Controller) onTargetEvent(ev interface{}) {
	switch e := ev.(type) {
	case *page.EventFrameNavigated:
		c.emit(schemas.Signal{
			Kind:      schemas.SignalFrameNavigated,
			URL:       e.Frame.URL + e.Frame.URLFragment,
			MainFrame: e.Frame.ParentID == "",
		})

	case *network.EventRequestWillBeSent:
		c.idle.RequestStarted(string(e.RequestID))
		c.emit(schemas.Signal{
			Kind:         schemas.SignalRequest,
			URL:          e.Request.URL,
			Method:       e.Request.Method,
			ResourceType: resourceType(e.Type),
		})
	case *network.EventLoadingFinished:
		c.idle.RequestFinished(string(e.RequestID))
	case *network.EventLoadingFailed:
		c.idle.RequestFinished(string(e.RequestID))

	case *runtime.EventBindingCalled:
		c.emit(schemas.Signal{Kind: schemas.SignalBinding, Binding: e.Name, Payload: e.Payload})

	case *fetch.EventRequestPaused:
		// Listeners must not block; the continue is issued from its own goroutine.
		go c.continueRequest(e.RequestID)

	case *inspector.EventDetached:
		c.markDisconnected("inspector detached: " + string(e.Reason))
	}
}

func (c *Controller) continueRequest(id fetch.RequestID) {
	execCtx := cdptypes.WithExecutor(c.tabCtx, chromedp.FromContext(c.tabCtx).Target)
	if err := fetch.ContinueRequest(id).Do(execCtx); err != nil && c.tabCtx.Err() == nil {
		c.logger.Debug("Failed to continue paused request.", zap.String("request_id", string(id)), zap.Error(err))
	}
}

func resourceType(t network.ResourceType) schemas.ResourceType {
	switch t {
	case network.ResourceTypeXHR:
		return schemas.ResourceXHR
	case network.ResourceTypeFetch:
		return schemas.ResourceFetch
	case network.ResourceTypeDocument:
		return schemas.ResourceDocument
	default:
		return schemas.ResourceOther
	}
}

func (c *Controller) emit(sig schemas.Signal) {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	for _, h := range c.handlers {
		h(sig)
	}
}

func (c *Controller) markDisconnected(reason string) {
	c.disconnectedOnce.Do(func() {
		c.logger.Info("Browser disconnected.", zap.String("reason", reason))
		close(c.disconnected)
	})
}

// run executes actions against the tab, bounded by ctx.
func (c *Controller) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := browser.CombineContext(c.tabCtx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (c *Controller) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := browser.CombineContext(c.tabCtx, ctx)
	defer cancel()
	if c.opts.NavigationTimeout > 0 {
		var cancelTimeout context.CancelFunc
		navCtx, cancelTimeout = context.WithTimeout(navCtx, c.opts.NavigationTimeout)
		defer cancelTimeout()
	}

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := c.idle.Wait(navCtx, c.opts.IdleQuietPeriod); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Long-polling pages never go quiet; the document itself has loaded.
		c.logger.Warn("Network did not become idle before the navigation timeout.",
			zap.String("url", url), zap.Int("inflight", c.idle.Inflight()))
	}
	return nil
}

func (c *Controller) OnSignal(handler schemas.SignalHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers = append(c.handlers, handler)
}

func (c *Controller) ExposeBinding(ctx context.Context, name string) error {
	return c.run(ctx, runtime.AddBinding(name))
}

func (c *Controller) AddInitScript(ctx context.Context, script string) error {
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
		return err
	}))
}

func (c *Controller) Evaluate(ctx context.Context, script string, res interface{}) error {
	return c.run(ctx, chromedp.Evaluate(script, res))
}

func (c *Controller) URL(ctx context.Context) (string, error) {
	var loc string
	if err := c.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// Close shuts the browser down. Later calls are no-ops.
func (c *Controller) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		// chromedp.Cancel closes the browser gracefully, unlike a plain cancel.
		if cerr := chromedp.Cancel(c.tabCtx); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = fmt.Errorf("failed to close browser: %w", cerr)
		}
		c.tabCancel()
		c.allocCancel()
		c.markDisconnected("closed")
	})
	return err
}

func (c *Controller) Disconnected() <-chan struct{} {
	return c.disconnected
}
