// internal/browser/rodengine/controller.go
package rodengine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/browser"
)

// Launcher starts Chrome through go-rod.
type Launcher struct {
	logger *zap.Logger
}

var _ schemas.BrowserLauncher = (*Launcher)(nil)

func NewLauncher(logger *zap.Logger) *Launcher {
	return &Launcher{logger: logger.Named("rod")}
}

// Launch starts a browser with one blank page.
func (l *Launcher) Launch(ctx context.Context, opts schemas.LaunchOptions) (schemas.BrowserController, error) {
	lnch := ConfigureLauncher(launcher.New(), opts)
	// An installed browser is preferred over rod's download.
	if bin, ok := launcher.LookPath(); ok {
		lnch = lnch.Bin(bin)
	}

	controlURL, err := lnch.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch Chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		lnch.Kill()
		return nil, fmt.Errorf("connect to Chrome: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		lnch.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}

	c := &Controller{
		logger:       l.logger,
		opts:         opts,
		browser:      b,
		page:         page,
		launcher:     lnch,
		idle:         browser.NewIdleTracker(),
		disconnected: make(chan struct{}),
	}
	c.start()
	l.logger.Info("Chrome launched", zap.String("cdp", controlURL), zap.Bool("headless", opts.Headless))
	return c, nil
}

// ConfigureLauncher applies launch options to a rod launcher.
func ConfigureLauncher(l *launcher.Launcher, opts schemas.LaunchOptions) *launcher.Launcher {
	l = l.Headless(opts.Headless).
		Set("no-first-run").
		Set("no-default-browser-check")
	if opts.Headless {
		l = l.Set("disable-gpu")
	}
	if opts.IgnoreTLSErrors {
		l = l.Set("ignore-certificate-errors")
	}
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", opts.Viewport.Width, opts.Viewport.Height))
	}
	for _, arg := range opts.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if key == "" {
			continue
		}
		if found {
			l = l.Set(flags.Flag(key), value)
		} else {
			l = l.Set(flags.Flag(key))
		}
	}
	return l
}

// Controller drives one rod page.
type Controller struct {
	logger   *zap.Logger
	opts     schemas.LaunchOptions
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	router   *rod.HijackRouter

	idle *browser.IdleTracker

	handlersMu sync.RWMutex
	handlers   []schemas.SignalHandler

	disconnected     chan struct{}
	disconnectedOnce sync.Once
	closeOnce        sync.Once
}

var _ schemas.BrowserController = (*Controller)(nil)

func (c *Controller) start() {
	wait := c.page.EachEvent(
		func(e *proto.PageFrameNavigated) {
			c.emit(schemas.Signal{
				Kind:      schemas.SignalFrameNavigated,
				URL:       e.Frame.URL,
				MainFrame: e.Frame.ParentID == "",
			})
		},
		func(e *proto.NetworkRequestWillBeSent) {
			c.idle.RequestStarted(string(e.RequestID))
			c.emit(schemas.Signal{
				Kind:         schemas.SignalRequest,
				URL:          e.Request.URL,
				Method:       e.Request.Method,
				ResourceType: resourceType(e.Type),
			})
		},
		func(e *proto.NetworkLoadingFinished) { c.idle.RequestFinished(string(e.RequestID)) },
		func(e *proto.NetworkLoadingFailed) { c.idle.RequestFinished(string(e.RequestID)) },
		func(e *proto.RuntimeBindingCalled) {
			c.emit(schemas.Signal{Kind: schemas.SignalBinding, Binding: e.Name, Payload: e.Payload})
		},
	)
	go func() {
		// wait returns when the page's event stream ends.
		wait()
		c.markDisconnected("page event stream closed")
	}()

	targetID := c.page.TargetID
	waitDestroyed := c.browser.EachEvent(func(e *proto.TargetTargetDestroyed) bool {
		return e.TargetID == targetID
	})
	go func() {
		waitDestroyed()
		c.markDisconnected("target destroyed")
	}()

	if c.opts.InterceptRequests {
		c.router = c.page.HijackRequests()
		if err := c.router.Add("*", "", func(h *rod.Hijack) {
			h.ContinueRequest(&proto.FetchContinueRequest{})
		}); err != nil {
			c.logger.Warn("Failed to install request interception.", zap.Error(err))
			return
		}
		go c.router.Run()
	}
}

func resourceType(t proto.NetworkResourceType) schemas.ResourceType {
	switch t {
	case proto.NetworkResourceTypeXHR:
		return schemas.ResourceXHR
	case proto.NetworkResourceTypeFetch:
		return schemas.ResourceFetch
	case proto.NetworkResourceTypeDocument:
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

func (c *Controller) Navigate(ctx context.Context, url string) error {
	navCtx := ctx
	if c.opts.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, c.opts.NavigationTimeout)
		defer cancel()
	}
	if err := c.page.Context(navCtx).Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := c.idle.Wait(navCtx, c.opts.IdleQuietPeriod); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
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
	return proto.RuntimeAddBinding{Name: name}.Call(c.page.Context(ctx))
}

func (c *Controller) AddInitScript(ctx context.Context, script string) error {
	_, err := c.page.Context(ctx).EvalOnNewDocument(script)
	return err
}

// Evaluate runs a JavaScript expression. rod evaluates functions, so the
// expression is wrapped in an arrow function.
func (c *Controller) Evaluate(ctx context.Context, script string, res interface{}) error {
	obj, err := c.page.Context(ctx).Eval("() => (" + strings.TrimRight(strings.TrimSpace(script), ";") + ")")
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	if res == nil {
		return nil
	}
	return jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(obj.Value.JSON("", ""), res)
}

func (c *Controller) URL(ctx context.Context) (string, error) {
	info, err := c.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Close shuts the browser down and removes its profile. Later calls are no-ops.
func (c *Controller) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		if c.router != nil {
			_ = c.router.Stop()
		}
		if cerr := c.browser.Close(); cerr != nil {
			err = fmt.Errorf("close Chrome: %w", cerr)
		}
		c.launcher.Kill()
		c.launcher.Cleanup()
		c.markDisconnected("closed")
	})
	return err
}

func (c *Controller) Disconnected() <-chan struct{} {
	return c.disconnected
}
