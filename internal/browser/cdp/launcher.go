// internal/browser/cdp/launcher.go
package cdp

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/browser"
)

// Launcher starts Chrome through chromedp's exec allocator.
type Launcher struct {
	logger *zap.Logger
}

var _ schemas.BrowserLauncher = (*Launcher)(nil)

func NewLauncher(logger *zap.Logger) *Launcher {
	return &Launcher{logger: logger.Named("chromedp")}
}

// Launch starts a browser with one tab. The browser is not bound to ctx's
// cancellation; it lives until the controller is closed.
func (l *Launcher) Launch(ctx context.Context, opts schemas.LaunchOptions) (schemas.BrowserController, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(browser.Detach(ctx), ExecOptions(opts)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(l.logger.Sugar().Debugf),
		chromedp.WithErrorf(l.logger.Sugar().Debugf),
	)

	// The first Run allocates the browser and attaches to the tab.
	startCtx, cancel := browser.CombineContext(tabCtx, ctx)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	c := newController(l.logger, opts, tabCtx, tabCancel, allocCancel)
	if err := c.start(ctx); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	l.logger.Info("Browser launched.", zap.Bool("headless", opts.Headless))
	return c, nil
}

// ExecOptions translates launch options into chromedp allocator flags.
func ExecOptions(opts schemas.LaunchOptions) []chromedp.ExecAllocatorOption {
	flags := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("enable-automation", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-popup-blocking", true),
	}
	if opts.Headless {
		flags = append(flags, chromedp.Headless, chromedp.DisableGPU)
	}
	if opts.IgnoreTLSErrors {
		flags = append(flags, chromedp.IgnoreCertErrors)
	}
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		flags = append(flags, chromedp.WindowSize(opts.Viewport.Width, opts.Viewport.Height))
	}
	for _, arg := range opts.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if key == "" {
			continue
		}
		if found {
			flags = append(flags, chromedp.Flag(key, value))
		} else {
			flags = append(flags, chromedp.Flag(key, true))
		}
	}
	return flags
}
