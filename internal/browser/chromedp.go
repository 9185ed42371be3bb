package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"viewshot/internal/capture"
)

type chromedpEngine struct {
	settings
}

func (e *chromedpEngine) Launch(ctx context.Context, kind capture.BrowserKind) (capture.Browser, error) {
	if err := chromiumOnly(DriverChromedp, kind); err != nil {
		return nil, err
	}

	dataDir, err := newUserDataDir()
	if err != nil {
		return nil, err
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dbus", true),
		chromedp.UserDataDir(dataDir),
	)
	if !e.headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if chromePath := e.chrome(); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	// The session outlives any single call, so it is detached from ctx.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	b := &chromedpBrowser{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		dataDir:     dataDir,
		navTimeout:  e.navTimeout,
	}

	// The first Run must use the NewContext context itself: the browser
	// lives as long as the context it was started with.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, errors.Join(fmt.Errorf("start chrome (install Chrome/Chromium or set CHROME_BIN): %w", err), b.Close())
	}

	e.logger.Debug("browser launched", "driver", DriverChromedp, "profile", dataDir)
	return b, nil
}

// runWith runs actions on target while honouring the caller's ctx and an
// optional timeout.
func runWith(ctx, target context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(target, timeout)
	} else {
		runCtx, cancel = context.WithCancel(target)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

type chromedpBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	dataDir     string
	navTimeout  time.Duration
}

func (b *chromedpBrowser) NewContext(ctx context.Context, scheme capture.ColorScheme) (capture.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &chromedpContext{browser: b, scheme: scheme}, nil
}

func (b *chromedpBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	if rmErr := os.RemoveAll(b.dataDir); rmErr != nil {
		err = errors.Join(err, rmErr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// chromedpContext carries the colour scheme; each page it opens lives in its
// own browser context, created together with the target.
type chromedpContext struct {
	browser *chromedpBrowser
	scheme  capture.ColorScheme
}

func (c *chromedpContext) NewPage(ctx context.Context) (capture.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, tabCancel := chromedp.NewContext(c.browser.ctx, chromedp.WithNewBrowserContext())
	p := &chromedpPage{ctx: tabCtx, cancel: tabCancel, navTimeout: c.browser.navTimeout}

	// First Run on tabCtx creates the target; see Launch.
	err := chromedp.Run(tabCtx,
		emulation.SetEmulatedMedia().WithFeatures([]*emulation.MediaFeature{
			{Name: "prefers-color-scheme", Value: string(c.scheme)},
		}),
	)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("emulate color scheme: %w", err), p.Close())
	}
	return p, nil
}

func (c *chromedpContext) Close() error { return nil }

type chromedpPage struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
}

func (p *chromedpPage) SetViewportSize(ctx context.Context, width, height int) error {
	return runWith(ctx, p.ctx, 0, chromedp.EmulateViewport(int64(width), int64(height)))
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	return runWith(ctx, p.ctx, p.navTimeout, navigateUntilIdle(url))
}

// idleMatches reports whether a networkIdle event belongs to the document
// loaded by a navigation. A same-document navigation has no loader and never
// matches, since any idle event seen then is left over from an earlier load.
func idleMatches(navLoader, eventLoader cdp.LoaderID) bool {
	return navLoader != "" && eventLoader == navLoader
}

// navigateUntilIdle navigates and blocks until the lifecycle event
// networkIdle fires for the new document. Same-document navigations load
// nothing new, so they only wait for the body to be ready.
func navigateUntilIdle(url string) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		lctx, cancel := context.WithCancel(ctx)
		defer cancel()

		idle := make(chan cdp.LoaderID, 16)
		chromedp.ListenTarget(lctx, func(ev any) {
			if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
				select {
				case idle <- e.LoaderID:
				default:
				}
			}
		})

		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return fmt.Errorf("enable lifecycle events: %w", err)
		}
		_, loaderID, errorText, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errorText != "" {
			return errors.New(errorText)
		}
		if loaderID == "" {
			return chromedp.WaitReady("body", chromedp.ByQuery).Do(ctx)
		}

		for {
			select {
			case id := <-idle:
				if idleMatches(loaderID, id) {
					return nil
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (p *chromedpPage) Evaluate(ctx context.Context, script string) error {
	return runWith(ctx, p.ctx, 0, chromedp.Evaluate(script, nil))
}

func (p *chromedpPage) Wait(ctx context.Context, d time.Duration) error {
	return runWith(ctx, p.ctx, 0, chromedp.Sleep(d))
}

func (p *chromedpPage) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	var buf []byte
	var action chromedp.Action = chromedp.CaptureScreenshot(&buf)
	if fullPage {
		// Quality 100 keeps PNG encoding.
		action = chromedp.FullScreenshot(&buf, 100)
	}
	if err := runWith(ctx, p.ctx, 0, action); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *chromedpPage) PDF(ctx context.Context, opts capture.PDFOptions) ([]byte, error) {
	width, height, err := paperSize(opts.Format)
	if err != nil {
		return nil, err
	}

	var buf []byte
	err = runWith(ctx, p.ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = page.PrintToPDF().
			WithPrintBackground(opts.PrintBackground).
			WithPaperWidth(width).
			WithPaperHeight(height).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *chromedpPage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
