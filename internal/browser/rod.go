package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"viewshot/internal/capture"
)

type rodEngine struct {
	settings
}

func (e *rodEngine) Launch(ctx context.Context, kind capture.BrowserKind) (capture.Browser, error) {
	if err := chromiumOnly(DriverRod, kind); err != nil {
		return nil, err
	}

	dataDir, err := newUserDataDir()
	if err != nil {
		return nil, err
	}

	l := launcher.New().
		Context(context.WithoutCancel(ctx)).
		Headless(e.headless).
		NoSandbox(true).
		UserDataDir(dataDir).
		Set("disable-gpu").
		Set("disable-dbus").
		Set("no-first-run").
		Set("no-default-browser-check")
	if chromePath := e.chrome(); chromePath != "" {
		l = l.Bin(chromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("launch Chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect to Chrome: %w", err)
	}

	e.logger.Debug("browser launched", "driver", DriverRod, "cdp", controlURL, "headless", e.headless)
	return &rodBrowser{launcher: l, browser: b, navTimeout: e.navTimeout}, nil
}

type rodBrowser struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	navTimeout time.Duration
}

func (b *rodBrowser) NewContext(ctx context.Context, scheme capture.ColorScheme) (capture.Context, error) {
	inc, err := b.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	return &rodContext{browser: inc, scheme: scheme, navTimeout: b.navTimeout}, nil
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	// Cleanup waits for the process to exit and removes the profile dir.
	b.launcher.Cleanup()
	return err
}

type rodContext struct {
	browser    *rod.Browser
	scheme     capture.ColorScheme
	navTimeout time.Duration
}

func (c *rodContext) NewPage(ctx context.Context) (capture.Page, error) {
	p, err := c.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}

	err = proto.EmulationSetEmulatedMedia{
		Features: []*proto.EmulationMediaFeature{
			{Name: "prefers-color-scheme", Value: string(c.scheme)},
		},
	}.Call(p)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("emulate color scheme: %w", err), p.Close())
	}
	return &rodPage{page: p, navTimeout: c.navTimeout}, nil
}

// Close disposes the incognito browser context. It must run after the
// caller's ctx is cancelled too.
func (c *rodContext) Close() error {
	return c.browser.Context(context.Background()).Close()
}

type rodPage struct {
	page       *rod.Page
	navTimeout time.Duration
}

func (p *rodPage) SetViewportSize(ctx context.Context, width, height int) error {
	return p.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	nctx, cancel := context.WithTimeout(ctx, p.navTimeout)
	defer cancel()
	pg := p.page.Context(nctx)

	wait := pg.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	wait()
	return nctx.Err()
}

func (p *rodPage) Evaluate(ctx context.Context, script string) error {
	_, err := p.page.Context(ctx).Eval(script)
	return err
}

func (p *rodPage) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (p *rodPage) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (p *rodPage) PDF(ctx context.Context, opts capture.PDFOptions) ([]byte, error) {
	width, height, err := paperSize(opts.Format)
	if err != nil {
		return nil, err
	}
	r, err := p.page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PrintBackground: opts.PrintBackground,
		PaperWidth:      gson.Num(width),
		PaperHeight:     gson.Num(height),
	})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (p *rodPage) Close() error {
	return p.page.Context(context.Background()).Close()
}
