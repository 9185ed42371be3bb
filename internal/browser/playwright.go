package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"viewshot/internal/capture"
)

type playwrightEngine struct {
	settings
}

// Launch starts a Playwright driver process and one browser on it. Both are
// stopped by the returned Browser's Close.
func (e *playwrightEngine) Launch(ctx context.Context, kind capture.BrowserKind) (capture.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright (run `viewshot install` first): %w", err)
	}

	var bt playwright.BrowserType
	switch kind {
	case capture.Chromium:
		bt = pw.Chromium
	case capture.Firefox:
		bt = pw.Firefox
	case capture.WebKit:
		bt = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: %s", capture.ErrUnsupportedBrowserKind, kind)
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(e.headless),
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("launch %s: %w", kind, err), pw.Stop())
	}

	e.logger.Debug("browser launched", "driver", DriverPlaywright, "browser", kind, "version", b.Version())
	return &playwrightBrowser{pw: pw, browser: b, navTimeout: e.navTimeout}, nil
}

type playwrightBrowser struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	navTimeout time.Duration
}

func (b *playwrightBrowser) NewContext(ctx context.Context, scheme capture.ColorScheme) (capture.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cs := playwright.ColorSchemeLight
	if scheme == capture.Dark {
		cs = playwright.ColorSchemeDark
	}
	bc, err := b.browser.NewContext(playwright.BrowserNewContextOptions{ColorScheme: cs})
	if err != nil {
		return nil, err
	}
	return &playwrightContext{ctx: bc, navTimeout: b.navTimeout}, nil
}

func (b *playwrightBrowser) Close() error {
	return errors.Join(b.browser.Close(), b.pw.Stop())
}

type playwrightContext struct {
	ctx        playwright.BrowserContext
	navTimeout time.Duration
}

func (c *playwrightContext) NewPage(ctx context.Context) (capture.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := c.ctx.NewPage()
	if err != nil {
		return nil, err
	}
	return &playwrightPage{page: p, navTimeout: c.navTimeout}, nil
}

func (c *playwrightContext) Close() error {
	return c.ctx.Close()
}

type playwrightPage struct {
	page       playwright.Page
	navTimeout time.Duration
}

func (p *playwrightPage) SetViewportSize(ctx context.Context, width, height int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.SetViewportSize(width, height)
}

func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(p.navTimeout.Milliseconds())),
	})
	return err
}

func (p *playwrightPage) Evaluate(ctx context.Context, script string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Evaluate(script)
	return err
}

func (p *playwrightPage) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (p *playwrightPage) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
		Type:     playwright.ScreenshotTypePng,
	})
}

func (p *playwrightPage) PDF(ctx context.Context, opts capture.PDFOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.page.PDF(playwright.PagePdfOptions{
		Format:          playwright.String(opts.Format),
		PrintBackground: playwright.Bool(opts.PrintBackground),
	})
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

// Install downloads the Playwright driver and the given browsers.
func Install(kinds []capture.BrowserKind) error {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	return playwright.Install(&playwright.RunOptions{Browsers: names})
}
