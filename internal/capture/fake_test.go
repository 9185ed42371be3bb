package capture

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeEngine records every call as a string, in order.
type fakeEngine struct {
	mu    sync.Mutex
	calls []string

	launchErr     error
	navigateErrAt int // 1-based navigate call that fails; 0 never
	screenshotErr error
	closeErr      error
	navigations   int
}

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func (f *fakeEngine) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEngine) count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeEngine) Launch(_ context.Context, kind BrowserKind) (Browser, error) {
	f.record("launch %s", kind)
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	return &fakeBrowser{f: f}, nil
}

type fakeBrowser struct{ f *fakeEngine }

func (b *fakeBrowser) NewContext(_ context.Context, scheme ColorScheme) (Context, error) {
	b.f.record("context %s", scheme)
	return &fakeContext{f: b.f}, nil
}

func (b *fakeBrowser) Close() error {
	b.f.record("close browser")
	return b.f.closeErr
}

type fakeContext struct{ f *fakeEngine }

func (c *fakeContext) NewPage(context.Context) (Page, error) {
	c.f.record("page")
	return &fakePage{f: c.f}, nil
}

func (c *fakeContext) Close() error {
	c.f.record("close context")
	return nil
}

type fakePage struct{ f *fakeEngine }

func (p *fakePage) SetViewportSize(_ context.Context, w, h int) error {
	p.f.record("viewport %dx%d", w, h)
	return nil
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.f.record("goto %s", url)
	p.f.mu.Lock()
	p.f.navigations++
	n := p.f.navigations
	p.f.mu.Unlock()
	if p.f.navigateErrAt != 0 && n == p.f.navigateErrAt {
		return fmt.Errorf("net::ERR_NAME_NOT_RESOLVED")
	}
	return nil
}

func (p *fakePage) Evaluate(_ context.Context, script string) error {
	p.f.record("eval %s", script)
	return nil
}

func (p *fakePage) Wait(ctx context.Context, d time.Duration) error {
	p.f.record("wait %s", d)
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *fakePage) Screenshot(_ context.Context, fullPage bool) ([]byte, error) {
	p.f.record("screenshot full=%v", fullPage)
	if p.f.screenshotErr != nil {
		return nil, p.f.screenshotErr
	}
	return pngBytes, nil
}

func (p *fakePage) PDF(_ context.Context, opts PDFOptions) ([]byte, error) {
	p.f.record("pdf %s background=%v", opts.Format, opts.PrintBackground)
	return []byte("%PDF-1.7"), nil
}

func (p *fakePage) Close() error {
	p.f.record("close page")
	return nil
}
