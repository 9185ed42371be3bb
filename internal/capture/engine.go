package capture

import (
	"context"
	"time"
)

// Engine launches browsers. Implementations live in internal/browser;
// tests use a recording fake.
type Engine interface {
	Launch(ctx context.Context, kind BrowserKind) (Browser, error)
}

// Browser is one running browser process.
type Browser interface {
	NewContext(ctx context.Context, scheme ColorScheme) (Context, error)
	Close() error
}

// Context is an isolated browsing session inside a Browser.
type Context interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab. All calls are issued sequentially by one goroutine.
type Page interface {
	SetViewportSize(ctx context.Context, width, height int) error
	// Navigate returns once the network has been idle for a short window.
	Navigate(ctx context.Context, url string) error
	Evaluate(ctx context.Context, script string) error
	Wait(ctx context.Context, d time.Duration) error
	// Screenshot returns PNG bytes.
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	PDF(ctx context.Context, opts PDFOptions) ([]byte, error)
	Close() error
}

// PDFOptions controls PDF rendering.
type PDFOptions struct {
	// Format is a paper name; only "Letter" is produced by this tool.
	Format          string
	PrintBackground bool
}

// LetterPDF is the fixed format of the PDF export.
var LetterPDF = PDFOptions{Format: "Letter", PrintBackground: true}
