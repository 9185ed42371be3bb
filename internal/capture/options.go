package capture

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// BrowserKind selects the browser engine a session launches.
type BrowserKind string

const (
	Chromium BrowserKind = "chromium"
	Firefox  BrowserKind = "firefox"
	WebKit   BrowserKind = "webkit"
)

// PDFBrowser is the only kind that can render PDFs.
const PDFBrowser = Chromium

// BrowserKinds lists every supported kind, default first.
var BrowserKinds = []BrowserKind{Chromium, Firefox, WebKit}

// ParseBrowserKind maps a flag value onto a BrowserKind.
func ParseBrowserKind(s string) (BrowserKind, error) {
	k := BrowserKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range BrowserKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want chromium, firefox or webkit)", ErrUnsupportedBrowserKind, s)
}

// ColorScheme is the prefers-color-scheme value a context is opened with.
type ColorScheme string

const (
	Light ColorScheme = "light"
	Dark  ColorScheme = "dark"
)

// Options is the resolved configuration of one run.
type Options struct {
	URL       string
	OutputDir string
	DarkMode  bool
	Browser   BrowserKind
	Zoom      float64
	Delay     time.Duration
	PDF       bool
}

// DefaultOptions returns the values used for flags left unset.
func DefaultOptions() Options {
	return Options{
		OutputDir: "screenshots",
		Browser:   Chromium,
		Zoom:      1.0,
	}
}

// Validate checks the options before any browser is launched.
// The output directory is checked later, by the stage that writes to it.
func (o Options) Validate() error {
	if strings.TrimSpace(o.URL) == "" {
		return errors.New("url is required")
	}
	if _, err := ParseBrowserKind(string(o.Browser)); err != nil {
		return err
	}
	if !(o.Zoom > 0) || math.IsInf(o.Zoom, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidZoom, o.Zoom)
	}
	if o.Delay < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDelay, o.Delay)
	}
	if o.PDF && o.Browser != PDFBrowser {
		return fmt.Errorf("%w: %s", ErrPDFUnsupportedBrowser, o.Browser)
	}
	return nil
}

// ColorScheme reports the scheme matching DarkMode.
func (o Options) ColorScheme() ColorScheme {
	if o.DarkMode {
		return Dark
	}
	return Light
}

// Theme is the file name suffix for the active colour scheme.
func (o Options) Theme() string {
	return string(o.ColorScheme())
}
