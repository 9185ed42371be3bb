// Package browser implements capture.Engine on top of real automation
// libraries: Playwright (chromium, firefox, webkit), chromedp and rod
// (chromium only).
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"viewshot/internal/capture"
)

// Driver names accepted by NewEngine.
const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
	DriverRod        = "rod"
)

// Drivers lists every driver, default first.
var Drivers = []string{DriverPlaywright, DriverChromedp, DriverRod}

// DefaultNavigationTimeout bounds a single navigate-until-idle step.
const DefaultNavigationTimeout = 30 * time.Second

type settings struct {
	headless   bool
	chromePath string
	navTimeout time.Duration
	logger     *slog.Logger
}

// Option configures an engine.
type Option func(*settings)

// WithHeadless sets headless mode (default true).
func WithHeadless(h bool) Option {
	return func(s *settings) { s.headless = h }
}

// WithChromePath pins the Chrome binary used by the chromedp and rod drivers.
func WithChromePath(path string) Option {
	return func(s *settings) { s.chromePath = path }
}

// WithNavigationTimeout overrides DefaultNavigationTimeout.
func WithNavigationTimeout(d time.Duration) Option {
	return func(s *settings) { s.navTimeout = d }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// NewEngine returns the engine for the named driver.
func NewEngine(driver string, opts ...Option) (capture.Engine, error) {
	s := settings{
		headless:   true,
		navTimeout: DefaultNavigationTimeout,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(&s)
	}

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPlaywright, "":
		return &playwrightEngine{settings: s}, nil
	case DriverChromedp:
		return &chromedpEngine{settings: s}, nil
	case DriverRod:
		return &rodEngine{settings: s}, nil
	default:
		return nil, fmt.Errorf("unknown driver %q (want one of %s)", driver, strings.Join(Drivers, ", "))
	}
}

// chromiumOnly rejects the kinds the CDP drivers cannot launch.
func chromiumOnly(driver string, kind capture.BrowserKind) error {
	if kind != capture.Chromium {
		return fmt.Errorf("%w: %s with the %s driver (use --driver playwright)", capture.ErrUnsupportedBrowserKind, kind, driver)
	}
	return nil
}

// chrome returns the configured binary, or the first one found on this machine.
func (s settings) chrome() string {
	if s.chromePath != "" {
		return s.chromePath
	}
	return resolveChromePath()
}

func resolveChromePath() string {
	if envPath := strings.TrimSpace(os.Getenv("CHROME_BIN")); envPath != "" {
		if fileExists(envPath) {
			return envPath
		}
	}

	candidates := []string{
		"/opt/google/chrome/chrome",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
	}
	for _, path := range candidates {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// newUserDataDir creates a fresh Chrome profile directory so no two
// sessions share state.
func newUserDataDir() (string, error) {
	dir := filepath.Join(os.TempDir(), "viewshot-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create profile dir: %w", err)
	}
	return dir, nil
}

// paperSize returns the paper dimensions in inches. Only Letter is produced.
func paperSize(format string) (width, height float64, err error) {
	if format == "" || strings.EqualFold(format, "letter") {
		return 8.5, 11, nil
	}
	return 0, 0, fmt.Errorf("unsupported paper format %q", format)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
