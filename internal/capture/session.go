package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// session is one browser, one context and one page. It is used by a single
// stage and closed before that stage returns.
type session struct {
	browser Browser
	context Context
	page    Page
}

func openSession(ctx context.Context, engine Engine, kind BrowserKind, scheme ColorScheme) (*session, error) {
	b, err := engine.Launch(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", kind, err)
	}
	s := &session{browser: b}

	s.context, err = b.NewContext(ctx, scheme)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("new context: %w", err), s.close())
	}

	s.page, err = s.context.NewPage(ctx)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("new page: %w", err), s.close())
	}
	return s, nil
}

// close tears down in reverse order of creation. Every step is attempted.
func (s *session) close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	return errors.Join(errs...)
}

// prepare navigates and applies zoom and delay, leaving the page ready to capture.
func (s *session) prepare(ctx context.Context, opts Options) error {
	if err := s.page.Navigate(ctx, opts.URL); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNavigationFailed, opts.URL, err)
	}
	// Applied at 1.0 too, so every capture runs the same steps.
	if err := s.page.Evaluate(ctx, ZoomScript(opts.Zoom)); err != nil {
		return fmt.Errorf("apply zoom %v: %w", opts.Zoom, err)
	}
	if opts.Delay > 0 {
		if err := s.page.Wait(ctx, opts.Delay); err != nil {
			return fmt.Errorf("wait %v: %w", opts.Delay, err)
		}
	}
	return nil
}

// resolveOutputDir makes dir absolute and requires it to exist. It is never created.
func resolveOutputDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrOutputDirMissing, dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrOutputDirMissing, abs)
	}
	return abs, nil
}

func writeArtifact(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w %s: %w", ErrCaptureWriteFailed, path, err)
	}
	return nil
}
