// Package capture drives a browser engine through the screenshot and PDF
// stages of a run.
//
// Both stages open their own session, issue every engine call in sequence,
// and close the session on every exit path. The first failure ends the stage;
// files written before it stay on disk.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"viewshot/internal/config"
	"viewshot/internal/logging"
)

// ZoomScript returns the expression that sets the page zoom factor.
func ZoomScript(zoom float64) string {
	return fmt.Sprintf(`document.body && (document.body.style.zoom = %q)`, strconv.FormatFloat(zoom, 'f', -1, 64))
}

// ScreenshotName is the file name of the capture for one viewport.
func ScreenshotName(viewport, theme string) string {
	return viewport + "-" + theme + ".png"
}

// PDFName is the file name of the PDF export.
func PDFName(theme string) string {
	return "output-" + theme + ".pdf"
}

// Screenshots captures a full-page PNG of opts.URL for every viewport, in
// order, inside one browser session. It returns the paths written so far,
// also on error.
func Screenshots(ctx context.Context, engine Engine, opts Options, viewports []config.Viewport, logger *slog.Logger) (paths []string, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir, err := resolveOutputDir(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	sess, err := openSession(ctx, engine, opts.Browser, opts.ColorScheme())
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sess.close(); cerr != nil {
			logger.Warn("browser teardown failed", "error", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()

	logger.Info("taking screenshots",
		"url", opts.URL,
		"browser", opts.Browser,
		"theme", opts.Theme(),
		"viewports", len(viewports),
	)

	theme := opts.Theme()
	for _, vp := range viewports {
		logger.Info("capturing viewport", "name", vp.Name, "size", fmt.Sprintf("%dx%d", vp.Width, vp.Height))

		path := filepath.Join(dir, ScreenshotName(vp.Name, theme))
		if err := shoot(ctx, sess, opts, vp, path); err != nil {
			return paths, fmt.Errorf("viewport %s: %w", vp.Name, err)
		}
		logger.Debug("screenshot saved", "path", path)
		paths = append(paths, path)
	}

	logger.Info("screenshots captured", "count", len(paths), "dir", dir, logging.Success())
	return paths, nil
}

func shoot(ctx context.Context, sess *session, opts Options, vp config.Viewport, path string) error {
	if err := sess.page.SetViewportSize(ctx, vp.Width, vp.Height); err != nil {
		return fmt.Errorf("set viewport size: %w", err)
	}
	if err := sess.prepare(ctx, opts); err != nil {
		return err
	}
	buf, err := sess.page.Screenshot(ctx, true)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	return writeArtifact(path, buf)
}
