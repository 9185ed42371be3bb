package capture

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"viewshot/internal/logging"
)

// ExportPDF renders opts.URL to a Letter PDF in a new chromium session,
// independent of the one used for screenshots.
func ExportPDF(ctx context.Context, engine Engine, opts Options, logger *slog.Logger) (path string, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir, err := resolveOutputDir(opts.OutputDir)
	if err != nil {
		return "", err
	}

	sess, err := openSession(ctx, engine, PDFBrowser, opts.ColorScheme())
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := sess.close(); cerr != nil {
			logger.Warn("browser teardown failed", "error", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()

	logger.Info("exporting pdf", "url", opts.URL, "theme", opts.Theme())

	if err := sess.prepare(ctx, opts); err != nil {
		return "", err
	}
	buf, err := sess.page.PDF(ctx, LetterPDF)
	if err != nil {
		return "", fmt.Errorf("render pdf: %w", err)
	}

	path = filepath.Join(dir, PDFName(opts.Theme()))
	if err := writeArtifact(path, buf); err != nil {
		return "", err
	}

	logger.Info("pdf saved", "path", path, logging.Success())
	return path, nil
}
