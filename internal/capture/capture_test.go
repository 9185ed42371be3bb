package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewshot/internal/config"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var twoViewports = []config.Viewport{
	{Name: "mobile", Width: 375, Height: 667},
	{Name: "desktop", Width: 1440, Height: 900},
}

func testOptions(t *testing.T) Options {
	t.Helper()
	opts := DefaultOptions()
	opts.URL = "https://example.com"
	opts.OutputDir = t.TempDir()
	return opts
}

func TestScreenshotsSequence(t *testing.T) {
	opts := testOptions(t)
	opts.DarkMode = true
	eng := &fakeEngine{}

	paths, err := Screenshots(context.Background(), eng, opts, twoViewports, discard)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(opts.OutputDir, "mobile-dark.png"),
		filepath.Join(opts.OutputDir, "desktop-dark.png"),
	}, paths)

	zoom := "eval " + ZoomScript(1)
	assert.Equal(t, []string{
		"launch chromium",
		"context dark",
		"page",
		"viewport 375x667",
		"goto https://example.com",
		zoom,
		"screenshot full=true",
		"viewport 1440x900",
		"goto https://example.com",
		zoom,
		"screenshot full=true",
		"close page",
		"close context",
		"close browser",
	}, eng.Calls())

	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, pngBytes, data)
	}
}

func TestScreenshotsSingleViewportLight(t *testing.T) {
	opts := testOptions(t)
	eng := &fakeEngine{}

	_, err := Screenshots(context.Background(), eng, opts, twoViewports[:1], discard)
	require.NoError(t, err)

	entries, err := os.ReadDir(opts.OutputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "mobile-light.png", entries[0].Name())
	assert.Equal(t, "context light", eng.Calls()[1])
}

func TestScreenshotsZoomAndDelay(t *testing.T) {
	opts := testOptions(t)
	opts.Zoom = 1.5
	opts.Delay = 200 * time.Millisecond
	eng := &fakeEngine{}

	start := time.Now()
	_, err := Screenshots(context.Background(), eng, opts, twoViewports[:1], discard)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)

	calls := eng.Calls()
	assert.Equal(t, []string{
		"viewport 375x667",
		"goto https://example.com",
		`eval document.body && (document.body.style.zoom = "1.5")`,
		"wait 200ms",
		"screenshot full=true",
	}, calls[3:8])
}

func TestScreenshotsNoWaitWithoutDelay(t *testing.T) {
	opts := testOptions(t)
	eng := &fakeEngine{}

	_, err := Screenshots(context.Background(), eng, opts, twoViewports, discard)
	require.NoError(t, err)
	assert.Zero(t, eng.count("wait"))
	assert.Equal(t, len(twoViewports), eng.count("eval"))
}

func TestScreenshotsOutputDirMissing(t *testing.T) {
	opts := testOptions(t)
	opts.OutputDir = filepath.Join(opts.OutputDir, "nope")
	eng := &fakeEngine{}

	_, err := Screenshots(context.Background(), eng, opts, twoViewports, discard)
	require.ErrorIs(t, err, ErrOutputDirMissing)
	assert.Empty(t, eng.Calls(), "no browser may be launched")
}

func TestScreenshotsOutputIsFile(t *testing.T) {
	opts := testOptions(t)
	file := filepath.Join(opts.OutputDir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	opts.OutputDir = file

	_, err := Screenshots(context.Background(), &fakeEngine{}, opts, twoViewports, discard)
	require.ErrorIs(t, err, ErrOutputDirMissing)
}

func TestScreenshotsRelativeOutputDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "shots"), 0o755))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	opts := testOptions(t)
	opts.OutputDir = "shots"

	paths, err := Screenshots(context.Background(), &fakeEngine{}, opts, twoViewports[:1], discard)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.True(t, filepath.IsAbs(paths[0]))
	assert.FileExists(t, filepath.Join(dir, "shots", "mobile-light.png"))
}

func TestScreenshotsNavigationFailureAborts(t *testing.T) {
	opts := testOptions(t)
	eng := &fakeEngine{navigateErrAt: 2}

	paths, err := Screenshots(context.Background(), eng, opts, append(twoViewports,
		config.Viewport{Name: "tablet", Width: 768, Height: 1024}), discard)
	require.ErrorIs(t, err, ErrNavigationFailed)

	// The first capture stays on disk, the rest never run.
	assert.Equal(t, []string{filepath.Join(opts.OutputDir, "mobile-light.png")}, paths)
	assert.FileExists(t, paths[0])
	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "desktop-light.png"))
	assert.Equal(t, 1, eng.count("screenshot"))
	assert.Equal(t, 0, eng.count("viewport 768x1024"))

	calls := eng.Calls()
	assert.Equal(t, []string{"close page", "close context", "close browser"}, calls[len(calls)-3:])
}

func TestScreenshotsWriteFailure(t *testing.T) {
	opts := testOptions(t)
	// A directory where the file should go makes the write fail.
	require.NoError(t, os.Mkdir(filepath.Join(opts.OutputDir, "mobile-light.png"), 0o755))
	eng := &fakeEngine{}

	_, err := Screenshots(context.Background(), eng, opts, twoViewports, discard)
	require.ErrorIs(t, err, ErrCaptureWriteFailed)
	assert.Equal(t, 1, eng.count("close browser"))
}

func TestScreenshotsOverwrite(t *testing.T) {
	opts := testOptions(t)
	existing := filepath.Join(opts.OutputDir, "mobile-light.png")
	require.NoError(t, os.WriteFile(existing, []byte("stale"), 0o644))

	for i := 0; i < 2; i++ {
		_, err := Screenshots(context.Background(), &fakeEngine{}, opts, twoViewports[:1], discard)
		require.NoError(t, err)
	}
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestScreenshotsLaunchFailure(t *testing.T) {
	opts := testOptions(t)
	eng := &fakeEngine{launchErr: errors.New("executable doesn't exist")}

	_, err := Screenshots(context.Background(), eng, opts, twoViewports, discard)
	require.Error(t, err)
	assert.Equal(t, []string{"launch chromium"}, eng.Calls())
}

func TestScreenshotsTeardownError(t *testing.T) {
	opts := testOptions(t)
	closeErr := errors.New("browser has been closed")

	_, err := Screenshots(context.Background(), &fakeEngine{closeErr: closeErr}, opts, twoViewports[:1], discard)
	require.ErrorIs(t, err, closeErr)

	// A capture error wins over a teardown error.
	eng := &fakeEngine{closeErr: closeErr, screenshotErr: errors.New("target crashed")}
	_, err = Screenshots(context.Background(), eng, opts, twoViewports[:1], discard)
	require.Error(t, err)
	assert.NotErrorIs(t, err, closeErr)
	assert.Contains(t, err.Error(), "target crashed")
}

func TestScreenshotsCancelledDuringDelay(t *testing.T) {
	opts := testOptions(t)
	opts.Delay = time.Minute
	eng := &fakeEngine{}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Screenshots(ctx, eng, opts, twoViewports, discard)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, eng.count("close browser"))
}

func TestExportPDF(t *testing.T) {
	opts := testOptions(t)
	opts.DarkMode = true
	opts.PDF = true
	opts.Zoom = 0.8
	opts.Delay = 10 * time.Millisecond
	eng := &fakeEngine{}

	path, err := ExportPDF(context.Background(), eng, opts, discard)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(opts.OutputDir, "output-dark.pdf"), path)

	assert.Equal(t, []string{
		"launch chromium",
		"context dark",
		"page",
		"goto https://example.com",
		"eval " + ZoomScript(0.8),
		"wait 10ms",
		"pdf Letter background=true",
		"close page",
		"close context",
		"close browser",
	}, eng.Calls())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
}

func TestExportPDFNavigationFailure(t *testing.T) {
	opts := testOptions(t)
	opts.PDF = true
	eng := &fakeEngine{navigateErrAt: 1}

	_, err := ExportPDF(context.Background(), eng, opts, discard)
	require.ErrorIs(t, err, ErrNavigationFailed)
	assert.Zero(t, eng.count("pdf"))
	assert.Equal(t, 1, eng.count("close browser"))
	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "output-light.pdf"))
}

func TestExportPDFOutputDirMissing(t *testing.T) {
	opts := testOptions(t)
	opts.PDF = true
	opts.OutputDir = filepath.Join(opts.OutputDir, "missing")
	eng := &fakeEngine{}

	_, err := ExportPDF(context.Background(), eng, opts, discard)
	require.ErrorIs(t, err, ErrOutputDirMissing)
	assert.Empty(t, eng.Calls())
}
