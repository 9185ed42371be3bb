package capture

import "errors"

// Validation errors, returned before any browser is launched.
var (
	ErrInvalidZoom            = errors.New("zoom must be greater than 0")
	ErrInvalidDelay           = errors.New("delay must not be negative")
	ErrPDFUnsupportedBrowser  = errors.New("pdf export requires the chromium browser")
	ErrUnsupportedBrowserKind = errors.New("unsupported browser type")
)

// Runtime errors, returned by the capture stages.
var (
	ErrOutputDirMissing   = errors.New("output directory does not exist")
	ErrNavigationFailed   = errors.New("navigation failed")
	ErrCaptureWriteFailed = errors.New("failed to write capture")
)
