// Package cli wires flags, config loading and the capture stages into the
// viewshot command.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"viewshot/internal/browser"
	"viewshot/internal/capture"
	"viewshot/internal/config"
	"viewshot/internal/logging"
)

const version = "1.0.0"

// deps are the collaborators tests replace.
type deps struct {
	newEngine func(driver string, opts ...browser.Option) (capture.Engine, error)
	install   func(kinds []capture.BrowserKind) error
	stdout    io.Writer
	stderr    io.Writer
}

func defaultDeps() deps {
	return deps{
		newEngine: browser.NewEngine,
		install:   browser.Install,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
}

type rootFlags struct {
	url     string
	output  string
	dark    bool
	browser string
	zoom    float64
	delay   int
	pdf     bool
	config  string
	driver  string
	headful bool
	verbose bool
}

// Run executes the command line and returns the process exit code.
func Run(ctx context.Context, args []string) int {
	return run(ctx, args, defaultDeps())
}

func run(ctx context.Context, args []string, d deps) int {
	level := new(slog.LevelVar)
	logger := logging.New(d.stderr, level)

	cmd := newRootCmd(d, logger, level)
	cmd.SetArgs(args)
	cmd.SetOut(d.stdout)
	cmd.SetErr(d.stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Error(err.Error())
		return 1
	}
	return 0
}

func newRootCmd(d deps, logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	defaults := capture.DefaultOptions()
	f := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "viewshot --url URL --config FILE [flags]",
		Short: "Capture full-page screenshots of a URL across viewports",
		Long: `viewshot captures a full-page PNG of one URL for every viewport listed in a
JSON config file, optionally in dark mode, zoomed, after a delay, and with an
extra Letter-size PDF export.

Config file:
  { "viewports": [ { "name": "mobile", "width": 375, "height": 667 } ] }

Files are written to the output directory as NAME-THEME.png and
output-THEME.pdf, where THEME is light or dark. The directory must exist.`,
		Example: `  viewshot -u https://example.com -c viewports.json
  viewshot -u https://example.com -c viewports.json -d -o shots
  viewshot -u https://example.com -c viewports.json -z 1.5 --delay 200 -p
  viewshot -u https://example.com -c viewports.json -b firefox`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if f.verbose {
				level.Set(slog.LevelDebug)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd.Context(), d, f, logger)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.url, "url", "u", "", "URL to capture")
	fl.StringVarP(&f.output, "output", "o", defaults.OutputDir, "Output directory for screenshots (must exist)")
	fl.BoolVarP(&f.dark, "dark", "d", false, "Capture with the dark color scheme")
	fl.StringVarP(&f.browser, "browser", "b", string(defaults.Browser), "Browser to use (chromium, firefox or webkit)")
	fl.Float64VarP(&f.zoom, "zoom", "z", defaults.Zoom, "Page zoom factor, greater than 0")
	fl.IntVar(&f.delay, "delay", 0, "Delay in milliseconds before each capture")
	fl.BoolVarP(&f.pdf, "pdf", "p", false, "Also export output-THEME.pdf (chromium only)")
	fl.StringVarP(&f.config, "config", "c", "", "Path to viewport configuration JSON file")
	fl.StringVar(&f.driver, "driver", envOr("VIEWSHOT_DRIVER", browser.DriverPlaywright), "Automation driver (playwright, chromedp or rod)")
	fl.BoolVar(&f.headful, "headful", false, "Show the browser window")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("config")

	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Log debug details")

	cmd.AddCommand(newInstallCmd(d, logger), newVersionCmd())
	return cmd
}

// resolveOptions turns parsed flags into validated capture options.
func resolveOptions(f *rootFlags) (capture.Options, error) {
	kind, err := capture.ParseBrowserKind(f.browser)
	if err != nil {
		return capture.Options{}, err
	}
	opts := capture.Options{
		URL:       f.url,
		OutputDir: f.output,
		DarkMode:  f.dark,
		Browser:   kind,
		Zoom:      f.zoom,
		Delay:     time.Duration(f.delay) * time.Millisecond,
		PDF:       f.pdf,
	}
	if err := opts.Validate(); err != nil {
		return capture.Options{}, err
	}
	return opts, nil
}

func runCapture(ctx context.Context, d deps, f *rootFlags, logger *slog.Logger) error {
	opts, err := resolveOptions(f)
	if err != nil {
		return err
	}
	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}

	engine, err := d.newEngine(f.driver,
		browser.WithHeadless(!f.headful),
		browser.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	paths, err := capture.Screenshots(ctx, engine, opts, cfg.Viewports, logger)
	for _, p := range paths {
		fmt.Fprintln(d.stdout, p)
	}
	if err != nil {
		return err
	}

	if !opts.PDF {
		return nil
	}
	path, err := capture.ExportPDF(ctx, engine, opts, logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(d.stdout, path)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
