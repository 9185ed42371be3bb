package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"viewshot/internal/capture"
	"viewshot/internal/logging"
)

func newInstallCmd(d deps, logger *slog.Logger) *cobra.Command {
	var names []string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Download the Playwright driver and browsers",
		Long: `install downloads the Playwright driver and the requested browsers. It is
only needed for the default playwright driver; the chromedp and rod drivers
use a local Chrome (CHROME_BIN or a standard install path).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := make([]capture.BrowserKind, 0, len(names))
			for _, n := range names {
				k, err := capture.ParseBrowserKind(n)
				if err != nil {
					return err
				}
				kinds = append(kinds, k)
			}

			logger.Info("installing browsers", "browsers", names)
			if err := d.install(kinds); err != nil {
				return fmt.Errorf("install browsers: %w", err)
			}
			logger.Info("browsers installed", logging.Success())
			return nil
		},
	}

	all := make([]string, 0, len(capture.BrowserKinds))
	for _, k := range capture.BrowserKinds {
		all = append(all, string(k))
	}
	cmd.Flags().StringSliceVarP(&names, "browser", "b", all, "Browsers to install")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "viewshot v%s\n", version)
		},
	}
}
