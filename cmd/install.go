package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/browser"
	"github.com/xkilldash9x/uiprobe/internal/config"
	"github.com/xkilldash9x/uiprobe/internal/observability"
)

// installBrowsers is swapped in tests to avoid a download.
var installBrowsers = browser.Install

// newInstallCmd creates the `install` command, which downloads the Playwright
// driver and browser binaries ahead of a run.
func newInstallCmd() *cobra.Command {
	var engines []string

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install the Playwright driver and browsers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := viperFromContext(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range engines {
				if !oneOf(e, config.BrowserEngines) {
					return &config.ConfigError{Key: "browser-engine", Err: fmt.Errorf("must be one of %v, got %q", config.BrowserEngines, e)}
				}
			}

			logger := observability.GetLogger()
			timeout := v.GetDuration("browser.install_timeout")
			if err := installBrowsers(cmd.Context(), engines, timeout, logger); err != nil {
				return err
			}
			logger.Info("Playwright browsers installed.", zap.Strings("browsers", engines))
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %v\n", engines)
			return nil
		},
	}

	installCmd.Flags().StringSliceVar(&engines, "browser-engine", []string{"chromium"}, "browsers to install")
	return installCmd
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
