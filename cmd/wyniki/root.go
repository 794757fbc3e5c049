package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"wyniki/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	noColor       bool
	notifications bool
	quiet         bool
	progressOnly  bool
	verbose       bool
)

// rootCmd crawls by default; subcommands manage credentials, config and reports
var rootCmd = &cobra.Command{
	Use:   "wyniki",
	Short: "Download laboratory results from wyniki.diag.pl",
	Long: `wyniki logs into the wyniki.diag.pl patient portal, walks every order on the
order list and saves each order's XML, PDF and CSV results.

Login needs an SMS code: the browser window stays open while you type it in.

Features:
  - Credentials kept in the system keychain or an encrypted file
  - Per-order identification from the barcode shown on the results page
  - Crawl manifest that records every order and saved file
  - XML to CSV report conversion with unit normalization`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Progress mode is the default unless verbose is specified
		if !verbose && !quiet {
			progressOnly = true
		}

		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
		if progressOnly {
			ui.SetProgressOnlyMode(true)
		}
		if noColor {
			ui.SetNoColor(true)
		}

		if cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintLogo()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCrawl(cmd, args)
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./wyniki.yaml or ~/.config/wyniki/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", true, "enable desktop notifications")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&progressOnly, "progress", "p", false, "show only progress and essential info")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show all output (logo, logs, progress)")

	rootCmd.SetVersionTemplate(`wyniki {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags returns the config overrides shared by every command
func globalFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("notifications") {
		flags["notifications"] = notifications
	}
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = logLevel
	} else if progressOnly {
		// Keep log lines from interleaving with the progress output
		flags["log-level"] = "error"
	}
	return flags
}
