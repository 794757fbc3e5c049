package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"wyniki/pkg/auth"
	"wyniki/pkg/browser"
	"wyniki/pkg/config"
	"wyniki/pkg/crawler"
	errs "wyniki/pkg/errors"
	"wyniki/pkg/logger"
	"wyniki/pkg/manifest"
	"wyniki/pkg/models"
	"wyniki/pkg/portal"
	"wyniki/pkg/storage"
	"wyniki/pkg/ui"
	"wyniki/pkg/ui/tui"
)

var (
	// Crawl command flags
	outputDir        string
	accountID        string
	baseURL          string
	headless         bool
	chromePath       string
	twoFactorTimeout time.Duration
	downloadTimeout  time.Duration
	convertAfter     bool
	useTUI           bool
)

// crawlCmd is also what the root command runs
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Log in and download the results of every order",
	Long: `Log in to the portal, enumerate every order and save its XML, PDF and CSV files.

Credentials are taken from, in order:
  - WYNIKI_USERNAME and WYNIKI_PASSWORD (environment, .env or tests/.env)
  - The stored account matching --account-id
  - The default stored account (see 'wyniki auth login')

After submitting the login form the portal sends an SMS code. Type it into the
browser window; the crawl continues once the order list opens.`,
	Example: `  # Crawl with the stored account into ./downloads/xml_results
  wyniki crawl

  # Use a specific account and output directory, then build the CSV report
  wyniki crawl --account-id 12345 --output ./results --convert

  # Allow more time for the SMS code
  wyniki crawl --two-factor-timeout 5m`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	addCrawlFlags(crawlCmd)

	// The root command crawls too
	addCrawlFlags(rootCmd)
}

func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads (default: downloads/xml_results)")
	cmd.Flags().StringVar(&accountID, "account-id", "", "portal account ID (PESEL or patient number)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "portal address")
	cmd.Flags().BoolVar(&headless, "headless", false, "run Chrome without a window")
	cmd.Flags().StringVar(&chromePath, "chrome-path", "", "path to the Chrome executable")
	cmd.Flags().DurationVar(&twoFactorTimeout, "two-factor-timeout", 0, "how long to wait for the SMS code (default 2m)")
	cmd.Flags().DurationVar(&downloadTimeout, "download-timeout", 0, "how long to wait for each file (default 30s)")
	cmd.Flags().BoolVar(&convertAfter, "convert", false, "convert the downloaded XML files to CSV afterwards")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show a full-screen dashboard while crawling")
}

func crawlFlags(cmd *cobra.Command) map[string]interface{} {
	flags := globalFlags(cmd)
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if accountID != "" {
		flags["account-id"] = accountID
	}
	if baseURL != "" {
		flags["base-url"] = baseURL
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if chromePath != "" {
		flags["chrome-path"] = chromePath
	}
	if twoFactorTimeout > 0 {
		flags["two-factor-timeout"] = twoFactorTimeout
	}
	if downloadTimeout > 0 {
		flags["download-timeout"] = downloadTimeout
	}
	if useTUI && !cmd.Flags().Changed("log-level") {
		// Console log lines would tear the dashboard
		flags["log-level"] = "error"
	}
	return flags
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, crawlFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("wyniki starting")

	creds, err := resolveCredentials(cfg, log)
	if err != nil {
		return err
	}
	ui.PrintInfo("Account", creds.AccountID)
	ui.PrintInfo("Output", cfg.Output.BaseDirectory)

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return fmt.Errorf("failed to prepare output directory: %w", err)
	}
	if n := store.ExistingCount(); n > 0 {
		ui.PrintWarning(fmt.Sprintf("%d files already in %s will be overwritten if downloaded again", n, store.GetOutputDir()))
	}

	recorder, err := manifest.NewManager(cfg.ManifestPath(), log)
	if err != nil {
		return fmt.Errorf("failed to prepare crawl manifest: %w", err)
	}

	notifier := ui.NewNotifier(cfg.Notifications.Enabled)
	display := ui.NewProgressDisplay(0, strings.EqualFold(cfg.Logging.Level, "debug"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observer := crawler.Observer(crawler.NewDisplayObserver(display))
	prompter := portal.TwoFactorPrompter(ui.NewTwoFactorPrompt(notifier, cfg.Timeouts.TwoFactor, cfg.Notifications.OnTwoFactor))

	ui.PrintHighlight("[STARTING CRAWL]")

	var dash *tui.TUI
	dashDone := make(chan error, 1)
	if useTUI {
		dash = tui.NewTUI(cfg.Timeouts.TwoFactor, stop)
		observer, prompter = dash, dash
		if cfg.Notifications.OnTwoFactor {
			notifier.SendNotification("wyniki", "Enter the SMS code in the browser window when it arrives")
		}
	}

	c, err := crawler.New(crawler.Options{
		BaseURL:  cfg.Portal.BaseURL,
		Timing:   portal.TimingFromConfig(cfg),
		Launcher: browser.NewLauncher(browser.OptionsFromConfig(cfg), log),
		Store:    store,
		Prompter: prompter,
		Recorder: recorder,
		Observer: observer,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	if dash != nil {
		go func() { dashDone <- dash.Start() }()
	}
	summary, runErr := c.Run(ctx, creds)

	if dash != nil {
		dash.Finish(runErr)
		dash.Stop()
		if err := <-dashDone; err != nil {
			log.WithError(err).Warn("Dashboard stopped with an error")
		}
	}

	if summary != nil && len(summary.Orders) > 0 && !ui.IsQuietMode() {
		fmt.Fprintln(ui.Output())
		ui.RenderSummary(ui.Output(), summary)
	}

	if runErr != nil {
		if cfg.Notifications.OnError {
			notifier.SendError("Crawl failed", string(errs.TypeOf(runErr)))
		}
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("crawl interrupted: %w", runErr)
		}
		return fmt.Errorf("crawl failed: %w", runErr)
	}

	if dash == nil {
		display.Complete(store.GetOutputDir())
	}
	if cfg.Notifications.OnComplete {
		notifier.SendSuccess("Crawl complete", fmt.Sprintf("%d files from %d orders", summary.ArtifactsSaved, summary.OrdersDiscovered))
	}

	if convertAfter {
		return runReport(ctx, cfg, 0)
	}
	return nil
}

// resolveCredentials falls back to the environment alone when no credential
// store can be opened
func resolveCredentials(cfg *config.Config, log logger.Logger) (models.Credentials, error) {
	manager, merr := auth.NewManager()
	if merr != nil {
		log.WithError(merr).Warn("Credential store unavailable")
		manager = auth.NewManagerWithStores(auth.NewEnvironmentStore())
	}

	creds, err := auth.Resolve(cfg.Portal, manager)
	if errors.Is(err, auth.ErrCredentialsNotFound) {
		log.Error("No credentials found")
		auth.ShowLoginGuide(os.Stderr)
	}
	return creds, err
}
