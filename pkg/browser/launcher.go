package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"wyniki/pkg/config"
	errs "wyniki/pkg/errors"
	"wyniki/pkg/logger"
	"wyniki/pkg/retry"
)

// Options configures a Launcher
type Options struct {
	Browser           config.BrowserConfig
	NavigationTimeout time.Duration
	NetworkQuiet      time.Duration
}

// OptionsFromConfig extracts launch options from the application config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Browser:           cfg.Browser,
		NavigationTimeout: cfg.Timeouts.Navigation,
		NetworkQuiet:      cfg.Delays.NetworkQuiet,
	}
}

// Launcher starts Chrome sessions
type Launcher struct {
	opts   Options
	logger logger.Logger
	// Backoff between failed launch attempts; nil uses the retry default
	Backoff retry.BackoffStrategy
}

// NewLauncher creates a launcher for the given options
func NewLauncher(opts Options, log logger.Logger) *Launcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Launcher{opts: opts, logger: log.WithField("component", "browser")}
}

// Launch starts Chrome, retrying transient start-up failures
func (l *Launcher) Launch(ctx context.Context) (Session, error) {
	attempts := l.opts.Browser.LaunchAttempts
	if attempts <= 0 {
		attempts = 1
	}

	backoff := l.Backoff
	if backoff == nil {
		backoff = retry.DefaultExponentialBackoff()
	}

	return retry.DoWithResult(ctx, l.launchOnce, &retry.Config{
		MaxAttempts: attempts,
		Backoff:     backoff,
		RetryIf:     retry.DefaultRetryIf,
		Logger:      l.logger,
	})
}

func (l *Launcher) launchOnce(ctx context.Context) (Session, error) {
	dir, err := os.MkdirTemp("", "wyniki-downloads-*")
	if err != nil {
		return nil, errs.New(errs.ErrorTypeLaunch, "launch", "failed to create download directory", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.allocatorOptions()...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			l.logger.Debug(fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			l.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	sess := &chromeSession{
		ctx:           tabCtx,
		cancel:        cancel,
		network:       newNetworkMonitor(),
		downloads:     newDownloadTracker(dir, l.logger),
		navTimeout:    l.opts.NavigationTimeout,
		actionTimeout: l.opts.NavigationTimeout,
		networkQuiet:  l.opts.NetworkQuiet,
		logger:        l.logger,
	}

	fail := func(msg string, err error) (Session, error) {
		_ = sess.Close()
		return nil, errs.New(errs.ErrorTypeLaunch, "launch", msg, err)
	}

	// The first Run allocates the browser and must not carry a deadline.
	if err := chromedp.Run(tabCtx); err != nil {
		return fail("failed to start chrome", err)
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		sess.network.handle(ev)
		sess.downloads.handle(ev)
	})

	setupCtx, setupCancel := boundedContext(tabCtx, ctx, l.opts.NavigationTimeout)
	defer setupCancel()

	err = chromedp.Run(setupCtx,
		network.Enable(),
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(dir).
			WithEventsEnabled(true),
	)
	if err != nil {
		return fail("failed to configure chrome", err)
	}

	l.logger.InfoWithFields("Browser launched", map[string]interface{}{
		"headless":     l.opts.Browser.Headless,
		"download_dir": dir,
	})
	return sess, nil
}

func (l *Launcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	b := l.opts.Browser

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", b.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.NoSandbox,
	)
	if b.WindowWidth > 0 && b.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(b.WindowWidth, b.WindowHeight))
	}
	if b.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.UserAgent))
	}
	if b.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.ExecPath))
	}
	for _, flag := range b.ExtraFlags {
		name, value := parseFlag(flag)
		if name == "" {
			continue
		}
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// parseFlag turns "--name=value" or "name" into an allocator flag
func parseFlag(flag string) (string, interface{}) {
	flag = strings.TrimLeft(strings.TrimSpace(flag), "-")
	if name, value, ok := strings.Cut(flag, "="); ok {
		return name, value
	}
	return flag, true
}
