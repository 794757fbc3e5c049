package crawler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"wyniki/pkg/browser"
	errs "wyniki/pkg/errors"
	"wyniki/pkg/logger"
	"wyniki/pkg/models"
	"wyniki/pkg/portal"
)

// Launcher starts the browser session a crawl runs in
type Launcher interface {
	Launch(ctx context.Context) (browser.Session, error)
}

// Recorder persists the summary as the crawl progresses
type Recorder interface {
	Begin(summary *models.CrawlSummary) error
	Record(summary *models.CrawlSummary) error
	Finish(summary *models.CrawlSummary, runErr error) error
}

// Observer receives progress callbacks; every method may be a no-op
type Observer interface {
	PagesScanned(page, found int)
	OrdersFound(total int)
	OrderStarted(index int, ref models.OrderRef)
	OrderIdentified(id string)
	ArtifactFinished(outcome models.DownloadOutcome)
	OrderFinished(result models.OrderResult)
}

// Options wires a Crawler
type Options struct {
	BaseURL  string
	Timing   portal.Timing
	Launcher Launcher
	Store    portal.ArtifactStore
	Prompter portal.TwoFactorPrompter
	Recorder Recorder
	Observer Observer
	Logger   logger.Logger
	// Clock feeds identifier fallbacks; nil uses time.Now
	Clock func() time.Time
}

// Crawler drives one serial crawl over a single browser session
type Crawler struct {
	opts   Options
	logger logger.Logger
}

// New creates a crawler
func New(opts Options) (*Crawler, error) {
	if opts.Launcher == nil {
		return nil, fmt.Errorf("crawler requires a launcher")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("crawler requires an artifact store")
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("crawler requires a base URL")
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Crawler{opts: opts, logger: opts.Logger}, nil
}

// Run authenticates, enumerates every order and downloads its artifacts.
// Authentication, enumeration and launch failures abort the crawl; anything
// that goes wrong with a single order is recorded and the crawl moves on.
func (c *Crawler) Run(ctx context.Context, creds models.Credentials) (summary *models.CrawlSummary, err error) {
	summary = &models.CrawlSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := c.logger.WithField("run_id", summary.RunID)

	logger.LogComponentStart(log, "crawler", map[string]interface{}{
		"base_url":   c.opts.BaseURL,
		"account_id": creds.MaskedAccountID(),
	})
	c.begin(log, summary)
	defer func() {
		summary.FinishedAt = time.Now()
		c.finish(log, summary, err)
		reason := "completed"
		if err != nil {
			reason = err.Error()
		}
		logger.LogComponentStop(log, "crawler", reason)
	}()

	session, err := c.opts.Launcher.Launch(ctx)
	if err != nil {
		if errs.TypeOf(err) == errs.ErrorTypeUnknown {
			err = errs.New(errs.ErrorTypeLaunch, "launch", "", err)
		}
		return summary, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.WithError(cerr).Warn("Closing browser session failed")
		}
	}()

	auth := portal.NewAuthenticator(c.opts.BaseURL, c.opts.Timing, c.opts.Prompter, log)
	if err := auth.Authenticate(ctx, session, creds); err != nil {
		return summary, err
	}

	enum := portal.NewEnumerator(c.opts.Timing, func(page, found, total int) {
		c.opts.Observer.PagesScanned(page, found)
	}, log)
	refs, err := enum.Enumerate(ctx, session)
	if err != nil {
		return summary, err
	}
	summary.OrdersDiscovered = len(refs)
	c.opts.Observer.OrdersFound(len(refs))

	identifier := portal.NewIdentifier(log, portal.WithClock(c.opts.Clock))
	outcomes := &outcomeLog{}
	downloader := portal.NewDownloader(c.opts.Store, c.opts.Timing, func(o models.DownloadOutcome) {
		outcomes.add(o)
		c.opts.Observer.ArtifactFinished(o)
	}, log)

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		c.opts.Observer.OrderStarted(i+1, ref)
		logger.LogOrderProgress(log, i+1, len(refs), string(ref))

		result := c.processOrder(ctx, session, identifier, downloader, outcomes, ref)
		summary.Record(result)
		c.opts.Observer.OrderFinished(result)
		c.record(log, summary)

		if i < len(refs)-1 {
			if err := session.Pause(ctx, c.opts.Timing.OrderPacing); err != nil {
				return summary, err
			}
		}
	}

	logger.LogMetrics(log, "crawl", time.Since(summary.StartedAt), map[string]interface{}{
		"orders":          summary.OrdersDiscovered,
		"orders_with_any": summary.OrdersWithArtifacts,
		"saved":           summary.ArtifactsSaved,
		"failed":          summary.ArtifactsFailed,
	})
	return summary, nil
}

// processOrder never fails the crawl; panics and errors become part of the
// order result. Outcomes reported before a panic stay in the result.
func (c *Crawler) processOrder(ctx context.Context, s browser.Session, identifier *portal.Identifier,
	downloader *portal.Downloader, outcomes *outcomeLog, ref models.OrderRef) (result models.OrderResult) {
	result = models.OrderResult{Ref: ref}
	log := c.logger.WithField("order", string(ref))
	outcomes.reset()

	defer func() {
		if r := recover(); r != nil {
			err := errs.New(errs.ErrorTypeOrder, "process order", fmt.Sprintf("panic: %v", r), nil)
			log.WithFields(map[string]interface{}{
				"stack": string(debug.Stack()),
				"saved": len(outcomes.items),
			}).WithError(err).Error("Order processing panicked")
			result.Outcomes = outcomes.take()
			result.Err = err
			result.Reason = err.Error()
		}
	}()

	url := portal.ResolveOrderURL(c.opts.BaseURL, ref)
	if err := s.Navigate(ctx, url); err != nil {
		err = errs.New(errs.ErrorTypeNavigation, "open order", url, err)
		log.WithError(err).Error("Could not open order")
		result.Err = err
		result.Reason = err.Error()
		return result
	}

	id := identifier.Identify(ctx, s, ref)
	result.Identifier = id
	c.opts.Observer.OrderIdentified(id)

	result = downloader.DownloadAll(ctx, s, ref, id)
	if result.Err != nil {
		log.WithError(result.Err).WithField("id", id).Error("Error downloading files for order")
	}
	return result
}

func (c *Crawler) begin(log logger.Logger, summary *models.CrawlSummary) {
	if c.opts.Recorder == nil {
		return
	}
	if err := c.opts.Recorder.Begin(summary); err != nil {
		log.WithError(err).Warn("Could not write crawl manifest")
	}
}

func (c *Crawler) record(log logger.Logger, summary *models.CrawlSummary) {
	if c.opts.Recorder == nil {
		return
	}
	if err := c.opts.Recorder.Record(summary); err != nil {
		log.WithError(err).Warn("Could not update crawl manifest")
	}
}

func (c *Crawler) finish(log logger.Logger, summary *models.CrawlSummary, runErr error) {
	if c.opts.Recorder == nil {
		return
	}
	if err := c.opts.Recorder.Finish(summary, runErr); err != nil {
		log.WithError(err).Warn("Could not finalize crawl manifest")
	}
}

// outcomeLog collects the outcomes of the order in progress
type outcomeLog struct {
	items []models.DownloadOutcome
}

func (l *outcomeLog) add(o models.DownloadOutcome) { l.items = append(l.items, o) }

func (l *outcomeLog) reset() { l.items = nil }

func (l *outcomeLog) take() []models.DownloadOutcome {
	items := l.items
	l.items = nil
	return items
}

type nopObserver struct{}

func (nopObserver) PagesScanned(int, int)                   {}
func (nopObserver) OrdersFound(int)                         {}
func (nopObserver) OrderStarted(int, models.OrderRef)       {}
func (nopObserver) OrderIdentified(string)                  {}
func (nopObserver) ArtifactFinished(models.DownloadOutcome) {}
func (nopObserver) OrderFinished(models.OrderResult)        {}
