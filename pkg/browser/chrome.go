package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"wyniki/pkg/logger"
	"wyniki/pkg/retry"
)

// urlPollInterval is how often WaitURL samples the location
const urlPollInterval = 250 * time.Millisecond

// collectScript evaluates selector (CSS or XPath) in the page and maps every
// match to its rendered text
const collectScript = `(function(sel, xpath) {
	var els = [];
	if (xpath) {
		var r = document.evaluate(sel, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		for (var i = 0; i < r.snapshotLength; i++) els.push(r.snapshotItem(i));
	} else {
		els = Array.prototype.slice.call(document.querySelectorAll(sel));
	}
	return els.map(function(e) { return e.innerText || e.textContent || ""; });
})(%s, %t)`

// chromeSession implements Session on a chromedp target
type chromeSession struct {
	ctx    context.Context
	cancel context.CancelFunc

	network   *networkMonitor
	downloads *downloadTracker

	navTimeout    time.Duration
	actionTimeout time.Duration
	networkQuiet  time.Duration

	logger    logger.Logger
	closeOnce sync.Once
	closeErr  error
}

func byOne(selector string) chromedp.QueryOption {
	if IsXPath(selector) {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func byAll(selector string) chromedp.QueryOption {
	if IsXPath(selector) {
		return chromedp.BySearch
	}
	return chromedp.ByQueryAll
}

func timeoutErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := boundedContext(s.ctx, ctx, s.navTimeout)
	defer cancel()

	s.logger.DebugWithFields("navigating", map[string]interface{}{"url": url})

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, timeoutErr(err))
	}
	if err := s.network.waitIdle(runCtx, s.networkQuiet); err != nil {
		return fmt.Errorf("waiting for network idle on %s: %w", url, timeoutErr(err))
	}
	return nil
}

func (s *chromeSession) URL(ctx context.Context) (string, error) {
	runCtx, cancel := boundedContext(s.ctx, ctx, s.actionTimeout)
	defer cancel()

	var location string
	if err := chromedp.Run(runCtx, chromedp.Location(&location)); err != nil {
		return "", timeoutErr(err)
	}
	return location, nil
}

func (s *chromeSession) WaitURL(ctx context.Context, timeout time.Duration, patterns ...URLPattern) (int, error) {
	waitCtx, cancel := boundedContext(s.ctx, ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(urlPollInterval)
	defer ticker.Stop()

	for {
		var location string
		if err := chromedp.Run(waitCtx, chromedp.Location(&location)); err == nil {
			if idx := MatchAny(location, patterns); idx >= 0 {
				return idx, nil
			}
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return -1, ctx.Err()
			}
			return -1, fmt.Errorf("location never matched %v: %w", patterns, ErrTimeout)
		case <-ticker.C:
		}
	}
}

func (s *chromeSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := boundedContext(s.ctx, ctx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.WaitVisible(selector, byOne(selector))); err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, timeoutErr(err))
	}
	return nil
}

func (s *chromeSession) Fill(ctx context.Context, selector, value string) error {
	runCtx, cancel := boundedContext(s.ctx, ctx, s.actionTimeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.WaitVisible(selector, byOne(selector)),
		chromedp.Clear(selector, byOne(selector)),
		chromedp.SendKeys(selector, value, byOne(selector)),
	)
	if err != nil {
		return fmt.Errorf("fill %s: %w", selector, timeoutErr(err))
	}
	return nil
}

func (s *chromeSession) Click(ctx context.Context, selector string) error {
	runCtx, cancel := boundedContext(s.ctx, ctx, s.actionTimeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Click(selector, byOne(selector), chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %s: %w", selector, timeoutErr(err))
	}
	return nil
}

func (s *chromeSession) nodes(ctx context.Context, selector string) ([]*cdp.Node, error) {
	runCtx, cancel := boundedContext(s.ctx, ctx, s.actionTimeout)
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(runCtx, chromedp.Nodes(selector, &nodes, byAll(selector), chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, timeoutErr(err))
	}
	return nodes, nil
}

func (s *chromeSession) Count(ctx context.Context, selector string) (int, error) {
	nodes, err := s.nodes(ctx, selector)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

func (s *chromeSession) Attributes(ctx context.Context, selector, name string) ([]string, error) {
	nodes, err := s.nodes(ctx, selector)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(nodes))
	for _, n := range nodes {
		values = append(values, n.AttributeValue(name))
	}
	return values, nil
}

func (s *chromeSession) Texts(ctx context.Context, selector string) ([]string, error) {
	runCtx, cancel := boundedContext(s.ctx, ctx, s.actionTimeout)
	defer cancel()

	quoted, err := json.Marshal(selector)
	if err != nil {
		return nil, err
	}

	var texts []string
	script := fmt.Sprintf(collectScript, quoted, IsXPath(selector))
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &texts)); err != nil {
		return nil, fmt.Errorf("read text of %s: %w", selector, timeoutErr(err))
	}
	return texts, nil
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := boundedContext(s.ctx, ctx, s.actionTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("snapshot page: %w", timeoutErr(err))
	}
	return html, nil
}

func (s *chromeSession) Download(ctx context.Context, selector string, index int, timeout time.Duration) (*Download, error) {
	nodes, err := s.nodes(ctx, selector)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(nodes) {
		return nil, fmt.Errorf("%s[%d]: %w", selector, index, ErrNoElement)
	}

	runCtx, cancel := boundedContext(s.ctx, ctx, timeout)
	defer cancel()

	armed := s.downloads.expect()
	if err := chromedp.Run(runCtx, chromedp.MouseClickNode(nodes[index])); err != nil {
		s.downloads.disarm(armed)
		return nil, fmt.Errorf("click %s[%d]: %w", selector, index, timeoutErr(err))
	}

	return s.downloads.await(runCtx, armed)
}

func (s *chromeSession) Pause(ctx context.Context, d time.Duration) error {
	return retry.Wait(ctx, d)
}

func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.downloads != nil && s.downloads.dir != "" {
			s.closeErr = os.RemoveAll(s.downloads.dir)
		}
		s.logger.Debug("browser session closed")
	})
	return s.closeErr
}
