// Package browsertest provides an in-memory browser.Session whose page state
// is scripted by the test.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"wyniki/pkg/browser"
)

// Element is one scripted DOM match
type Element struct {
	Text  string
	Attrs map[string]string
}

// Link returns an element carrying only an href
func Link(href string) Element {
	return Element{Attrs: map[string]string{"href": href}}
}

// Text returns an element carrying only rendered text
func Text(text string) Element {
	return Element{Text: text}
}

// DownloadResult scripts what clicking one download button yields
type DownloadResult struct {
	Filename string
	Data     []byte
	Err      error
}

// Session is a fake browser.Session. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	url         string
	urlQueue    []string
	elements    map[string][]Element
	html        string
	queryErrs   map[string]error
	downloads   map[string][]DownloadResult
	onClick     map[string]func(*Session)
	onNavigate  func(*Session, string)
	onTimeout   func(*Session)
	navigateErr error

	calls  []string
	pauses []time.Duration
	closed bool
}

// New returns an empty session at about:blank
func New() *Session {
	return &Session{
		url:       "about:blank",
		elements:  make(map[string][]Element),
		queryErrs: make(map[string]error),
		downloads: make(map[string][]DownloadResult),
		onClick:   make(map[string]func(*Session)),
	}
}

// SetURL sets the current location
func (s *Session) SetURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
}

// QueueURL schedules locations the page moves through while WaitURL polls
func (s *Session) QueueURL(urls ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urlQueue = append(s.urlQueue, urls...)
}

// SetElements replaces the matches of selector
func (s *Session) SetElements(selector string, elems ...Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(elems) == 0 {
		delete(s.elements, selector)
		return
	}
	s.elements[selector] = elems
}

// SetHTML sets the document returned by HTML
func (s *Session) SetHTML(html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.html = html
}

// SetQueryError makes every read of selector fail with err
func (s *Session) SetQueryError(selector string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryErrs[selector] = err
}

// SetDownloads scripts one result per button of selector and renders that
// many buttons
func (s *Session) SetDownloads(selector string, results ...DownloadResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads[selector] = results
	elems := make([]Element, len(results))
	if len(elems) == 0 {
		delete(s.elements, selector)
		return
	}
	s.elements[selector] = elems
}

// OnClick runs fn after selector is clicked
func (s *Session) OnClick(selector string, fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClick[selector] = fn
}

// OnNavigate runs fn after every navigation
func (s *Session) OnNavigate(fn func(*Session, string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onNavigate = fn
}

// OnWaitTimeout runs fn each time WaitURL gives up, letting a test move the
// page on after a wait window has passed
func (s *Session) OnWaitTimeout(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTimeout = fn
}

// FailNavigation makes every Navigate return err
func (s *Session) FailNavigation(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigateErr = err
}

// Calls returns the recorded method calls as "Method target" strings
func (s *Session) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Called reports whether call was recorded
func (s *Session) Called(call string) bool {
	for _, c := range s.Calls() {
		if c == call {
			return true
		}
	}
	return false
}

// Pauses returns every settling delay requested
func (s *Session) Pauses() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.pauses...)
}

// Closed reports whether Close was called
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) record(format string, args ...interface{}) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *Session) alive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return fmt.Errorf("session closed")
	}
	return nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	if err := s.alive(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.record("Navigate %s", url)
	if s.navigateErr != nil {
		err := s.navigateErr
		s.mu.Unlock()
		return err
	}
	s.url = url
	hook := s.onNavigate
	s.mu.Unlock()

	if hook != nil {
		hook(s, url)
	}
	return nil
}

func (s *Session) URL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.alive(ctx); err != nil {
		return "", err
	}
	return s.url, nil
}

// WaitURL checks the current location, then each queued location in turn.
// It times out immediately once the queue is exhausted.
func (s *Session) WaitURL(ctx context.Context, timeout time.Duration, patterns ...browser.URLPattern) (int, error) {
	s.mu.Lock()
	if err := s.alive(ctx); err != nil {
		s.mu.Unlock()
		return -1, err
	}

	names := make([]string, len(patterns))
	for i, p := range patterns {
		names[i] = p.String()
	}
	s.record("WaitURL %s %s", timeout, strings.Join(names, ","))

	for {
		if idx := browser.MatchAny(s.url, patterns); idx >= 0 {
			s.mu.Unlock()
			return idx, nil
		}
		if len(s.urlQueue) == 0 {
			break
		}
		s.url = s.urlQueue[0]
		s.urlQueue = s.urlQueue[1:]
	}

	err := fmt.Errorf("location %s: %w", s.url, browser.ErrTimeout)
	hook := s.onTimeout
	s.mu.Unlock()

	if hook != nil {
		hook(s)
	}
	return -1, err
}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.alive(ctx); err != nil {
		return err
	}
	s.record("WaitVisible %s", selector)
	if len(s.elements[selector]) == 0 {
		return fmt.Errorf("waiting for %s: %w", selector, browser.ErrTimeout)
	}
	return nil
}

func (s *Session) Fill(ctx context.Context, selector, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.alive(ctx); err != nil {
		return err
	}
	s.record("Fill %s", selector)
	elems := s.elements[selector]
	if len(elems) == 0 {
		return fmt.Errorf("fill %s: %w", selector, browser.ErrNoElement)
	}
	elems[0].Text = value
	return nil
}

func (s *Session) Click(ctx context.Context, selector string) error {
	s.mu.Lock()
	if err := s.alive(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.record("Click %s", selector)
	if len(s.elements[selector]) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("click %s: %w", selector, browser.ErrNoElement)
	}
	hook := s.onClick[selector]
	s.mu.Unlock()

	if hook != nil {
		hook(s)
	}
	return nil
}

func (s *Session) Count(ctx context.Context, selector string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.alive(ctx); err != nil {
		return 0, err
	}
	if err := s.queryErrs[selector]; err != nil {
		return 0, err
	}
	return len(s.elements[selector]), nil
}

func (s *Session) Attributes(ctx context.Context, selector, name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.alive(ctx); err != nil {
		return nil, err
	}
	if err := s.queryErrs[selector]; err != nil {
		return nil, err
	}
	values := make([]string, 0, len(s.elements[selector]))
	for _, e := range s.elements[selector] {
		values = append(values, e.Attrs[name])
	}
	return values, nil
}

func (s *Session) Texts(ctx context.Context, selector string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.alive(ctx); err != nil {
		return nil, err
	}
	if err := s.queryErrs[selector]; err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(s.elements[selector]))
	for _, e := range s.elements[selector] {
		texts = append(texts, e.Text)
	}
	return texts, nil
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.alive(ctx); err != nil {
		return "", err
	}
	return s.html, nil
}

func (s *Session) Download(ctx context.Context, selector string, index int, timeout time.Duration) (*browser.Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.alive(ctx); err != nil {
		return nil, err
	}
	s.record("Download %s %d", selector, index)

	results := s.downloads[selector]
	if index < 0 || index >= len(results) {
		return nil, fmt.Errorf("%s[%d]: %w", selector, index, browser.ErrNoElement)
	}
	r := results[index]
	if r.Err != nil {
		return nil, r.Err
	}
	return &browser.Download{SuggestedFilename: r.Filename, Data: append([]byte(nil), r.Data...)}, nil
}

// Pause records the delay without sleeping
func (s *Session) Pause(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauses = append(s.pauses, d)
	return ctx.Err()
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ browser.Session = (*Session)(nil)
