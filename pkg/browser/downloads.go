package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"wyniki/pkg/logger"
)

type downloadResult struct {
	guid      string
	suggested string
	err       error
}

type pendingDownload struct {
	guid      string
	suggested string
	done      chan downloadResult
}

// downloadTracker pairs browser download events with the click that caused
// them. Files land in dir under their GUID. A download that begins while no
// click is waiting, or that outlives its wait, is stray: it is logged and its
// file is removed once it finishes.
type downloadTracker struct {
	dir    string
	logger logger.Logger

	mu      sync.Mutex
	waiter  chan *pendingDownload
	pending map[string]*pendingDownload
	stray   map[string]string
}

func newDownloadTracker(dir string, log logger.Logger) *downloadTracker {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &downloadTracker{
		dir:     dir,
		logger:  log,
		pending: make(map[string]*pendingDownload),
		stray:   make(map[string]string),
	}
}

// expect arms the tracker for the next download and returns the channel the
// matching begin event will be delivered on
func (t *downloadTracker) expect() chan *pendingDownload {
	ch := make(chan *pendingDownload, 1)
	t.mu.Lock()
	t.waiter = ch
	t.mu.Unlock()
	return ch
}

func (t *downloadTracker) disarm(ch chan *pendingDownload) {
	t.mu.Lock()
	if t.waiter == ch {
		t.waiter = nil
	}
	t.mu.Unlock()
}

func (t *downloadTracker) handle(ev interface{}) {
	switch e := ev.(type) {
	case *cdpbrowser.EventDownloadWillBegin:
		t.mu.Lock()
		waiter := t.waiter
		t.waiter = nil
		if waiter == nil {
			t.stray[e.GUID] = e.SuggestedFilename
			t.mu.Unlock()
			t.logger.WarnWithFields("Ignoring download with no button waiting for it", map[string]interface{}{
				"suggested_filename": e.SuggestedFilename,
				"guid":               e.GUID,
			})
			return
		}
		p := &pendingDownload{guid: e.GUID, suggested: e.SuggestedFilename, done: make(chan downloadResult, 1)}
		t.pending[e.GUID] = p
		t.mu.Unlock()
		waiter <- p

	case *cdpbrowser.EventDownloadProgress:
		var err error
		switch e.State {
		case cdpbrowser.DownloadProgressStateCompleted:
		case cdpbrowser.DownloadProgressStateCanceled:
			err = fmt.Errorf("download %s was cancelled", e.GUID)
		default:
			return
		}
		t.mu.Lock()
		p, ok := t.pending[e.GUID]
		delete(t.pending, e.GUID)
		_, stray := t.stray[e.GUID]
		delete(t.stray, e.GUID)
		t.mu.Unlock()
		switch {
		case ok:
			p.done <- downloadResult{guid: e.GUID, suggested: p.suggested, err: err}
		case stray:
			_ = os.Remove(filepath.Join(t.dir, e.GUID))
		}
	}
}

// abandon turns a download that began but did not finish in time into a
// stray one
func (t *downloadTracker) abandon(p *pendingDownload) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[p.guid]; ok {
		delete(t.pending, p.guid)
		t.stray[p.guid] = p.suggested
	}
}

// await waits for the armed download to begin and finish, then reads the
// saved file and removes it from the scratch directory
func (t *downloadTracker) await(ctx context.Context, armed chan *pendingDownload) (*Download, error) {
	var p *pendingDownload
	select {
	case p = <-armed:
	case <-ctx.Done():
		t.disarm(armed)
		select {
		case late := <-armed:
			t.abandon(late)
		default:
		}
		return nil, fmt.Errorf("no download event: %w", ErrTimeout)
	}

	var res downloadResult
	select {
	case res = <-p.done:
	case <-ctx.Done():
		t.abandon(p)
		return nil, fmt.Errorf("download %q did not complete: %w", p.suggested, ErrTimeout)
	}
	if res.err != nil {
		return nil, res.err
	}

	path := filepath.Join(t.dir, res.guid)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read downloaded file: %w", err)
	}
	_ = os.Remove(path)

	return &Download{SuggestedFilename: res.suggested, Data: data}, nil
}
