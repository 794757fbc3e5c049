package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

// networkMonitor tracks in-flight requests of the tab so navigation can wait
// for the page to go quiet
type networkMonitor struct {
	mu           sync.Mutex
	inflight     map[network.RequestID]struct{}
	lastActivity time.Time
}

func newNetworkMonitor() *networkMonitor {
	return &networkMonitor{
		inflight:     make(map[network.RequestID]struct{}),
		lastActivity: time.Now(),
	}
}

func (m *networkMonitor) handle(ev interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		m.inflight[e.RequestID] = struct{}{}
		m.lastActivity = time.Now()
	case *network.EventLoadingFinished:
		delete(m.inflight, e.RequestID)
		m.lastActivity = time.Now()
	case *network.EventLoadingFailed:
		delete(m.inflight, e.RequestID)
		m.lastActivity = time.Now()
	}
}

func (m *networkMonitor) snapshot() (int, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight), m.lastActivity
}

// waitIdle returns once no request has been in flight for quiet
func (m *networkMonitor) waitIdle(ctx context.Context, quiet time.Duration) error {
	if quiet <= 0 {
		return nil
	}

	interval := quiet / 2
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			inflight, last := m.snapshot()
			if inflight == 0 && time.Since(last) >= quiet {
				return nil
			}
		}
	}
}
