package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"wyniki/pkg/logger"
)

func TestURLPattern(t *testing.T) {
	tests := []struct {
		glob  string
		url   string
		match bool
	}{
		{"**/zlecenia**", "https://wyniki.diag.pl/zlecenia", true},
		{"**/zlecenia**", "https://wyniki.diag.pl/zlecenia?page=2", true},
		{"**/zlecenia**", "https://wyniki.diag.pl/logowanie", false},
		{"**/uwierzytelnianie-dwuskladnikowe**", "https://wyniki.diag.pl/uwierzytelnianie-dwuskladnikowe", true},
		{"**/uwierzytelnianie-dwuskladnikowe**", "https://wyniki.diag.pl/zlecenia", false},
		{"https://*/zlecenia", "https://wyniki.diag.pl/zlecenia", true},
		{"https://*/zlecenia", "https://wyniki.diag.pl/a/zlecenia", false},
	}

	for _, tt := range tests {
		t.Run(tt.glob+" "+tt.url, func(t *testing.T) {
			assert.Equal(t, tt.match, NewURLPattern(tt.glob).Match(tt.url))
		})
	}
}

func TestMatchAny(t *testing.T) {
	patterns := []URLPattern{
		NewURLPattern("**/uwierzytelnianie-dwuskladnikowe**"),
		NewURLPattern("**/zlecenia**"),
	}
	assert.Equal(t, 1, MatchAny("https://wyniki.diag.pl/zlecenia", patterns))
	assert.Equal(t, 0, MatchAny("https://wyniki.diag.pl/uwierzytelnianie-dwuskladnikowe", patterns))
	assert.Equal(t, -1, MatchAny("https://wyniki.diag.pl/", patterns))
	assert.False(t, URLPattern{}.Match("anything"))
}

func TestIsXPath(t *testing.T) {
	assert.True(t, IsXPath("//button[contains(., 'Zamknij')]"))
	assert.True(t, IsXPath("(//button)[2]"))
	assert.False(t, IsXPath("button[aria-label='close']"))
}

func TestParseFlag(t *testing.T) {
	name, value := parseFlag("--proxy-server=socks5://localhost:1080")
	assert.Equal(t, "proxy-server", name)
	assert.Equal(t, "socks5://localhost:1080", value)

	name, value = parseFlag("disable-gpu")
	assert.Equal(t, "disable-gpu", name)
	assert.Equal(t, true, value)
}

func TestCombineContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("cancelled by secondary", func(t *testing.T) {
		primary := context.Background()
		secondary, cancel := context.WithCancel(context.Background())
		combined, done := CombineContext(primary, secondary)
		defer done()

		cancel()
		select {
		case <-combined.Done():
		case <-time.After(time.Second):
			t.Fatal("combined context not cancelled")
		}
	})

	t.Run("keeps primary values", func(t *testing.T) {
		type key struct{}
		primary := context.WithValue(context.Background(), key{}, "target")
		combined, done := CombineContext(primary, context.Background())
		defer done()
		assert.Equal(t, "target", combined.Value(key{}))
	})
}

func TestNetworkMonitorWaitIdle(t *testing.T) {
	m := newNetworkMonitor()
	m.handle(&network.EventRequestWillBeSent{RequestID: "1"})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.waitIdle(ctx, 20*time.Millisecond), context.DeadlineExceeded)

	m.handle(&network.EventLoadingFinished{RequestID: "1"})
	require.NoError(t, m.waitIdle(context.Background(), 20*time.Millisecond))
}

func TestDownloadTrackerCompletes(t *testing.T) {
	dir := t.TempDir()
	tracker := newDownloadTracker(dir, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guid-1"), []byte("<root/>"), 0644))

	armed := tracker.expect()
	tracker.handle(&cdpbrowser.EventDownloadWillBegin{GUID: "guid-1", SuggestedFilename: "wynik.xml"})
	tracker.handle(&cdpbrowser.EventDownloadProgress{GUID: "guid-1", State: cdpbrowser.DownloadProgressStateCompleted})

	dl, err := tracker.await(context.Background(), armed)
	require.NoError(t, err)
	assert.Equal(t, "wynik.xml", dl.SuggestedFilename)
	assert.Equal(t, []byte("<root/>"), dl.Data)
	assert.NoFileExists(t, filepath.Join(dir, "guid-1"))
}

func TestDownloadTrackerNoEvent(t *testing.T) {
	tracker := newDownloadTracker(t.TempDir(), nil)
	armed := tracker.expect()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tracker.await(ctx, armed)
	assert.ErrorIs(t, err, ErrTimeout)

	// A late event must not block once the waiter is disarmed
	tracker.handle(&cdpbrowser.EventDownloadWillBegin{GUID: "late"})
}

func TestDownloadTrackerCancelled(t *testing.T) {
	tracker := newDownloadTracker(t.TempDir(), nil)
	armed := tracker.expect()
	tracker.handle(&cdpbrowser.EventDownloadWillBegin{GUID: "g"})
	tracker.handle(&cdpbrowser.EventDownloadProgress{GUID: "g", State: cdpbrowser.DownloadProgressStateInProgress})
	tracker.handle(&cdpbrowser.EventDownloadProgress{GUID: "g", State: cdpbrowser.DownloadProgressStateCanceled})

	_, err := tracker.await(context.Background(), armed)
	assert.ErrorContains(t, err, "cancelled")
}

func TestDownloadTrackerIgnoresUnexpectedDownload(t *testing.T) {
	dir := t.TempDir()
	log := logger.NewTestLogger()
	tracker := newDownloadTracker(dir, log)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "late"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fresh"), []byte("new"), 0644))

	// Begins after the previous button gave up and before the next one is armed
	tracker.handle(&cdpbrowser.EventDownloadWillBegin{GUID: "late", SuggestedFilename: "stary.pdf"})

	armed := tracker.expect()
	tracker.handle(&cdpbrowser.EventDownloadProgress{GUID: "late", State: cdpbrowser.DownloadProgressStateCompleted})
	tracker.handle(&cdpbrowser.EventDownloadWillBegin{GUID: "fresh", SuggestedFilename: "nowy.xml"})
	tracker.handle(&cdpbrowser.EventDownloadProgress{GUID: "fresh", State: cdpbrowser.DownloadProgressStateCompleted})

	dl, err := tracker.await(context.Background(), armed)
	require.NoError(t, err)
	assert.Equal(t, "nowy.xml", dl.SuggestedFilename)
	assert.Equal(t, []byte("new"), dl.Data)
	assert.NoFileExists(t, filepath.Join(dir, "late"))

	warnings := log.GetMessagesByLevel("WARN")
	require.Len(t, warnings, 1)
	assert.Equal(t, "stary.pdf", warnings[0].Fields["suggested_filename"])
}

func TestDownloadTrackerAbandonsSlowDownload(t *testing.T) {
	dir := t.TempDir()
	tracker := newDownloadTracker(dir, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slow"), []byte("x"), 0644))

	armed := tracker.expect()
	tracker.handle(&cdpbrowser.EventDownloadWillBegin{GUID: "slow", SuggestedFilename: "wynik.pdf"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := tracker.await(ctx, armed)
	assert.ErrorIs(t, err, ErrTimeout)

	tracker.handle(&cdpbrowser.EventDownloadProgress{GUID: "slow", State: cdpbrowser.DownloadProgressStateCompleted})
	assert.NoFileExists(t, filepath.Join(dir, "slow"))
}
