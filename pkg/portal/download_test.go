package portal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"wyniki/pkg/browser"
	"wyniki/pkg/browser/browsertest"
	errs "wyniki/pkg/errors"
	"wyniki/pkg/logger"
	"wyniki/pkg/models"
)

type memStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	failFor map[string]error
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string][]byte), failFor: make(map[string]error)}
}

func (m *memStore) SaveArtifact(filename string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[filename]; err != nil {
		return "", err
	}
	m.files[filename] = data
	return filepath.Join("out", filename), nil
}

func (m *memStore) Exists(filename string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[filename]
	return ok
}

func orderDialog() *browsertest.Session {
	s := browsertest.New()
	s.SetElements(OpenTestsButton, browsertest.Element{})
	s.SetElements(CloseButton, browsertest.Element{})
	return s
}

func ok(name string) browsertest.DownloadResult {
	return browsertest.DownloadResult{Filename: name, Data: []byte("data:" + name)}
}

func TestDownloadAllNaming(t *testing.T) {
	s := orderDialog()
	s.SetDownloads(XMLButton, ok("a.xml"), ok("b.xml"))
	s.SetDownloads(PDFButton, ok("a.pdf"))

	store := newMemStore()
	var observed []string
	d := NewDownloader(store, DefaultTiming(), func(o models.DownloadOutcome) {
		observed = append(observed, o.Filename)
	}, logger.NewNopLogger())

	result := d.DownloadAll(context.Background(), s, "/zlecenia/1", "402337694L")

	require.NoError(t, result.Err)
	require.Len(t, result.Outcomes, 3)
	want := []string{"402337694L_xml1.xml", "402337694L_xml2.xml", "402337694L.pdf"}
	assert.Equal(t, want, observed)
	for _, name := range want {
		assert.Contains(t, store.files, name)
	}
	assert.Equal(t, []byte("data:b.xml"), store.files["402337694L_xml2.xml"])
	assert.Equal(t, 3, result.SavedCount())
	assert.False(t, result.SoftFailure())
	assert.True(t, s.Called("Click "+CloseButton))
}

func TestDownloadAllContinuesAfterFailure(t *testing.T) {
	s := orderDialog()
	s.SetDownloads(XMLButton,
		browsertest.DownloadResult{Err: fmt.Errorf("no event: %w", browser.ErrTimeout)},
		ok("second.xml"),
	)

	d := NewDownloader(newMemStore(), DefaultTiming(), nil, logger.NewNopLogger())
	result := d.DownloadAll(context.Background(), s, "/zlecenia/2", "383634902L")

	require.Len(t, result.Outcomes, 2)
	first, second := result.Outcomes[0], result.Outcomes[1]

	assert.False(t, first.Saved())
	assert.ErrorIs(t, first.Err, browser.ErrTimeout)
	assert.Equal(t, errs.ErrorTypeDownload, errs.TypeOf(first.Err))
	assert.NotEmpty(t, first.Reason)

	assert.True(t, second.Saved())
	assert.Equal(t, "383634902L_xml2.xml", second.Filename)
	assert.Equal(t, 1, result.SavedCount())
	assert.Equal(t, 1, result.FailedCount())
}

func TestDownloadAllSaveFailureIsSoft(t *testing.T) {
	s := orderDialog()
	s.SetDownloads(XMLButton, ok("a.xml"))
	s.SetDownloads(CSVButton, ok("a.csv"))

	store := newMemStore()
	store.failFor["id.xml"] = errors.New("disk full")

	result := NewDownloader(store, DefaultTiming(), nil, logger.NewNopLogger()).
		DownloadAll(context.Background(), s, "/zlecenia/3", "id")

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, errs.ErrorTypeSave, errs.TypeOf(result.Outcomes[0].Err))
	assert.True(t, result.Outcomes[1].Saved())
	assert.Equal(t, "id.csv", result.Outcomes[1].Filename)
}

func TestDownloadAllNoButtons(t *testing.T) {
	s := orderDialog()
	tl := logger.NewTestLogger()

	result := NewDownloader(newMemStore(), DefaultTiming(), nil, tl).
		DownloadAll(context.Background(), s, "/zlecenia/4", "id")

	assert.NoError(t, result.Err)
	assert.Empty(t, result.Outcomes)
	assert.True(t, result.SoftFailure())
	assert.True(t, tl.HasMessage("No files downloaded"))
}

func TestDownloadAllDialogMissing(t *testing.T) {
	s := browsertest.New()

	result := NewDownloader(newMemStore(), DefaultTiming(), nil, logger.NewNopLogger()).
		DownloadAll(context.Background(), s, "/zlecenia/5", "id")

	require.Error(t, result.Err)
	assert.Equal(t, errs.ErrorTypeOrder, errs.TypeOf(result.Err))
	assert.False(t, errs.IsFatal(errs.TypeOf(result.Err)))
	assert.True(t, result.SoftFailure())
}

func TestDownloadAllCloseFallsBackToText(t *testing.T) {
	s := browsertest.New()
	s.SetElements(OpenTestsButton, browsertest.Element{})
	s.SetElements(CloseButtonText, browsertest.Element{})
	s.SetDownloads(PDFButton, ok("x.pdf"))

	NewDownloader(newMemStore(), DefaultTiming(), nil, logger.NewNopLogger()).
		DownloadAll(context.Background(), s, "/zlecenia/6", "id")

	assert.True(t, s.Called("Click "+CloseButtonText))
}

func TestDownloadAllWithoutCloseButton(t *testing.T) {
	s := browsertest.New()
	s.SetElements(OpenTestsButton, browsertest.Element{})
	s.SetDownloads(PDFButton, ok("x.pdf"))

	result := NewDownloader(newMemStore(), DefaultTiming(), nil, logger.NewNopLogger()).
		DownloadAll(context.Background(), s, "/zlecenia/7", "id")

	assert.NoError(t, result.Err)
	assert.Equal(t, 1, result.SavedCount())
}

func TestDownloadAllWarnsOnCollision(t *testing.T) {
	s := orderDialog()
	s.SetDownloads(XMLButton, ok("a.xml"))
	store := newMemStore()
	store.files["dup.xml"] = []byte("old")
	tl := logger.NewTestLogger()

	NewDownloader(store, DefaultTiming(), nil, tl).DownloadAll(context.Background(), s, "/zlecenia/8", "dup")

	assert.True(t, tl.HasMessage("Overwriting existing artifact"))
	assert.Equal(t, []byte("data:a.xml"), store.files["dup.xml"])
}
