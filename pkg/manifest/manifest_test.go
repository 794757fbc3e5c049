package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"wyniki/pkg/logger"
	"wyniki/pkg/models"
)

func testSummary() *models.CrawlSummary {
	s := &models.CrawlSummary{RunID: "run-1", StartedAt: time.Now(), OrdersDiscovered: 2}
	s.Record(models.OrderResult{
		Ref:        "/zlecenia/1",
		Identifier: "402337694L",
		Outcomes: []models.DownloadOutcome{
			{Kind: models.ArtifactXML, Filename: "402337694L.xml", Path: "out/402337694L.xml", Size: 10},
			{Kind: models.ArtifactPDF, Filename: "402337694L.pdf", Err: errors.New("timeout"), Reason: "timeout"},
		},
	})
	return s
}

func TestManifestLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "crawl-manifest.json")
	m, err := NewManager(path, logger.NewNopLogger())
	require.NoError(t, err)

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	summary := testSummary()
	require.NoError(t, m.Begin(summary))
	require.NoError(t, m.Record(summary))

	loaded, err = m.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.False(t, loaded.Completed)
	assert.Equal(t, "run-1", loaded.Summary.RunID)
	require.Len(t, loaded.Summary.Orders, 1)

	outcomes := loaded.Summary.Orders[0].Outcomes
	require.Len(t, outcomes, 2)
	assert.Equal(t, models.ArtifactPDF, outcomes[1].Kind)
	assert.Equal(t, "timeout", outcomes[1].Reason)

	require.NoError(t, m.Finish(summary, nil))
	loaded, err = m.Load()
	require.NoError(t, err)
	assert.True(t, loaded.Completed)
	assert.Empty(t, loaded.Error)

	assert.NoFileExists(t, path+".tmp")
}

func TestManifestFinishWithError(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "m.json"), logger.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, m.Finish(&models.CrawlSummary{RunID: "x"}, errors.New("auth error")))

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.False(t, loaded.Completed)
	assert.Equal(t, "auth error", loaded.Error)
}

func TestManifestBackupOfPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	m, err := NewManager(path, logger.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, m.Finish(&models.CrawlSummary{RunID: "first"}, nil))
	require.NoError(t, m.Begin(&models.CrawlSummary{RunID: "second"}))

	prev, err := os.ReadFile(path + ".prev")
	require.NoError(t, err)
	assert.Contains(t, string(prev), `"run_id": "first"`)
}

func TestManifestRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0644))

	m, err := NewManager(path, logger.NewNopLogger())
	require.NoError(t, err)

	_, err = m.Load()
	assert.ErrorContains(t, err, "unsupported manifest version")
}

func TestNewManagerRequiresPath(t *testing.T) {
	_, err := NewManager("", nil)
	assert.Error(t, err)
}
