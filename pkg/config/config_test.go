package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://wyniki.diag.pl", cfg.Portal.BaseURL)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Redirect)
	assert.Equal(t, 2*time.Minute, cfg.Timeouts.TwoFactor)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Download)
	assert.Equal(t, filepath.Join("downloads", "xml_results"), cfg.Output.BaseDirectory)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WYNIKI_USERNAME", "patient-01")
	t.Setenv("WYNIKI_PASSWORD", "s3cret")
	t.Setenv("WYNIKI_OUTPUT_DIR", "/tmp/results")
	t.Setenv("WYNIKI_HEADLESS", "true")
	t.Setenv("WYNIKI_TWO_FACTOR_TIMEOUT", "3m")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "patient-01", cfg.Portal.AccountID)
	assert.Equal(t, "s3cret", cfg.Portal.Password)
	assert.Equal(t, "/tmp/results", cfg.Output.BaseDirectory)
	assert.Equal(t, "/tmp/results", cfg.Report.InputDirectory)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 3*time.Minute, cfg.Timeouts.TwoFactor)
}

func TestLoadFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("WYNIKI_HEADLESS", "maybe")
	t.Setenv("WYNIKI_DOWNLOAD_TIMEOUT", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WYNIKI_HEADLESS")
	assert.Contains(t, err.Error(), "WYNIKI_DOWNLOAD_TIMEOUT")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wyniki.yaml")
	content := `
portal:
  base_url: "https://example.test"
  account_id: "from-file"
timeouts:
  two_factor: 90s
delays:
  page_settle: 250ms
report:
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://example.test", cfg.Portal.BaseURL)
	assert.Equal(t, "from-file", cfg.Portal.AccountID)
	assert.Equal(t, 90*time.Second, cfg.Timeouts.TwoFactor)
	assert.Equal(t, 250*time.Millisecond, cfg.Delays.PageSettle)
	assert.Equal(t, 2, cfg.Report.Workers)
	// untouched values keep their defaults
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Download)
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Portal.BaseURL = "not a url"
	cfg.Timeouts.Rows = 0
	cfg.Delays.PageSettle = -time.Second
	cfg.Report.Workers = 0
	cfg.Logging.Level = "chatty"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"base URL", "timeout rows", "delay page_settle", "report workers", "invalid log level"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":             "out",
		"headless":           true,
		"two-factor-timeout": 5 * time.Minute,
		"workers":            8,
		"log-level":          "debug",
	})

	assert.Equal(t, "out", cfg.Output.BaseDirectory)
	assert.Equal(t, "out", cfg.Report.InputDirectory)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 5*time.Minute, cfg.Timeouts.TwoFactor)
	assert.Equal(t, 8, cfg.Report.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestSaveRoundTripKeepsPasswordOut(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Portal.AccountID = "patient-01"
	cfg.Portal.Password = "never-written"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "never-written")

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "patient-01", loaded.Portal.AccountID)
	assert.Empty(t, loaded.Portal.Password)
	assert.Equal(t, cfg.Timeouts, loaded.Timeouts)
}

func TestManifestPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.BaseDirectory = "out"
	assert.Equal(t, filepath.Join("out", "crawl-manifest.json"), cfg.ManifestPath())

	cfg.Output.ManifestFile = "/var/tmp/manifest.json"
	assert.Equal(t, "/var/tmp/manifest.json", cfg.ManifestPath())
}
