package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"wyniki/pkg/logger"
	"wyniki/pkg/models"
)

// FormatVersion is bumped whenever the file layout changes
const FormatVersion = 1

// Manifest is the on-disk record of one crawl
type Manifest struct {
	Version   int                  `json:"version"`
	Summary   *models.CrawlSummary `json:"summary"`
	Completed bool                 `json:"completed"`
	Error     string               `json:"error,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Manager keeps the manifest file in step with the crawl
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager creates a manager writing to path
func NewManager(path string, log logger.Logger) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{path: path, logger: log}, nil
}

// Path returns the manifest location
func (m *Manager) Path() string {
	return m.path
}

// Begin keeps the previous run's manifest as a backup and writes a fresh one
func (m *Manager) Begin(summary *models.CrawlSummary) error {
	if err := m.backup(); err != nil {
		m.logger.WithError(err).Warn("Could not back up previous manifest")
	}
	return m.save(&Manifest{Summary: summary})
}

// Record rewrites the manifest after an order has been processed
func (m *Manager) Record(summary *models.CrawlSummary) error {
	return m.save(&Manifest{Summary: summary})
}

// Finish marks the crawl finished, recording runErr when it aborted
func (m *Manager) Finish(summary *models.CrawlSummary, runErr error) error {
	mf := &Manifest{Summary: summary, Completed: runErr == nil}
	if runErr != nil {
		mf.Error = runErr.Error()
	}
	return m.save(mf)
}

// Load reads the manifest; a missing file returns nil, nil
func (m *Manager) Load() (*Manifest, error) {
	file, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var mf Manifest
	if err := json.NewDecoder(file).Decode(&mf); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if mf.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", mf.Version)
	}
	return &mf, nil
}

func (m *Manager) save(mf *Manifest) error {
	mf.Version = FormatVersion
	mf.UpdatedAt = time.Now()

	tempPath := m.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(mf); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync manifest: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close manifest: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace manifest: %w", err)
	}

	if mf.Summary != nil {
		m.logger.DebugWithFields("Manifest saved", map[string]interface{}{
			"orders":    len(mf.Summary.Orders),
			"saved":     mf.Summary.ArtifactsSaved,
			"completed": mf.Completed,
		})
	}
	return nil
}

func (m *Manager) backup() error {
	src, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open manifest for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(m.path + ".prev")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy manifest to backup: %w", err)
	}
	return nil
}
