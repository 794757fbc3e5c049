package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// artifactExtensions are the file types the crawler writes
var artifactExtensions = map[string]bool{
	".xml": true,
	".pdf": true,
	".csv": true,
}

// Manager writes result documents into the output directory and tracks what
// is already there
type Manager struct {
	outputDir string
	artifacts map[string]bool
	existing  int
	mu        sync.RWMutex
}

// NewManager creates the output directory if needed and indexes the
// artifacts already in it
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		artifacts: make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}
	manager.existing = len(manager.artifacts)

	return manager, nil
}

func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if artifactExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			m.artifacts[entry.Name()] = true
		}
	}

	return nil
}

// Exists reports whether filename is already in the output directory
func (m *Manager) Exists(filename string) bool {
	m.mu.RLock()
	known := m.artifacts[filename]
	m.mu.RUnlock()
	if known {
		return true
	}

	if _, err := os.Stat(filepath.Join(m.outputDir, filename)); err == nil {
		m.mu.Lock()
		m.artifacts[filename] = true
		m.mu.Unlock()
		return true
	}
	return false
}

// SaveArtifact writes data to filename atomically and returns the full path.
// An existing file of the same name is replaced.
func (m *Manager) SaveArtifact(filename string, data []byte) (string, error) {
	return m.Save(filename, bytes.NewReader(data))
}

// Save streams r into filename through a temporary file
func (m *Manager) Save(filename string, r io.Reader) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid artifact name %q", filename)
	}
	target := filepath.Join(m.outputDir, filename)

	out, err := os.CreateTemp(m.outputDir, "."+filename+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.artifacts[filename] = true
	m.mu.Unlock()

	return target, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// Count returns the number of artifacts known in the output directory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.artifacts)
}

// ExistingCount returns how many artifacts were present before this run
func (m *Manager) ExistingCount() int {
	return m.existing
}
