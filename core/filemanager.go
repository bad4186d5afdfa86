package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileManager provides methods for file and directory management.
type FileManager struct {
	rootDir string
}

// NewFileManager creates a new FileManager with the given root directory.
func NewFileManager(rootDir string) *FileManager {
	return &FileManager{rootDir: rootDir}
}

// GetPath returns the full path of a file or directory under the root.
// Absolute paths are returned unchanged.
func (fm *FileManager) GetPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(fm.rootDir, path)
}

// PathExists returns true if the path exists, false otherwise.
func (fm *FileManager) PathExists(path string) bool {
	_, err := os.Stat(fm.GetPath(path))
	return !os.IsNotExist(err)
}

// CreateDirectory creates a directory if it does not exist.
func (fm *FileManager) CreateDirectory(directory string) error {
	return os.MkdirAll(fm.GetPath(directory), 0o755)
}

// ReadFile reads the contents of a file and returns the data.
func (fm *FileManager) ReadFile(path string) ([]byte, error) {
	fullPath := fm.GetPath(path)
	if !fm.PathExists(path) {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(fullPath)
}

// LoadJSONFile loads a JSON file and unmarshals it into the provided interface.
func (fm *FileManager) LoadJSONFile(path string, v interface{}) error {
	data, err := fm.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", path, err)
	}
	return nil
}

// SaveJSONFile marshals the provided interface and writes it through a
// temporary file so readers never see a partial document.
func (fm *FileManager) SaveJSONFile(data interface{}, path string) error {
	fullPath := fm.GetPath(path)
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data to JSON for %s: %w", path, err)
	}
	if err := fm.CreateDirectory(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	tmpPath := fullPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(jsonData, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// LoadScene reads and validates a scene definition.
func (fm *FileManager) LoadScene(path string) (*SceneDefinition, error) {
	var scene SceneDefinition
	if err := fm.LoadJSONFile(path, &scene); err != nil {
		return nil, err
	}
	if err := scene.Validate(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return &scene, nil
}

// SaveReport writes a report as <name>.json inside directory.
func (fm *FileManager) SaveReport(directory, name string, report interface{}) (string, error) {
	path := filepath.Join(directory, name+".json")
	if err := fm.SaveJSONFile(report, path); err != nil {
		return "", err
	}
	return fm.GetPath(path), nil
}
