// Package file keeps tasks and quick links in JSON documents on disk.
// Each repository holds its document in memory and rewrites the file
// after every mutation.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	tasksFile      = "tasks.json"
	quickLinksFile = "quickLinks.json"
)

// load decodes path into dst. A missing or unreadable document leaves dst
// at its zero state so the store starts empty.
func load(path string, dst interface{}, logger *zap.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to read data file, starting empty", zap.String("path", path), zap.Error(err))
		}
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Warn("failed to decode data file, starting empty", zap.String("path", path), zap.Error(err))
	}
}

// save replaces path with the indented encoding of v via a temp file rename
func save(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
