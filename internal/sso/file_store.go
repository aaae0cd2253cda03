package sso

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type fileEntry struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// FileStore keeps each handoff in its own file in a directory shared with
// child applications on the same machine.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create handoff directory: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Put writes the handoff file atomically
func (s *FileStore) Put(_ context.Context, id, token string, ttl time.Duration) error {
	data, err := json.Marshal(fileEntry{Token: token, ExpiresAt: s.now().Add(ttl)})
	if err != nil {
		return err
	}

	path := s.path(id)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write handoff: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write handoff: %w", err)
	}
	return nil
}

// Take claims the handoff file by renaming it, then reads and removes it.
// Of two concurrent callers only one wins the rename.
func (s *FileStore) Take(_ context.Context, id string) (string, error) {
	path := s.path(id)
	claimed := path + ".claimed"
	if err := os.Rename(path, claimed); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrHandoffNotFound
		}
		return "", fmt.Errorf("failed to claim handoff: %w", err)
	}
	defer os.Remove(claimed) //nolint:errcheck

	data, err := os.ReadFile(claimed)
	if err != nil {
		return "", fmt.Errorf("failed to read handoff: %w", err)
	}
	var e fileEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return "", fmt.Errorf("failed to decode handoff: %w", err)
	}
	if s.now().After(e.ExpiresAt) {
		return "", ErrHandoffNotFound
	}
	return e.Token, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+"."+TokenKey)
}
