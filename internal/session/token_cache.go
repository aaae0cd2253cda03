package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// CachedSession is what survives between shell invocations
type CachedSession struct {
	Account *Account      `json:"account"`
	Token   *oauth2.Token `json:"token"`
}

// TokenCache persists the signed-in account and its tokens
type TokenCache interface {
	Load() (*CachedSession, error)
	Save(*CachedSession) error
	Clear() error
}

// FileTokenCache keeps the session in a single JSON file readable only by
// the current user.
type FileTokenCache struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenCache creates a cache backed by path
func NewFileTokenCache(path string) *FileTokenCache {
	return &FileTokenCache{path: path}
}

// Load returns the cached session, or nil when the file does not exist
func (c *FileTokenCache) Load() (*CachedSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	var cached CachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to decode token cache: %w", err)
	}
	if cached.Account == nil || cached.Token == nil {
		return nil, nil
	}
	return &cached, nil
}

// Save replaces the cached session
func (c *FileTokenCache) Save(s *CachedSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode token cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token cache directory: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace token cache: %w", err)
	}
	return nil
}

// Clear removes the cached session
func (c *FileTokenCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token cache: %w", err)
	}
	return nil
}
