package sso

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrHandoffNotFound is returned when a handoff does not exist, has
// expired, or was already redeemed.
var ErrHandoffNotFound = errors.New("sso: handoff not found")

// Store is storage shared between the shell and the applications it opens.
// Take reads and deletes in one step so a handoff can be redeemed once.
type Store interface {
	Put(ctx context.Context, id, token string, ttl time.Duration) error
	Take(ctx context.Context, id string) (string, error)
}

type memoryEntry struct {
	token   string
	expires time.Time
}

// MemoryStore keeps handoffs in process memory
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Put stores token under id until ttl elapses
func (s *MemoryStore) Put(_ context.Context, id, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[id] = memoryEntry{token: token, expires: now.Add(ttl)}
	return nil
}

// Take returns and removes the token stored under id
func (s *MemoryStore) Take(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return "", ErrHandoffNotFound
	}
	delete(s.entries, id)
	if s.now().After(e.expires) {
		return "", ErrHandoffNotFound
	}
	return e.token, nil
}
