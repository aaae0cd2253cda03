package sso

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) GetDel(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	delete(f.data, key)
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Take(ctx, "missing")
	assert.ErrorIs(t, err, ErrHandoffNotFound)

	require.NoError(t, s.Put(ctx, "h1", "token-1", time.Minute))
	require.NoError(t, s.Put(ctx, "h2", "token-2", time.Minute))

	token, err := s.Take(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	_, err = s.Take(ctx, "h1")
	assert.ErrorIs(t, err, ErrHandoffNotFound)

	token, err = s.Take(ctx, "h2")
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())

	t.Run("expired handoff", func(t *testing.T) {
		s := NewMemoryStore()
		now := time.Now()
		s.now = func() time.Time { return now }
		require.NoError(t, s.Put(context.Background(), "h", "t", time.Minute))

		now = now.Add(2 * time.Minute)
		_, err := s.Take(context.Background(), "h")
		assert.ErrorIs(t, err, ErrHandoffNotFound)
	})
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	storeContract(t, s)

	t.Run("file named after token key", func(t *testing.T) {
		require.NoError(t, s.Put(context.Background(), "h3", "t", time.Minute))

		_, err := os.Stat(filepath.Join(dir, "h3.msal.token"))
		assert.NoError(t, err)
	})

	t.Run("expired handoff", func(t *testing.T) {
		now := time.Now()
		s.now = func() time.Time { return now }
		require.NoError(t, s.Put(context.Background(), "old", "t", time.Minute))

		now = now.Add(2 * time.Minute)
		_, err := s.Take(context.Background(), "old")
		assert.ErrorIs(t, err, ErrHandoffNotFound)
		s.now = time.Now
	})

	t.Run("concurrent redeem succeeds once", func(t *testing.T) {
		require.NoError(t, s.Put(context.Background(), "race", "t", time.Minute))

		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.Take(context.Background(), "race"); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})
}

func TestRedisStore(t *testing.T) {
	client := newFakeRedis()
	s := NewRedisStore(client)
	storeContract(t, s)

	t.Run("key and expiry", func(t *testing.T) {
		require.NoError(t, s.Put(context.Background(), "h", "t", 2*time.Minute))

		assert.Equal(t, "t", client.data["workspace:sso:h:msal.token"])
		assert.Equal(t, 2*time.Minute, client.ttls["workspace:sso:h:msal.token"])
	})

	t.Run("server error", func(t *testing.T) {
		client.err = errors.New("connection refused")
		defer func() { client.err = nil }()

		assert.Error(t, s.Put(context.Background(), "x", "t", time.Minute))
		_, err := s.Take(context.Background(), "x")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrHandoffNotFound)
	})
}
