package sso

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "workspace:sso:"

// Cmdable is the subset of the go-redis client used by RedisStore. It is
// satisfied by *redis.Client.
type Cmdable interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisStore keeps handoffs in Redis with a native expiry
type RedisStore struct {
	client Cmdable
	prefix string
}

// NewRedisStore wraps an existing client
func NewRedisStore(client Cmdable) *RedisStore {
	return &RedisStore{client: client, prefix: defaultRedisPrefix}
}

// DialRedisStore connects to the Redis server at rawURL
// (redis://[user:pass@]host:port/db) and checks it is reachable.
func DialRedisStore(ctx context.Context, rawURL string) (*RedisStore, *redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStore(client), client, nil
}

// Put stores token under id with ttl as the key expiry
func (s *RedisStore) Put(ctx context.Context, id, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(id), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store handoff: %w", err)
	}
	return nil
}

// Take returns and deletes the token stored under id with GETDEL
func (s *RedisStore) Take(ctx context.Context, id string) (string, error) {
	token, err := s.client.GetDel(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrHandoffNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read handoff: %w", err)
	}
	return token, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id + ":" + TokenKey
}
