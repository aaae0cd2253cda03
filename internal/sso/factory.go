package sso

import (
	"context"
	"fmt"
	"io"

	"github.com/upb/unified-workspace/internal/session"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore builds the store selected by cfg. The returned Closer releases
// any connection held by the store.
func OpenStore(ctx context.Context, cfg session.HandoffConfig) (Store, io.Closer, error) {
	switch cfg.Store {
	case "memory":
		return NewMemoryStore(), nopCloser{}, nil
	case "file":
		s, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	case "redis":
		s, client, err := DialRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return s, client, nil
	default:
		return nil, nil, fmt.Errorf("unknown handoff store %q", cfg.Store)
	}
}
