package file

import (
	"context"
	"fmt"
	"os"

	"github.com/upb/unified-workspace/backend/repositories"
	"go.uber.org/zap"
)

// dirHealth reports whether the data directory is still usable
type dirHealth string

func (d dirHealth) HealthCheck(ctx context.Context) error {
	info, err := os.Stat(string(d))
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", string(d))
	}
	return nil
}

// NewRepositories creates dir if needed and opens both documents in it
func NewRepositories(dir string, logger *zap.Logger) (*repositories.Repositories, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	logger.Info("using file storage", zap.String("dir", dir))
	return &repositories.Repositories{
		Tasks:      NewTaskRepository(dir, logger),
		QuickLinks: NewQuickLinkRepository(dir, logger),
		Health:     dirHealth(dir),
	}, nil
}
