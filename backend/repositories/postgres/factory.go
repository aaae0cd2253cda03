package postgres

import (
	"context"

	"github.com/upb/unified-workspace/backend/config"
	"github.com/upb/unified-workspace/backend/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory connects to the database and prepares the schema
func NewRepositoryFactory(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &RepositoryFactory{db: db, logger: logger}, nil
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Tasks:      NewTaskRepository(f.db, f.logger),
		QuickLinks: NewQuickLinkRepository(f.db, f.logger),
		Health:     f.db,
	}
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
