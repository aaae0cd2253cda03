package repositories

import (
	"context"
	"errors"

	"github.com/upb/unified-workspace/backend/models"
)

// ErrNotFound is returned when the addressed record does not exist
var ErrNotFound = errors.New("record not found")

// TaskRepository handles task data operations
type TaskRepository interface {
	// List returns all tasks in creation order
	List(ctx context.Context) ([]*models.Task, error)

	// Create stores a new task
	Create(ctx context.Context, task *models.Task) error

	// Update applies a partial update and returns the stored task.
	// Returns ErrNotFound when no task has the given ID.
	Update(ctx context.Context, id string, update models.TaskUpdate) (*models.Task, error)

	// Delete removes a task. Returns ErrNotFound when no task has the given ID.
	Delete(ctx context.Context, id string) error
}

// QuickLinkRepository handles quick link data operations
type QuickLinkRepository interface {
	// List returns all quick links in ID order
	List(ctx context.Context) ([]*models.QuickLink, error)

	// Create stores a new link and assigns the next ID to link.ID
	Create(ctx context.Context, link *models.QuickLink) error

	// Delete removes a link. Returns ErrNotFound when no link has the given ID.
	Delete(ctx context.Context, id int) error
}

// HealthChecker reports whether a backing store is usable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Tasks      TaskRepository
	QuickLinks QuickLinkRepository
	Health     HealthChecker
}
