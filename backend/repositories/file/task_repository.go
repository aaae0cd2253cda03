package file

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/upb/unified-workspace/backend/models"
	"github.com/upb/unified-workspace/backend/repositories"
	"go.uber.org/zap"
)

type taskDocument struct {
	Tasks []*models.Task `json:"tasks"`
}

// TaskRepository implements repositories.TaskRepository on tasks.json
type TaskRepository struct {
	mu     sync.Mutex
	path   string
	doc    taskDocument
	logger *zap.Logger
}

// NewTaskRepository loads tasks.json from dir
func NewTaskRepository(dir string, logger *zap.Logger) *TaskRepository {
	r := &TaskRepository{
		path:   filepath.Join(dir, tasksFile),
		logger: logger,
	}
	load(r.path, &r.doc, logger)
	return r
}

// List returns copies of all tasks in insertion order
func (r *TaskRepository) List(ctx context.Context) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]*models.Task, 0, len(r.doc.Tasks))
	for _, t := range r.doc.Tasks {
		c := *t
		tasks = append(tasks, &c)
	}
	return tasks, nil
}

// Create appends task and persists the document
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *task
	r.doc.Tasks = append(r.doc.Tasks, &stored)
	if err := save(r.path, r.doc); err != nil {
		r.doc.Tasks = r.doc.Tasks[:len(r.doc.Tasks)-1]
		return err
	}

	r.logger.Debug("task created", zap.String("id", task.ID))
	return nil
}

// Update applies update to the task with id
func (r *TaskRepository) Update(ctx context.Context, id string, update models.TaskUpdate) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.doc.Tasks {
		if t.ID != id {
			continue
		}
		previous := *t
		update.Apply(t)
		if err := save(r.path, r.doc); err != nil {
			*t = previous
			return nil, err
		}
		updated := *t
		return &updated, nil
	}
	return nil, repositories.ErrNotFound
}

// Delete removes the task with id
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, t := range r.doc.Tasks {
		if t.ID != id {
			continue
		}
		previous := r.doc.Tasks
		remaining := make([]*models.Task, 0, len(previous)-1)
		remaining = append(remaining, previous[:i]...)
		remaining = append(remaining, previous[i+1:]...)
		r.doc.Tasks = remaining
		if err := save(r.path, r.doc); err != nil {
			r.doc.Tasks = previous
			return err
		}
		r.logger.Debug("task deleted", zap.String("id", id))
		return nil
	}
	return repositories.ErrNotFound
}
