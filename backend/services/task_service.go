package services

import (
	"context"
	"errors"

	"github.com/upb/unified-workspace/backend/models"
	"github.com/upb/unified-workspace/backend/repositories"
	"github.com/upb/unified-workspace/backend/utils"
	"go.uber.org/zap"
)

// CreateTaskInput is the body of POST /api/tasks
type CreateTaskInput struct {
	Title string `json:"title" validate:"required,max=500"`
}

// TaskService manages dashboard tasks
type TaskService struct {
	repo   repositories.TaskRepository
	logger *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(repo repositories.TaskRepository, logger *zap.Logger) *TaskService {
	return &TaskService{repo: repo, logger: logger}
}

// ListTasks returns every task
func (s *TaskService) ListTasks(ctx context.Context) ([]*models.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, WrapInternal("Failed to fetch tasks", err)
	}
	return tasks, nil
}

// CreateTask adds an open task
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if err := validate(input, ErrTitleRequired); err != nil {
		return nil, err
	}

	task := models.NewTask(input.Title)
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, WrapInternal("Failed to create task", err)
	}

	s.logger.Info("task created", zap.String("task_id", task.ID))
	return task, nil
}

// UpdateTask applies a partial update to the task with id
func (s *TaskService) UpdateTask(ctx context.Context, id string, update models.TaskUpdate) (*models.Task, error) {
	// Task IDs are UUIDs; anything else cannot name a stored task
	if utils.ValidateUUID(id) != nil {
		return nil, ErrTaskNotFound
	}
	if update.Title != nil && *update.Title == "" {
		return nil, ErrInvalidTaskUpdate
	}

	task, err := s.repo.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, WrapInternal("Failed to update task", err)
	}
	return task, nil
}

// DeleteTask removes the task with id
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if utils.ValidateUUID(id) != nil {
		return ErrTaskNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTaskNotFound
		}
		return WrapInternal("Failed to delete task", err)
	}

	s.logger.Info("task deleted", zap.String("task_id", id))
	return nil
}
