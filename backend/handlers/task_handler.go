package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/unified-workspace/backend/models"
	"github.com/upb/unified-workspace/backend/services"
	"github.com/upb/unified-workspace/backend/utils"
	"go.uber.org/zap"
)

// DeletedResponse confirms a delete
type DeletedResponse struct {
	Message string `json:"message"`
}

// TaskService defines the task operations used by TaskHandler
type TaskService interface {
	ListTasks(ctx context.Context) ([]*models.Task, error)
	CreateTask(ctx context.Context, input services.CreateTaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, update models.TaskUpdate) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	service TaskService
	logger  *zap.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(service TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /api/tasks
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListTasks(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, tasks)
}

// HandleCreate handles POST /api/tasks
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTaskInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	task, err := h.service.CreateTask(r.Context(), input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("task created",
		zap.String("request_id", chimw.GetReqID(r.Context())),
		zap.String("task_id", task.ID))
	_ = utils.WriteCreated(w, task)
}

// HandleUpdate handles PATCH /api/tasks/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var update models.TaskUpdate
	if err := utils.DecodeJSON(r, &update); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	task, err := h.service.UpdateTask(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, task)
}

// HandleDelete handles DELETE /api/tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, DeletedResponse{Message: "Task deleted successfully"})
}
