package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/upb/unified-workspace/backend/entra"
	"github.com/upb/unified-workspace/backend/models"
	"github.com/upb/unified-workspace/backend/services"
)

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) ListTasks(ctx context.Context) ([]*models.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Task), args.Error(1)
}

func (m *MockTaskService) CreateTask(ctx context.Context, input services.CreateTaskInput) (*models.Task, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, id string, update models.TaskUpdate) (*models.Task, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockQuickLinkService struct {
	mock.Mock
}

func (m *MockQuickLinkService) ListQuickLinks(ctx context.Context) ([]*models.QuickLink, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuickLink), args.Error(1)
}

func (m *MockQuickLinkService) CreateQuickLink(ctx context.Context, input services.CreateQuickLinkInput) (*models.QuickLink, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuickLink), args.Error(1)
}

func (m *MockQuickLinkService) DeleteQuickLink(ctx context.Context, rawID string) error {
	return m.Called(ctx, rawID).Error(0)
}

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Profile(identity *entra.Identity) models.User {
	return m.Called(identity).Get(0).(models.User)
}

func (m *MockProfileService) JobSummary() models.JobSummary {
	return m.Called().Get(0).(models.JobSummary)
}
