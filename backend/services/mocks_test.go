package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/upb/unified-workspace/backend/models"
)

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) List(ctx context.Context) ([]*models.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Task), args.Error(1)
}

func (m *MockTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, id string, update models.TaskUpdate) (*models.Task, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockQuickLinkRepository struct {
	mock.Mock
}

func (m *MockQuickLinkRepository) List(ctx context.Context) ([]*models.QuickLink, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuickLink), args.Error(1)
}

func (m *MockQuickLinkRepository) Create(ctx context.Context, link *models.QuickLink) error {
	return m.Called(ctx, link).Error(0)
}

func (m *MockQuickLinkRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}
