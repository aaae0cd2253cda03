package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/upb/unified-workspace/backend/models"
	"github.com/upb/unified-workspace/backend/repositories"
	"go.uber.org/zap"
)

// CreateQuickLinkInput is the body of POST /api/quick-links
type CreateQuickLinkInput struct {
	Name string `json:"name" validate:"required,max=255"`
	URL  string `json:"url" validate:"required,max=2048"`
}

// QuickLinkService manages the quick link tiles
type QuickLinkService struct {
	repo   repositories.QuickLinkRepository
	logger *zap.Logger
}

// NewQuickLinkService creates a new QuickLinkService
func NewQuickLinkService(repo repositories.QuickLinkRepository, logger *zap.Logger) *QuickLinkService {
	return &QuickLinkService{repo: repo, logger: logger}
}

// ListQuickLinks returns every link
func (s *QuickLinkService) ListQuickLinks(ctx context.Context) ([]*models.QuickLink, error) {
	links, err := s.repo.List(ctx)
	if err != nil {
		return nil, WrapInternal("Failed to fetch quick links", err)
	}
	return links, nil
}

// CreateQuickLink adds an external link
func (s *QuickLinkService) CreateQuickLink(ctx context.Context, input CreateQuickLinkInput) (*models.QuickLink, error) {
	if err := validate(input, ErrNameAndURLRequired); err != nil {
		return nil, err
	}

	link := models.NewQuickLink(input.Name, input.URL)
	if err := s.repo.Create(ctx, link); err != nil {
		return nil, WrapInternal("Failed to create quick link", err)
	}

	s.logger.Info("quick link created", zap.Int("link_id", link.ID))
	return link, nil
}

// DeleteQuickLink removes the link whose decimal ID is rawID
func (s *QuickLinkService) DeleteQuickLink(ctx context.Context, rawID string) error {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return ErrInvalidID
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrQuickLinkNotFound
		}
		return WrapInternal("Failed to delete quick link", err)
	}

	s.logger.Info("quick link deleted", zap.Int("link_id", id))
	return nil
}
