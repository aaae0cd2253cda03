package postgres

import (
	"context"
	"fmt"

	"github.com/upb/unified-workspace/backend/models"
	"github.com/upb/unified-workspace/backend/repositories"
	"go.uber.org/zap"
)

// QuickLinkRepository implements the repositories.QuickLinkRepository interface
type QuickLinkRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewQuickLinkRepository creates a new quick link repository
func NewQuickLinkRepository(db *DB, logger *zap.Logger) repositories.QuickLinkRepository {
	return &QuickLinkRepository{
		db:     db,
		logger: logger,
	}
}

// List returns all quick links in ID order
func (r *QuickLinkRepository) List(ctx context.Context) ([]*models.QuickLink, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, route, icon, is_external FROM quick_links ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list quick links: %w", err)
	}
	defer rows.Close()

	links := []*models.QuickLink{}
	for rows.Next() {
		link := &models.QuickLink{}
		if err := rows.Scan(&link.ID, &link.Name, &link.Route, &link.Icon, &link.IsExternal); err != nil {
			return nil, fmt.Errorf("failed to scan quick link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quick links: %w", err)
	}

	return links, nil
}

// Create stores a new link; the serial column assigns its ID
func (r *QuickLinkRepository) Create(ctx context.Context, link *models.QuickLink) error {
	query := `
		INSERT INTO quick_links (name, route, icon, is_external)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	if err := r.db.QueryRowContext(ctx, query, link.Name, link.Route, link.Icon, link.IsExternal).Scan(&link.ID); err != nil {
		return fmt.Errorf("failed to create quick link: %w", err)
	}

	r.logger.Debug("quick link created", zap.Int("id", link.ID))
	return nil
}

// Delete removes a link
func (r *QuickLinkRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM quick_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quick link: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repositories.ErrNotFound
	}

	r.logger.Debug("quick link deleted", zap.Int("id", id))
	return nil
}
