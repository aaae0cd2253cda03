package file

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/upb/unified-workspace/backend/models"
	"github.com/upb/unified-workspace/backend/repositories"
	"go.uber.org/zap"
)

type quickLinkDocument struct {
	NextID     int                 `json:"nextId"`
	QuickLinks []*models.QuickLink `json:"quickLinks"`
}

// QuickLinkRepository implements repositories.QuickLinkRepository on
// quickLinks.json. IDs come from a persisted counter and are never reused.
type QuickLinkRepository struct {
	mu     sync.Mutex
	path   string
	doc    quickLinkDocument
	logger *zap.Logger
}

// NewQuickLinkRepository loads quickLinks.json from dir
func NewQuickLinkRepository(dir string, logger *zap.Logger) *QuickLinkRepository {
	r := &QuickLinkRepository{
		path:   filepath.Join(dir, quickLinksFile),
		doc:    quickLinkDocument{NextID: 1},
		logger: logger,
	}
	load(r.path, &r.doc, logger)
	if r.doc.NextID < 1 {
		r.doc.NextID = 1
	}
	return r
}

// List returns copies of all links
func (r *QuickLinkRepository) List(ctx context.Context) ([]*models.QuickLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	links := make([]*models.QuickLink, 0, len(r.doc.QuickLinks))
	for _, l := range r.doc.QuickLinks {
		c := *l
		links = append(links, &c)
	}
	return links, nil
}

// Create assigns the next ID to link and persists it
func (r *QuickLinkRepository) Create(ctx context.Context, link *models.QuickLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *link
	stored.ID = r.doc.NextID
	r.doc.QuickLinks = append(r.doc.QuickLinks, &stored)
	r.doc.NextID++
	if err := save(r.path, r.doc); err != nil {
		r.doc.QuickLinks = r.doc.QuickLinks[:len(r.doc.QuickLinks)-1]
		r.doc.NextID--
		return err
	}

	link.ID = stored.ID
	r.logger.Debug("quick link created", zap.Int("id", link.ID))
	return nil
}

// Delete removes the link with id
func (r *QuickLinkRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, l := range r.doc.QuickLinks {
		if l.ID != id {
			continue
		}
		previous := r.doc.QuickLinks
		remaining := make([]*models.QuickLink, 0, len(previous)-1)
		remaining = append(remaining, previous[:i]...)
		remaining = append(remaining, previous[i+1:]...)
		r.doc.QuickLinks = remaining
		if err := save(r.path, r.doc); err != nil {
			r.doc.QuickLinks = previous
			return err
		}
		r.logger.Debug("quick link deleted", zap.Int("id", id))
		return nil
	}
	return repositories.ErrNotFound
}
