package repository

import (
	"context"
	"fmt"
	"slices"

	"inkpost/internal/criteria"
	"inkpost/internal/models"
	"inkpost/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetAll(ctx context.Context, c criteria.Criteria) ([]*models.Post, int64, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	AllTags(ctx context.Context) ([]string, error)
}

// postRepository implements PostRepository
type postRepository struct {
	*Repository[models.Post]
}

// NewPostRepository creates a new post repository. Reads carry the author.
func NewPostRepository(db *gorm.DB, opts ...Option) PostRepository {
	opts = append([]Option{WithPreloads("Author")}, opts...)
	return &postRepository{Repository: New[models.Post](db, opts...)}
}

// AllTags returns every tag used by any post, sorted and without duplicates.
func (r *postRepository) AllTags(ctx context.Context) ([]string, error) {
	defer observability.TrackQuery("all_tags", r.schema.Table())()

	var rows []models.Tags
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Pluck("tags", &rows).Error; err != nil {
		r.log.LogError(ctx, err, "all_tags")
		return nil, fmt.Errorf("list tags: %w", err)
	}

	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, row := range rows {
		for _, tag := range row {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	slices.Sort(tags)
	return tags, nil
}
