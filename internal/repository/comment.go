package repository

import (
	"context"

	"inkpost/internal/criteria"
	"inkpost/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	GetAll(ctx context.Context, c criteria.Criteria) ([]*models.Comment, int64, error)
	Create(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	*Repository[models.Comment]
}

// NewCommentRepository creates a comment repository whose reads carry the
// comment's author and its post with the post's author.
func NewCommentRepository(db *gorm.DB, opts ...Option) CommentRepository {
	opts = append([]Option{WithPreloads("Author", "Post", "Post.Author")}, opts...)
	return &commentRepository{Repository: New[models.Comment](db, opts...)}
}
