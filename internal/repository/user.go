package repository

import (
	"context"
	"errors"
	"fmt"

	"inkpost/internal/criteria"
	"inkpost/internal/models"
	"inkpost/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetAll(ctx context.Context, c criteria.Criteria) ([]*models.User, int64, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	*Repository[models.User]
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB, opts ...Option) UserRepository {
	return &userRepository{Repository: New[models.User](db, opts...)}
}

// GetByEmail returns the live user with email, or nil.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer observability.TrackQuery("get_by_email", r.schema.Table())()

	var user models.User
	err := r.db.WithContext(ctx).
		Scopes(r.notDeleted).
		Where("email = ?", email).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.LogError(ctx, err, "get_by_email")
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}
