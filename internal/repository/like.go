package repository

import (
	"context"
	"errors"
	"fmt"

	"inkpost/internal/models"
	"inkpost/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	Exists(ctx context.Context, postID, userID uint) (bool, error)
	Insert(ctx context.Context, postID, userID uint) error
	Remove(ctx context.Context, postID, userID uint) error
	Count(ctx context.Context, postID uint) (int64, error)
	Counts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	BatchIsLiked(ctx context.Context, postIDs []uint, userID uint) (map[uint]bool, error)
}

type likeRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db, log: observability.NewRepoLogger("likes")}
}

func (r *likeRepository) Exists(ctx context.Context, postID, userID uint) (bool, error) {
	defer observability.TrackQuery("exists", "likes")()

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error; err != nil {
		r.log.LogError(ctx, err, "exists")
		return false, fmt.Errorf("check like: %w", err)
	}
	return count > 0, nil
}

// Insert records the like. The insert runs in a nested transaction, a
// savepoint when the caller already holds one, so a rejected duplicate
// leaves the caller's transaction usable.
func (r *likeRepository) Insert(ctx context.Context, postID, userID uint) error {
	defer observability.TrackQuery("insert", "likes")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&models.Like{UserID: userID, PostID: postID}).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewAlreadyLikedError(postID)
		}
		r.log.LogError(ctx, err, "insert")
		return fmt.Errorf("insert like: %w", err)
	}

	r.log.LogCreate(ctx, map[string]any{"post_id": postID, "user_id": userID})
	return nil
}

// Remove deletes the like. A like that is already gone is not an error.
func (r *likeRepository) Remove(ctx context.Context, postID, userID uint) error {
	defer observability.TrackQuery("remove", "likes")()

	if err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Like{}).Error; err != nil {
		r.log.LogError(ctx, err, "remove")
		return fmt.Errorf("remove like: %w", err)
	}

	r.log.LogDelete(ctx, map[string]any{"post_id": postID, "user_id": userID})
	return nil
}

func (r *likeRepository) Count(ctx context.Context, postID uint) (int64, error) {
	defer observability.TrackQuery("count", "likes")()

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		r.log.LogError(ctx, err, "count")
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

// Counts returns the like count of every post in postIDs with a single
// grouped query. Posts without likes map to zero.
func (r *likeRepository) Counts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	for _, id := range postIDs {
		counts[id] = 0
	}

	defer observability.TrackQuery("counts", "likes")()

	var rows []struct {
		PostID     uint
		LikesCount int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Select("post_id, COUNT(*) AS likes_count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		r.log.LogError(ctx, err, "counts")
		return nil, fmt.Errorf("count likes: %w", err)
	}

	for _, row := range rows {
		counts[row.PostID] = row.LikesCount
	}
	return counts, nil
}

// BatchIsLiked reports, for every post in postIDs, whether userID liked
// it. One query regardless of batch size; none for an empty batch.
func (r *likeRepository) BatchIsLiked(ctx context.Context, postIDs []uint, userID uint) (map[uint]bool, error) {
	liked := make(map[uint]bool, len(postIDs))
	if len(postIDs) == 0 {
		return liked, nil
	}
	for _, id := range postIDs {
		liked[id] = false
	}

	defer observability.TrackQuery("batch_is_liked", "likes")()

	var likedIDs []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &likedIDs).Error; err != nil {
		r.log.LogError(ctx, err, "batch_is_liked")
		return nil, fmt.Errorf("load liked posts: %w", err)
	}

	for _, id := range likedIDs {
		liked[id] = true
	}
	return liked, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
