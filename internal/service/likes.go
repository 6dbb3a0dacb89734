// Package service orchestrates repositories, like aggregation, and DTO
// mapping inside one unit of work per operation.
package service

import (
	"context"
	"errors"

	"inkpost/internal/models"
	"inkpost/internal/observability"
	"inkpost/internal/repository"
)

const (
	actionLike    = "like"
	actionDislike = "dislike"
)

// LikeAggregator computes like counts and liked flags and toggles likes.
// It holds no state; every call runs against the given store.
type LikeAggregator struct{}

func NewLikeAggregator() *LikeAggregator {
	return &LikeAggregator{}
}

func (a *LikeAggregator) LikesCount(ctx context.Context, s repository.Store, postID uint) (int64, error) {
	return s.Likes().Count(ctx, postID)
}

// IsLiked reports whether viewer liked the post. An anonymous viewer has
// liked nothing and costs no query.
func (a *LikeAggregator) IsLiked(ctx context.Context, s repository.Store, postID uint, viewer *uint) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	return s.Likes().Exists(ctx, postID, *viewer)
}

// BatchIsLiked resolves the liked flag of every post with at most one query.
func (a *LikeAggregator) BatchIsLiked(ctx context.Context, s repository.Store, postIDs []uint, viewer *uint) (map[uint]bool, error) {
	if viewer == nil {
		liked := make(map[uint]bool, len(postIDs))
		for _, id := range postIDs {
			liked[id] = false
		}
		return liked, nil
	}
	return s.Likes().BatchIsLiked(ctx, postIDs, *viewer)
}

// Like records that userID likes postID. A second like for the pair is
// ErrAlreadyLiked whether the pre-check or the storage constraint catches it.
func (a *LikeAggregator) Like(ctx context.Context, s repository.Store, postID, userID uint) error {
	exists, err := s.Likes().Exists(ctx, postID, userID)
	if err != nil {
		observability.RecordLikeToggle(actionLike, "error")
		return err
	}
	if exists {
		observability.RecordLikeToggle(actionLike, "already_liked")
		return models.NewAlreadyLikedError(postID)
	}

	if err := s.Likes().Insert(ctx, postID, userID); err != nil {
		if errors.Is(err, models.ErrAlreadyLiked) {
			observability.RecordLikeToggle(actionLike, "race")
			return err
		}
		observability.RecordLikeToggle(actionLike, "error")
		return err
	}

	observability.RecordLikeToggle(actionLike, "ok")
	return nil
}

// Dislike removes the like of userID on postID, or returns ErrNotLiked.
func (a *LikeAggregator) Dislike(ctx context.Context, s repository.Store, postID, userID uint) error {
	exists, err := s.Likes().Exists(ctx, postID, userID)
	if err != nil {
		observability.RecordLikeToggle(actionDislike, "error")
		return err
	}
	if !exists {
		observability.RecordLikeToggle(actionDislike, "not_liked")
		return models.NewNotLikedError(postID)
	}

	// A concurrent dislike may already have removed the row; the pair
	// ends up not liked either way.
	if err := s.Likes().Remove(ctx, postID, userID); err != nil {
		observability.RecordLikeToggle(actionDislike, "error")
		return err
	}

	observability.RecordLikeToggle(actionDislike, "ok")
	return nil
}
