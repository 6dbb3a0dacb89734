package service

import (
	"context"
	"errors"
	"testing"

	"inkpost/internal/models"
	"inkpost/internal/observability"
	"inkpost/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	existsFn       func(context.Context, uint, uint) (bool, error)
	insertFn       func(context.Context, uint, uint) error
	removeFn       func(context.Context, uint, uint) error
	countFn        func(context.Context, uint) (int64, error)
	countsFn       func(context.Context, []uint) (map[uint]int64, error)
	batchIsLikedFn func(context.Context, []uint, uint) (map[uint]bool, error)
}

func (s *likeRepoStub) Exists(ctx context.Context, postID, userID uint) (bool, error) {
	return s.existsFn(ctx, postID, userID)
}
func (s *likeRepoStub) Insert(ctx context.Context, postID, userID uint) error {
	return s.insertFn(ctx, postID, userID)
}
func (s *likeRepoStub) Remove(ctx context.Context, postID, userID uint) error {
	return s.removeFn(ctx, postID, userID)
}
func (s *likeRepoStub) Count(ctx context.Context, postID uint) (int64, error) {
	return s.countFn(ctx, postID)
}
func (s *likeRepoStub) Counts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	return s.countsFn(ctx, postIDs)
}
func (s *likeRepoStub) BatchIsLiked(ctx context.Context, postIDs []uint, userID uint) (map[uint]bool, error) {
	return s.batchIsLikedFn(ctx, postIDs, userID)
}

// storeStub exposes only the like repository.
type storeStub struct {
	repository.Store
	likes *likeRepoStub
}

func (s *storeStub) Likes() repository.LikeRepository { return s.likes }

func TestLikeAggregator_Like(t *testing.T) {
	ctx := context.Background()
	agg := NewLikeAggregator()

	tests := []struct {
		name     string
		stub     *likeRepoStub
		outcome  string
		expected error
	}{
		{
			name: "inserts when not yet liked",
			stub: &likeRepoStub{
				existsFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
				insertFn: func(context.Context, uint, uint) error { return nil },
			},
			outcome: "ok",
		},
		{
			name: "pre-check rejects",
			stub: &likeRepoStub{
				existsFn: func(context.Context, uint, uint) (bool, error) { return true, nil },
				insertFn: func(context.Context, uint, uint) error {
					t.Fatal("insert must not run after a positive pre-check")
					return nil
				},
			},
			outcome:  "already_liked",
			expected: models.ErrAlreadyLiked,
		},
		{
			name: "constraint rejection after a passing pre-check",
			stub: &likeRepoStub{
				existsFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
				insertFn: func(_ context.Context, postID, _ uint) error { return models.NewAlreadyLikedError(postID) },
			},
			outcome:  "race",
			expected: models.ErrAlreadyLiked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(observability.LikeToggles.WithLabelValues("like", tt.outcome))

			err := agg.Like(ctx, &storeStub{likes: tt.stub}, 1, 2)

			if tt.expected != nil {
				assert.True(t, errors.Is(err, tt.expected), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, before+1, testutil.ToFloat64(observability.LikeToggles.WithLabelValues("like", tt.outcome)))
		})
	}
}

func TestLikeAggregator_LikeStorageFailurePropagates(t *testing.T) {
	boom := errors.New("connection reset")
	stub := &likeRepoStub{
		existsFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
		insertFn: func(context.Context, uint, uint) error { return boom },
	}

	err := NewLikeAggregator().Like(context.Background(), &storeStub{likes: stub}, 1, 2)
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, models.ErrAlreadyLiked))
}

func TestLikeAggregator_Dislike(t *testing.T) {
	ctx := context.Background()
	agg := NewLikeAggregator()

	t.Run("not liked", func(t *testing.T) {
		stub := &likeRepoStub{
			existsFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
		}
		err := agg.Dislike(ctx, &storeStub{likes: stub}, 1, 2)
		assert.True(t, errors.Is(err, models.ErrNotLiked))
	})

	t.Run("removes", func(t *testing.T) {
		removed := false
		stub := &likeRepoStub{
			existsFn: func(context.Context, uint, uint) (bool, error) { return true, nil },
			removeFn: func(_ context.Context, postID, userID uint) error {
				removed = postID == 1 && userID == 2
				return nil
			},
		}
		require.NoError(t, agg.Dislike(ctx, &storeStub{likes: stub}, 1, 2))
		assert.True(t, removed)
	})
}

func TestLikeAggregator_AnonymousViewerIssuesNoQuery(t *testing.T) {
	ctx := context.Background()
	stub := &likeRepoStub{
		existsFn: func(context.Context, uint, uint) (bool, error) {
			t.Fatal("unexpected query")
			return false, nil
		},
		batchIsLikedFn: func(context.Context, []uint, uint) (map[uint]bool, error) {
			t.Fatal("unexpected query")
			return nil, nil
		},
	}
	agg := NewLikeAggregator()
	st := &storeStub{likes: stub}

	liked, err := agg.IsLiked(ctx, st, 1, nil)
	require.NoError(t, err)
	assert.False(t, liked)

	batch, err := agg.BatchIsLiked(ctx, st, []uint{1, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{1: false, 2: false}, batch)
}

func TestLikeAggregator_BatchIsLikedDelegatesOnce(t *testing.T) {
	calls := 0
	stub := &likeRepoStub{
		batchIsLikedFn: func(_ context.Context, ids []uint, userID uint) (map[uint]bool, error) {
			calls++
			assert.Equal(t, uint(5), userID)
			return map[uint]bool{1: true, 2: false, 3: false}, nil
		},
	}
	viewer := uint(5)

	liked, err := NewLikeAggregator().BatchIsLiked(context.Background(), &storeStub{likes: stub}, []uint{1, 2, 3}, &viewer)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, liked[1])
}
