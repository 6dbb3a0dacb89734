package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkpost/internal/criteria"
	"inkpost/internal/models"
	"inkpost/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService(t *testing.T) {
	posts, db := setupPostService(t, nil)
	svc := NewCommentService(repository.NewUnitOfWork(db))
	ctx := context.Background()

	post, err := posts.Create(ctx, CreatePostInput{UserID: 1, Title: "topic", Text: "x"})
	require.NoError(t, err)

	t.Run("create on missing post", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateCommentInput{UserID: 2, PostID: 999, Text: "hi"})
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})

	t.Run("create requires text", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateCommentInput{UserID: 2, PostID: post.ID, Text: " "})
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})

	var created []uint
	for i, text := range []string{"first", "second", "third"} {
		c, err := svc.Create(ctx, CreateCommentInput{UserID: 2, PostID: post.ID, Text: text})
		require.NoError(t, err)
		require.NoError(t, db.Model(&models.Comment{}).Where("id = ?", c.ID).
			Update("created_at", time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)).Error)
		created = append(created, c.ID)
	}

	t.Run("embeds author and post snapshot", func(t *testing.T) {
		got, err := svc.Get(ctx, created[0])
		require.NoError(t, err)
		assert.Equal(t, "first", got.Text)
		assert.Equal(t, "bob", got.Author.Name)
		assert.Equal(t, post.ID, got.Post.ID)
		assert.Equal(t, "ann", got.Post.Author.Name)
	})

	t.Run("list by post newest first", func(t *testing.T) {
		page, err := svc.ListByPost(ctx, ListPostCommentsInput{PostID: post.ID, Limit: ptr(2), Offset: ptr(0)})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Count)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "third", page.Items[0].Text)
		assert.Equal(t, "second", page.Items[1].Text)

		_, err = svc.ListByPost(ctx, ListPostCommentsInput{PostID: 999})
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})

	t.Run("list with search", func(t *testing.T) {
		page, err := svc.List(ctx, criteria.New().Matching("text", "SEC"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Count)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "second", page.Items[0].Text)
	})

	t.Run("only the author edits", func(t *testing.T) {
		_, err := svc.Update(ctx, UpdateCommentInput{UserID: 1, CommentID: created[0], Text: ptr("nope")})
		assert.True(t, errors.Is(err, models.ErrForbidden))

		same, err := svc.Update(ctx, UpdateCommentInput{UserID: 2, CommentID: created[0]})
		require.NoError(t, err)
		assert.Equal(t, "first", same.Text)

		updated, err := svc.Update(ctx, UpdateCommentInput{UserID: 2, CommentID: created[0], Text: ptr("edited")})
		require.NoError(t, err)
		assert.Equal(t, "edited", updated.Text)
	})

	t.Run("only the author deletes", func(t *testing.T) {
		_, err := svc.Delete(ctx, DeleteCommentInput{UserID: 1, CommentID: created[1]})
		assert.True(t, errors.Is(err, models.ErrForbidden))

		deleted, err := svc.Delete(ctx, DeleteCommentInput{UserID: 2, CommentID: created[1]})
		require.NoError(t, err)
		assert.Equal(t, "second", deleted.Text)

		_, err = svc.Get(ctx, created[1])
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})
}
