package service

import (
	"context"
	"strings"

	"inkpost/internal/cache"
	"inkpost/internal/criteria"
	"inkpost/internal/mapper"
	"inkpost/internal/models"
	"inkpost/internal/observability"
	"inkpost/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxTitleLen = 300
	maxTextLen  = 50000
	maxTags     = 32
)

type PostService struct {
	uow   repository.Transactor
	likes *LikeAggregator
	tags  *cache.TagCache
}

type CreatePostInput struct {
	UserID uint
	Title  string
	Text   string
	Tags   []string
}

type ListPostsInput struct {
	Viewer   *uint
	Criteria criteria.Criteria
}

// UpdatePostInput is a partial update; nil fields are left unchanged.
type UpdatePostInput struct {
	UserID uint
	PostID uint
	Title  *string
	Text   *string
	Tags   *[]string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

// NewPostService creates a post service. tags may be nil to disable caching.
func NewPostService(uow repository.Transactor, tags *cache.TagCache) *PostService {
	return &PostService{
		uow:   uow,
		likes: NewLikeAggregator(),
		tags:  tags,
	}
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (dto *mapper.PostDTO, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.Create", attribute.Int("user.id", int(in.UserID)))
	defer func() { span.Finish(err) }()

	title, text, err := validatePostText(in.Title, in.Text)
	if err != nil {
		return nil, err
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(st repository.Store) error {
		author, err := st.Users().GetByID(ctx, in.UserID)
		if err != nil {
			return err
		}
		if author == nil {
			return models.NewNotFoundError("User", in.UserID)
		}

		post := &models.Post{UserID: in.UserID, Title: title, Text: text, Tags: tags}
		if err := st.Posts().Create(ctx, post); err != nil {
			return err
		}
		post.Author = author

		out := mapper.ToPostDTO(post, mapper.PostDerived{})
		dto = &out
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.tags.Invalidate(ctx)
	observability.LogServiceCall(ctx, "PostService", "Create", map[string]any{"post_id": dto.ID})
	return dto, nil
}

// Get returns the post with its like count and the viewer's liked flag.
func (s *PostService) Get(ctx context.Context, id uint, viewer *uint) (dto *mapper.PostDTO, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.Get", attribute.Int("post.id", int(id)))
	defer func() { span.Finish(err) }()

	err = s.uow.Do(ctx, func(st repository.Store) error {
		post, err := s.mustGetPost(ctx, st, id)
		if err != nil {
			return err
		}
		dto, err = s.project(ctx, st, post, viewer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// List returns one page of posts. Like counts and liked flags for the
// whole page are loaded with one query each.
func (s *PostService) List(ctx context.Context, in ListPostsInput) (page *mapper.Page[mapper.PostDTO], err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.List")
	defer func() { span.Finish(err) }()

	err = s.uow.Do(ctx, func(st repository.Store) error {
		posts, count, err := st.Posts().GetAll(ctx, in.Criteria)
		if err != nil {
			return err
		}

		ids := make([]uint, len(posts))
		for i, p := range posts {
			ids[i] = p.ID
		}
		counts, err := st.Likes().Counts(ctx, ids)
		if err != nil {
			return err
		}
		liked, err := s.likes.BatchIsLiked(ctx, st, ids, in.Viewer)
		if err != nil {
			return err
		}

		page = &mapper.Page[mapper.PostDTO]{
			Items: mapper.ToPostDTOs(posts, counts, liked),
			Count: count,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.AddAttributes(attribute.Int64("posts.count", page.Count))
	return page, nil
}

// Update applies the set fields of in. Only the author may edit a post.
func (s *PostService) Update(ctx context.Context, in UpdatePostInput) (dto *mapper.PostDTO, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.Update", attribute.Int("post.id", int(in.PostID)))
	defer func() { span.Finish(err) }()

	fields := map[string]any{}
	if in.Title != nil {
		title, _, err := validatePostText(*in.Title, "-")
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if in.Text != nil {
		_, text, err := validatePostText("-", *in.Text)
		if err != nil {
			return nil, err
		}
		fields["text"] = text
	}
	if in.Tags != nil {
		tags, err := normalizeTags(*in.Tags)
		if err != nil {
			return nil, err
		}
		fields["tags"] = tags
	}

	err = s.uow.Do(ctx, func(st repository.Store) error {
		post, err := s.mustGetPost(ctx, st, in.PostID)
		if err != nil {
			return err
		}
		if post.UserID != in.UserID {
			return models.NewForbiddenError("You can edit only your posts")
		}

		if len(fields) > 0 {
			if err := st.Posts().Update(ctx, in.PostID, fields); err != nil {
				return err
			}
			if post, err = s.mustGetPost(ctx, st, in.PostID); err != nil {
				return err
			}
		}

		dto, err = s.project(ctx, st, post, &in.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if _, ok := fields["tags"]; ok {
		s.tags.Invalidate(ctx)
	}
	return dto, nil
}

// Delete removes the post, returning its last state. Only the author may
// delete a post; its comments and likes go with it.
func (s *PostService) Delete(ctx context.Context, in DeletePostInput) (dto *mapper.PostDTO, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.Delete", attribute.Int("post.id", int(in.PostID)))
	defer func() { span.Finish(err) }()

	err = s.uow.Do(ctx, func(st repository.Store) error {
		post, err := s.mustGetPost(ctx, st, in.PostID)
		if err != nil {
			return err
		}
		if post.UserID != in.UserID {
			return models.NewForbiddenError("You can delete only your posts")
		}

		if dto, err = s.project(ctx, st, post, &in.UserID); err != nil {
			return err
		}
		return st.Posts().Delete(ctx, in.PostID)
	})
	if err != nil {
		return nil, err
	}

	s.tags.Invalidate(ctx)
	observability.LogServiceCall(ctx, "PostService", "Delete", map[string]any{"post_id": in.PostID})
	return dto, nil
}

// Like records that userID likes the post and returns the refreshed post.
func (s *PostService) Like(ctx context.Context, postID, userID uint) (*mapper.PostDTO, error) {
	return s.toggle(ctx, "PostService.Like", postID, userID, s.likes.Like)
}

// Dislike removes the like of userID and returns the refreshed post.
func (s *PostService) Dislike(ctx context.Context, postID, userID uint) (*mapper.PostDTO, error) {
	return s.toggle(ctx, "PostService.Dislike", postID, userID, s.likes.Dislike)
}

type toggleFunc func(ctx context.Context, st repository.Store, postID, userID uint) error

func (s *PostService) toggle(ctx context.Context, name string, postID, userID uint, fn toggleFunc) (dto *mapper.PostDTO, err error) {
	span, ctx := observability.NewSpan(ctx, name,
		attribute.Int("post.id", int(postID)),
		attribute.Int("user.id", int(userID)),
	)
	defer func() { span.Finish(err) }()

	err = s.uow.Do(ctx, func(st repository.Store) error {
		post, err := s.mustGetPost(ctx, st, postID)
		if err != nil {
			return err
		}
		if err := fn(ctx, st, postID, userID); err != nil {
			return err
		}
		dto, err = s.project(ctx, st, post, &userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Tags returns every tag in use, served from the cache when possible.
func (s *PostService) Tags(ctx context.Context) (tags []string, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.Tags")
	defer func() { span.Finish(err) }()

	return s.tags.Get(ctx, func(ctx context.Context) ([]string, error) {
		var tags []string
		err := s.uow.Do(ctx, func(st repository.Store) error {
			var err error
			tags, err = st.Posts().AllTags(ctx)
			return err
		})
		return tags, err
	})
}

// InvalidateTags drops the cached tag union after writes made outside the service.
func (s *PostService) InvalidateTags(ctx context.Context) {
	s.tags.Invalidate(ctx)
}

func (s *PostService) mustGetPost(ctx context.Context, st repository.Store, id uint) (*models.Post, error) {
	post, err := st.Posts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

func (s *PostService) project(ctx context.Context, st repository.Store, post *models.Post, viewer *uint) (*mapper.PostDTO, error) {
	count, err := s.likes.LikesCount(ctx, st, post.ID)
	if err != nil {
		return nil, err
	}
	liked, err := s.likes.IsLiked(ctx, st, post.ID, viewer)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToPostDTO(post, mapper.PostDerived{LikesCount: count, IsLiked: liked})
	return &dto, nil
}

func validatePostText(title, text string) (string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return "", "", models.NewValidationError("Title too long (max 300 characters)")
	}
	if strings.TrimSpace(text) == "" {
		return "", "", models.NewValidationError("Text is required")
	}
	if len(text) > maxTextLen {
		return "", "", models.NewValidationError("Text too long (max 50000 characters)")
	}
	return title, text, nil
}

// normalizeTags trims tags and drops blanks and repeats, keeping first-seen order.
func normalizeTags(in []string) (models.Tags, error) {
	tags := make(models.Tags, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	if len(tags) > maxTags {
		return nil, models.NewValidationError("Too many tags (max 32)")
	}
	return tags, nil
}
