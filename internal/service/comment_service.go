package service

import (
	"context"
	"strings"

	"inkpost/internal/criteria"
	"inkpost/internal/mapper"
	"inkpost/internal/models"
	"inkpost/internal/observability"
	"inkpost/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const maxCommentLen = 10000

type CommentService struct {
	uow repository.Transactor
}

type CreateCommentInput struct {
	UserID uint
	PostID uint
	Text   string
}

type ListPostCommentsInput struct {
	PostID uint
	Limit  *int
	Offset *int
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Text      *string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(uow repository.Transactor) *CommentService {
	return &CommentService{uow: uow}
}

func validateCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", models.NewValidationError("Comment text is required")
	}
	if len(text) > maxCommentLen {
		return "", models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return text, nil
}

func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (dto *mapper.CommentDTO, err error) {
	span, ctx := observability.NewSpan(ctx, "CommentService.Create", attribute.Int("post.id", int(in.PostID)))
	defer func() { span.Finish(err) }()

	text, err := validateCommentText(in.Text)
	if err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(st repository.Store) error {
		post, err := st.Posts().GetByID(ctx, in.PostID)
		if err != nil {
			return err
		}
		if post == nil {
			return models.NewNotFoundError("Post", in.PostID)
		}

		comment := &models.Comment{UserID: in.UserID, PostID: in.PostID, Text: text}
		if err := st.Comments().Create(ctx, comment); err != nil {
			return err
		}
		dto, err = s.load(ctx, st, comment.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *CommentService) Get(ctx context.Context, id uint) (dto *mapper.CommentDTO, err error) {
	err = s.uow.Do(ctx, func(st repository.Store) error {
		dto, err = s.load(ctx, st, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *CommentService) List(ctx context.Context, c criteria.Criteria) (page *mapper.Page[mapper.CommentDTO], err error) {
	span, ctx := observability.NewSpan(ctx, "CommentService.List")
	defer func() { span.Finish(err) }()

	err = s.uow.Do(ctx, func(st repository.Store) error {
		comments, count, err := st.Comments().GetAll(ctx, c)
		if err != nil {
			return err
		}
		page = &mapper.Page[mapper.CommentDTO]{Items: mapper.ToCommentDTOs(comments), Count: count}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// ListByPost returns the comments of a post, newest first.
func (s *CommentService) ListByPost(ctx context.Context, in ListPostCommentsInput) (page *mapper.Page[mapper.CommentDTO], err error) {
	span, ctx := observability.NewSpan(ctx, "CommentService.ListByPost", attribute.Int("post.id", int(in.PostID)))
	defer func() { span.Finish(err) }()

	c := criteria.New().
		Where("post_id", criteria.OpEq, in.PostID).
		OrderBy("created_at", criteria.Desc)
	c.Pagination = criteria.Pagination{Limit: in.Limit, Offset: in.Offset}

	err = s.uow.Do(ctx, func(st repository.Store) error {
		post, err := st.Posts().GetByID(ctx, in.PostID)
		if err != nil {
			return err
		}
		if post == nil {
			return models.NewNotFoundError("Post", in.PostID)
		}

		comments, count, err := st.Comments().GetAll(ctx, c)
		if err != nil {
			return err
		}
		page = &mapper.Page[mapper.CommentDTO]{Items: mapper.ToCommentDTOs(comments), Count: count}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Update changes the comment text. Only the comment's author may edit it.
func (s *CommentService) Update(ctx context.Context, in UpdateCommentInput) (dto *mapper.CommentDTO, err error) {
	span, ctx := observability.NewSpan(ctx, "CommentService.Update", attribute.Int("comment.id", int(in.CommentID)))
	defer func() { span.Finish(err) }()

	fields := map[string]any{}
	if in.Text != nil {
		text, err := validateCommentText(*in.Text)
		if err != nil {
			return nil, err
		}
		fields["text"] = text
	}

	err = s.uow.Do(ctx, func(st repository.Store) error {
		current, err := s.load(ctx, st, in.CommentID)
		if err != nil {
			return err
		}
		if current.UserID != in.UserID {
			return models.NewForbiddenError("You can update only your comments")
		}
		if len(fields) == 0 {
			dto = current
			return nil
		}

		if err := st.Comments().Update(ctx, in.CommentID, fields); err != nil {
			return err
		}
		dto, err = s.load(ctx, st, in.CommentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Delete removes the comment and returns its last state. Only the
// comment's author may delete it.
func (s *CommentService) Delete(ctx context.Context, in DeleteCommentInput) (dto *mapper.CommentDTO, err error) {
	span, ctx := observability.NewSpan(ctx, "CommentService.Delete", attribute.Int("comment.id", int(in.CommentID)))
	defer func() { span.Finish(err) }()

	err = s.uow.Do(ctx, func(st repository.Store) error {
		current, err := s.load(ctx, st, in.CommentID)
		if err != nil {
			return err
		}
		if current.UserID != in.UserID {
			return models.NewForbiddenError("You can delete only your comments")
		}
		dto = current
		return st.Comments().Delete(ctx, in.CommentID)
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *CommentService) load(ctx context.Context, st repository.Store, id uint) (*mapper.CommentDTO, error) {
	comment, err := st.Comments().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, models.NewNotFoundError("Comment", id)
	}
	dto := mapper.ToCommentDTO(comment)
	return &dto, nil
}
