package mapper

import (
	"inkpost/internal/models"
)

// ToAuthorDTO snapshots u. A missing user maps to the zero snapshot.
func ToAuthorDTO(u *models.User) AuthorDTO {
	if u == nil {
		return AuthorDTO{}
	}
	return AuthorDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		DeletedAt: u.DeletedAt,
	}
}

func ToUserDTOs(users []*models.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserDTO(u))
	}
	return out
}

func ToPostDTO(p *models.Post, d PostDerived) PostDTO {
	tags := make([]string, len(p.Tags))
	copy(tags, p.Tags)
	return PostDTO{
		ID:         p.ID,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		Text:       p.Text,
		Title:      p.Title,
		Tags:       tags,
		UserID:     p.UserID,
		LikesCount: d.LikesCount,
		IsLiked:    d.IsLiked,
		Author:     ToAuthorDTO(p.Author),
	}
}

// ToPostDTOs maps posts with counts and liked flags keyed by post id.
// Ids missing from either map take the zero value.
func ToPostDTOs(posts []*models.Post, counts map[uint]int64, liked map[uint]bool) []PostDTO {
	out := make([]PostDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, ToPostDTO(p, PostDerived{
			LikesCount: counts[p.ID],
			IsLiked:    liked[p.ID],
		}))
	}
	return out
}

func toCommentPostDTO(p *models.Post) CommentPostDTO {
	if p == nil {
		return CommentPostDTO{}
	}
	return CommentPostDTO{
		ID:        p.ID,
		UserID:    p.UserID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Author:    ToAuthorDTO(p.Author),
	}
}

func ToCommentDTO(c *models.Comment) CommentDTO {
	return CommentDTO{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Text:      c.Text,
		UserID:    c.UserID,
		PostID:    c.PostID,
		Author:    ToAuthorDTO(c.Author),
		Post:      toCommentPostDTO(c.Post),
	}
}

func ToCommentDTOs(comments []*models.Comment) []CommentDTO {
	out := make([]CommentDTO, 0, len(comments))
	for _, c := range comments {
		out = append(out, ToCommentDTO(c))
	}
	return out
}
