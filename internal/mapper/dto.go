// Package mapper projects entities into the DTOs handed to callers.
// Every function is pure: derived values are resolved beforehand and
// passed in.
package mapper

import (
	"time"
)

// AuthorDTO is the public snapshot of a user embedded in posts and comments.
type AuthorDTO struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserDTO is a user as returned by the user service.
type UserDTO struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

type PostDTO struct {
	ID         uint      `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Text       string    `json:"text"`
	Title      string    `json:"title"`
	Tags       []string  `json:"tags"`
	UserID     uint      `json:"user_id"`
	LikesCount int64     `json:"likes_count"`
	IsLiked    bool      `json:"is_liked"`
	Author     AuthorDTO `json:"author"`
}

// CommentPostDTO is the post snapshot embedded in a comment.
type CommentPostDTO struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    AuthorDTO `json:"author"`
}

type CommentDTO struct {
	ID        uint           `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Text      string         `json:"text"`
	UserID    uint           `json:"user_id"`
	PostID    uint           `json:"post_id"`
	Author    AuthorDTO      `json:"author"`
	Post      CommentPostDTO `json:"post"`
}

// Page is one page of a listing. Count ignores pagination.
type Page[T any] struct {
	Items []T   `json:"items"`
	Count int64 `json:"count"`
}

// PostDerived carries the values computed at read time for one post.
type PostDerived struct {
	LikesCount int64
	IsLiked    bool
}
