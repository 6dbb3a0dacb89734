package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store exposes the repositories bound to one unit of work.
type Store interface {
	Posts() PostRepository
	Comments() CommentRepository
	Users() UserRepository
	Likes() LikeRepository
}

type store struct {
	posts    PostRepository
	comments CommentRepository
	users    UserRepository
	likes    LikeRepository
}

// NewStore binds every repository to db.
func NewStore(db *gorm.DB, opts ...Option) Store {
	return &store{
		posts:    NewPostRepository(db, opts...),
		comments: NewCommentRepository(db, opts...),
		users:    NewUserRepository(db, opts...),
		likes:    NewLikeRepository(db),
	}
}

func (s *store) Posts() PostRepository       { return s.posts }
func (s *store) Comments() CommentRepository { return s.comments }
func (s *store) Users() UserRepository       { return s.users }
func (s *store) Likes() LikeRepository       { return s.likes }

// Transactor runs fn inside a single unit of work.
type Transactor interface {
	Do(ctx context.Context, fn func(Store) error) error
}

// UnitOfWork opens one database transaction per Do call.
type UnitOfWork struct {
	db   *gorm.DB
	opts []Option
}

// NewUnitOfWork creates a unit of work factory over db.
func NewUnitOfWork(db *gorm.DB, opts ...Option) *UnitOfWork {
	return &UnitOfWork{db: db, opts: opts}
}

// Do commits when fn returns nil and rolls back when fn returns an error,
// panics or ctx is cancelled before commit.
func (u *UnitOfWork) Do(ctx context.Context, fn func(Store) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx, u.opts...))
	})
}
