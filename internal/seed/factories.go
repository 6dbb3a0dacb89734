// Package seed creates demo data for development databases and tests.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"inkpost/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the plain password every seeded user can sign in with.
const DefaultPassword = "password123"

// Options tune how entities are generated.
type Options struct {
	// MaxDays spreads created_at over the last MaxDays days.
	MaxDays int
	// SkipBcrypt stores a cheap placeholder hash instead of running bcrypt.
	SkipBcrypt bool
	// Seed fixes the random source; zero picks one from the clock.
	Seed int64
}

// Factory builds entities and persists them in batches.
type Factory struct {
	db    *gorm.DB
	opts  Options
	rng   *rand.Rand
	faker *gofakeit.Faker
	now   time.Time
	hash  string
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Factory{
		db:    db,
		opts:  opts,
		rng:   rand.New(rand.NewSource(seed)),
		faker: gofakeit.New(seed),
		now:   time.Now().UTC(),
	}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	if f.opts.SkipBcrypt {
		f.hash = "plain:" + DefaultPassword
		return f.hash, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	f.hash = string(hashed)
	return f.hash, nil
}

func (f *Factory) createdAt() time.Time {
	back := time.Duration(f.rng.Intn(f.opts.MaxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return f.now.Add(-back)
}

// BuildUser constructs a user without saving it. The index keeps emails
// distinct within one run.
func (f *Factory) BuildUser(index int, overrides ...func(*models.User)) *models.User {
	user := &models.User{
		Name:      f.faker.FirstName() + " " + f.faker.LastName(),
		Email:     fmt.Sprintf("%s.%d@%s", f.faker.Username(), index, f.faker.DomainName()),
		CreatedAt: f.createdAt(),
	}
	if len(user.Name) > 64 {
		user.Name = user.Name[:64]
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// BuildPost constructs a post by author with up to maxTags tags drawn from pool.
func (f *Factory) BuildPost(author *models.User, pool []string, maxTags int, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Title:     f.faker.Sentence(5),
		Text:      f.faker.Paragraph(1, 3, 8, "\n"),
		UserID:    author.ID,
		Tags:      f.pickTags(pool, maxTags),
		CreatedAt: f.createdAt(),
	}
	if post.CreatedAt.Before(author.CreatedAt) {
		post.CreatedAt = author.CreatedAt
	}
	post.UpdatedAt = post.CreatedAt
	for _, override := range overrides {
		override(post)
	}
	return post
}

func (f *Factory) pickTags(pool []string, maxTags int) models.Tags {
	tags := models.Tags{}
	if len(pool) == 0 || maxTags <= 0 {
		return tags
	}
	n := f.rng.Intn(min(maxTags, len(pool)) + 1)
	for _, i := range f.rng.Perm(len(pool))[:n] {
		tags = append(tags, pool[i])
	}
	return tags
}

// CreateUsers persists n generated users.
func (f *Factory) CreateUsers(ctx context.Context, n int) ([]*models.User, error) {
	if n <= 0 {
		return nil, nil
	}
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	users := make([]*models.User, 0, n)
	for i := range n {
		users = append(users, f.BuildUser(i, func(u *models.User) { u.HashedPassword = hash }))
	}
	if err := f.db.WithContext(ctx).CreateInBatches(users, 100).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	return users, nil
}

// CreatePosts persists perUser posts for every author.
func (f *Factory) CreatePosts(ctx context.Context, authors []*models.User, perUser int, pool []string, maxTags int) ([]*models.Post, error) {
	if perUser <= 0 || len(authors) == 0 {
		return nil, nil
	}
	posts := make([]*models.Post, 0, len(authors)*perUser)
	for _, author := range authors {
		for range perUser {
			posts = append(posts, f.BuildPost(author, pool, maxTags))
		}
	}
	if err := f.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(posts, 100).Error; err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	return posts, nil
}

// CreateComments adds perPost comments to every post from random users.
func (f *Factory) CreateComments(ctx context.Context, posts []*models.Post, users []*models.User, perPost int) (int, error) {
	if perPost <= 0 || len(posts) == 0 || len(users) == 0 {
		return 0, nil
	}
	comments := make([]*models.Comment, 0, len(posts)*perPost)
	for _, post := range posts {
		for range perPost {
			at := post.CreatedAt.Add(time.Duration(f.rng.Intn(72)) * time.Hour)
			if at.After(f.now) {
				at = f.now
			}
			comments = append(comments, &models.Comment{
				Text:      f.faker.Sentence(12),
				UserID:    users[f.rng.Intn(len(users))].ID,
				PostID:    post.ID,
				CreatedAt: at,
				UpdatedAt: at,
			})
		}
	}
	if err := f.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(comments, 200).Error; err != nil {
		return 0, fmt.Errorf("create comments: %w", err)
	}
	return len(comments), nil
}

// CreateLikes gives every post up to perPost likes from distinct users.
func (f *Factory) CreateLikes(ctx context.Context, posts []*models.Post, users []*models.User, perPost int) (int, error) {
	if perPost <= 0 || len(posts) == 0 || len(users) == 0 {
		return 0, nil
	}
	var likes []*models.Like
	for _, post := range posts {
		n := f.rng.Intn(min(perPost, len(users)) + 1)
		for _, i := range f.rng.Perm(len(users))[:n] {
			likes = append(likes, &models.Like{UserID: users[i].ID, PostID: post.ID, CreatedAt: post.CreatedAt})
		}
	}
	if len(likes) == 0 {
		return 0, nil
	}
	err := f.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(likes, 200).Error
	if err != nil {
		return 0, fmt.Errorf("create likes: %w", err)
	}
	return len(likes), nil
}
