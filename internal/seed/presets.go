package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"inkpost/internal/models"
	"inkpost/internal/observability"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed presets.yml
var builtinPresets []byte

// Preset sizes one seeding run.
type Preset struct {
	Users           int      `yaml:"users"`
	PostsPerUser    int      `yaml:"posts_per_user"`
	CommentsPerPost int      `yaml:"comments_per_post"`
	LikesPerPost    int      `yaml:"likes_per_post"`
	MaxTagsPerPost  int      `yaml:"max_tags_per_post"`
	MaxDays         int      `yaml:"max_days"`
	Tags            []string `yaml:"tags"`
}

// Validate rejects negative sizes.
func (p Preset) Validate() error {
	for name, v := range map[string]int{
		"users":             p.Users,
		"posts_per_user":    p.PostsPerUser,
		"comments_per_post": p.CommentsPerPost,
		"likes_per_post":    p.LikesPerPost,
		"max_tags_per_post": p.MaxTagsPerPost,
		"max_days":          p.MaxDays,
	} {
		if v < 0 {
			return fmt.Errorf("preset: %s must not be negative", name)
		}
	}
	return nil
}

// Summary reports what a run created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
}

// ParsePresets decodes a YAML document mapping preset names to presets.
func ParsePresets(data []byte) (map[string]Preset, error) {
	presets := map[string]Preset{}
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	for name, p := range presets {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return presets, nil
}

// LoadPresets reads presets from path, or the built-in set when path is empty.
func LoadPresets(path string) (map[string]Preset, error) {
	if path == "" {
		return ParsePresets(builtinPresets)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return ParsePresets(data)
}

// Names lists preset names in order.
func Names(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes all rows, children first.
func Clear(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Like{}, &models.Comment{}, &models.Post{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run seeds one preset inside a single transaction.
func Run(ctx context.Context, db *gorm.DB, p Preset, opts Options) (Summary, error) {
	var sum Summary
	if err := p.Validate(); err != nil {
		return sum, err
	}
	if p.MaxDays > 0 {
		opts.MaxDays = p.MaxDays
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f := NewFactory(tx, opts)

		users, err := f.CreateUsers(ctx, p.Users)
		if err != nil {
			return err
		}
		posts, err := f.CreatePosts(ctx, users, p.PostsPerUser, p.Tags, p.MaxTagsPerPost)
		if err != nil {
			return err
		}
		comments, err := f.CreateComments(ctx, posts, users, p.CommentsPerPost)
		if err != nil {
			return err
		}
		likes, err := f.CreateLikes(ctx, posts, users, p.LikesPerPost)
		if err != nil {
			return err
		}
		sum = Summary{Users: len(users), Posts: len(posts), Comments: comments, Likes: likes}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	observability.Logger.InfoContext(ctx, "seed complete",
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
		slog.Int("likes", sum.Likes),
	)
	return sum, nil
}
