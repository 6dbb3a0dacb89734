//go:build integration

package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"inkpost/internal/criteria"
	"inkpost/internal/database"
	"inkpost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("inkpost"),
		postgres.WithUsername("inkpost"),
		postgres.WithPassword("inkpost"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := gorm.Open(gormpostgres.Open(dsn), database.GormConfig(quiet, 0))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestPostgres_Repositories(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	createUser(t, db, 1, "ann@example.com")
	createUser(t, db, 2, "bob@example.com")
	first := createPost(t, db, 1, "Go 100% fast", base, "go", "perf")
	createPost(t, db, 1, "Go is fine", base.Add(time.Hour), "go")
	createPost(t, db, 2, "sql notes", base.Add(2*time.Hour), "sql")

	t.Run("tags round trip as text[]", func(t *testing.T) {
		got, err := NewPostRepository(db).GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.Tags{"go", "perf"}, got.Tags)

		tags, err := NewPostRepository(db).AllTags(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"go", "perf", "sql"}, tags)
	})

	t.Run("search escapes wildcards and counts the filtered set", func(t *testing.T) {
		posts, count, err := NewPostRepository(db).GetAll(ctx, criteria.New().Matching("title", "100%"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		require.Len(t, posts, 1)
		assert.Equal(t, first.ID, posts[0].ID)

		posts, count, err = NewPostRepository(db).GetAll(ctx, criteria.New().
			Matching("title", "go").
			OrderBy("created_at", criteria.Desc).
			Page(1, 0))
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		require.Len(t, posts, 1)
		assert.Equal(t, "Go is fine", posts[0].Title)
	})

	t.Run("duplicate like inside a transaction keeps it usable", func(t *testing.T) {
		err := NewUnitOfWork(db).Do(ctx, func(st Store) error {
			require.NoError(t, st.Likes().Insert(ctx, first.ID, 2))
			err := st.Likes().Insert(ctx, first.ID, 2)
			assert.True(t, errors.Is(err, models.ErrAlreadyLiked), "got %v", err)

			n, err := st.Likes().Count(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
			return nil
		})
		require.NoError(t, err)

		liked, err := NewLikeRepository(db).BatchIsLiked(ctx, []uint{first.ID, 999}, 2)
		require.NoError(t, err)
		assert.Equal(t, map[uint]bool{first.ID: true, 999: false}, liked)
	})

	t.Run("email is reusable after soft delete", func(t *testing.T) {
		users := NewUserRepository(db)
		require.NoError(t, users.Update(ctx, 2, map[string]any{models.DeletedAtField: base}))
		createUser(t, db, 3, "bob@example.com")

		err := db.Create(&models.User{ID: 4, Email: "bob@example.com", Name: "dup", HashedPassword: "x"}).Error
		assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
	})
}
