package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"inkpost/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	return gormDB, mock
}

func TestLikeRepository_BatchIsLiked(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		postIDs      []uint
		mockBehavior func(mock sqlmock.Sqlmock)
		expected     map[uint]bool
	}{
		{
			name:    "single query for the whole batch",
			postIDs: []uint{1, 2, 3},
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM "likes" WHERE user_id = $1 AND post_id IN ($2,$3,$4)`)).
					WithArgs(9, 1, 2, 3).
					WillReturnRows(sqlmock.NewRows([]string{"post_id"}).AddRow(2))
			},
			expected: map[uint]bool{1: false, 2: true, 3: false},
		},
		{
			name:         "empty batch issues no query",
			postIDs:      nil,
			mockBehavior: func(sqlmock.Sqlmock) {},
			expected:     map[uint]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewLikeRepository(db)
			tt.mockBehavior(mock)

			liked, err := repo.BatchIsLiked(ctx, tt.postIDs, 9)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, liked)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLikeRepository_Counts(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT post_id, COUNT(*) AS likes_count FROM "likes" WHERE post_id IN ($1,$2) GROUP BY "post_id"`)).
		WithArgs(4, 5).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "likes_count"}).AddRow(4, 3))

	counts, err := repo.Counts(context.Background(), []uint{4, 5})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{4: 3, 5: 0}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_Insert(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		mockBehavior func(mock sqlmock.Sqlmock)
		check        func(t *testing.T, err error)
	}{
		{
			name: "success",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "likes" ("user_id","post_id","created_at")`)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			check: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "uniqueness violation becomes already liked",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "likes"`)).
					WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
				mock.ExpectRollback()
			},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, models.ErrAlreadyLiked), "got %v", err)
			},
		},
		{
			name: "other storage failures propagate",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "likes"`)).
					WillReturnError(errors.New("connection reset"))
				mock.ExpectRollback()
			},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				var appErr *models.AppError
				assert.False(t, errors.As(err, &appErr))
				assert.Contains(t, err.Error(), "connection reset")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewLikeRepository(db)
			tt.mockBehavior(mock)

			tt.check(t, repo.Insert(ctx, 1, 2))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLikeRepository_RemoveMissingIsNotAnError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes" WHERE post_id = $1 AND user_id = $2`)).
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	assert.NoError(t, repo.Remove(context.Background(), 1, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}
