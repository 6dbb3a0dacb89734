package criteria

import (
	"errors"
	"testing"

	"inkpost/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DryRun: true})
	require.NoError(t, err)
	return db
}

func itemSQL(t *testing.T, db *gorm.DB, model any, q *Query) (string, []any) {
	t.Helper()
	stmt := db.Model(model).Scopes(q.Items).Find(&[]map[string]any{}).Statement
	return stmt.SQL.String(), stmt.Vars
}

func countSQL(t *testing.T, db *gorm.DB, model any, q *Query) (string, []any) {
	t.Helper()
	var n int64
	stmt := db.Model(model).Scopes(q.Count).Count(&n).Statement
	return stmt.SQL.String(), stmt.Vars
}

func TestCompile_FilterSortPagination(t *testing.T) {
	db := setupDryRunDB(t)
	c := New().
		Where("user_id", OpEq, 7).
		OrderBy("created_at", Desc).
		Page(2, 0)

	q, err := Compile(models.Post{}.Schema(), c)
	require.NoError(t, err)

	sql, vars := itemSQL(t, db, &models.Post{}, q)
	assert.Contains(t, sql, `WHERE "posts"."user_id" = $1`)
	assert.Contains(t, sql, `ORDER BY "posts"."created_at" DESC`)
	assert.Contains(t, sql, "LIMIT")
	assert.Equal(t, 7, vars[0])

	sql, vars = countSQL(t, db, &models.Post{}, q)
	assert.Contains(t, sql, `count(*)`)
	assert.Contains(t, sql, `WHERE "posts"."user_id" = $1`)
	assert.NotContains(t, sql, "ORDER BY")
	assert.NotContains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "OFFSET")
	assert.Equal(t, []any{7}, vars)
}

func TestCompile_Operators(t *testing.T) {
	db := setupDryRunDB(t)

	tests := []struct {
		name     string
		filter   Filter
		expected string
	}{
		{"eq", Filter{Field: "title", Operation: OpEq, Value: "a"}, `"posts"."title" = $1`},
		{"ne", Filter{Field: "title", Operation: OpNe, Value: "a"}, `"posts"."title" <> $1`},
		{"gt", Filter{Field: "id", Operation: OpGt, Value: 1}, `"posts"."id" > $1`},
		{"ge", Filter{Field: "id", Operation: OpGe, Value: 1}, `"posts"."id" >= $1`},
		{"lt", Filter{Field: "id", Operation: OpLt, Value: 1}, `"posts"."id" < $1`},
		{"le", Filter{Field: "id", Operation: OpLe, Value: 1}, `"posts"."id" <= $1`},
		{"in", Filter{Field: "id", Operation: OpIn, Value: []int{1, 2, 3}}, `"posts"."id" IN ($1,$2,$3)`},
		{"eq null", Filter{Field: "title", Operation: OpEq, Value: nil}, `"posts"."title" IS NULL`},
		{"ne null", Filter{Field: "title", Operation: OpNe, Value: nil}, `"posts"."title" IS NOT NULL`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Compile(models.Post{}.Schema(), Criteria{Filters: []Filter{tt.filter}})
			require.NoError(t, err)
			sql, _ := itemSQL(t, db, &models.Post{}, q)
			assert.Contains(t, sql, tt.expected)
		})
	}
}

func TestCompile_FiltersCombineWithAnd(t *testing.T) {
	db := setupDryRunDB(t)
	c := New().
		Where("user_id", OpEq, 7).
		Where("id", OpGt, 10)

	q, err := Compile(models.Post{}.Schema(), c)
	require.NoError(t, err)

	sql, vars := itemSQL(t, db, &models.Post{}, q)
	assert.Contains(t, sql, `"posts"."user_id" = $1 AND "posts"."id" > $2`)
	assert.Equal(t, []any{7, 10}, vars)
}

func TestCompile_Errors(t *testing.T) {
	negative := -1

	tests := []struct {
		name     string
		criteria Criteria
		expected error
	}{
		{
			name:     "unknown filter field",
			criteria: New().Where("likes_count", OpEq, 1),
			expected: models.ErrUnknownField,
		},
		{
			name:     "unknown sort field",
			criteria: New().OrderBy("nope", Asc),
			expected: models.ErrUnknownField,
		},
		{
			name:     "unknown search field",
			criteria: New().Matching("body", "x"),
			expected: models.ErrUnknownField,
		},
		{
			name:     "null with gt",
			criteria: New().Where("title", OpGt, nil),
			expected: models.ErrInvalidFilterValue,
		},
		{
			name:     "null with in",
			criteria: New().Where("id", OpIn, nil),
			expected: models.ErrInvalidFilterValue,
		},
		{
			name:     "in with scalar",
			criteria: New().Where("id", OpIn, 3),
			expected: models.ErrInvalidFilterValue,
		},
		{
			name:     "list with eq",
			criteria: New().Where("id", OpEq, []int{1, 2}),
			expected: models.ErrInvalidFilterValue,
		},
		{
			name:     "unsupported operation",
			criteria: New().Where("id", Operation("like"), 1),
			expected: models.ErrInvalidFilterValue,
		},
		{
			name:     "fractional id",
			criteria: New().Where("id", OpEq, 1.5),
			expected: models.ErrInvalidFilterValue,
		},
		{
			name:     "malformed timestamp",
			criteria: New().Where("created_at", OpGt, "yesterday"),
			expected: models.ErrInvalidFilterValue,
		},
		{
			name:     "search on non-text field",
			criteria: New().Matching("user_id", "7"),
			expected: models.ErrInvalidFilterValue,
		},
		{
			name:     "bad sort direction",
			criteria: New().OrderBy("created_at", Order("sideways")),
			expected: models.ErrInvalidSortDirection,
		},
		{
			name:     "negative limit",
			criteria: Criteria{Pagination: Pagination{Limit: &negative}},
			expected: models.ErrInvalidPagination,
		},
		{
			name:     "negative offset",
			criteria: Criteria{Pagination: Pagination{Offset: &negative}},
			expected: models.ErrInvalidPagination,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Compile(models.Post{}.Schema(), tt.criteria)
			assert.Nil(t, q)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expected), "expected %v, got %v", tt.expected, err)
		})
	}
}

func TestCompile_SoftDelete(t *testing.T) {
	db := setupDryRunDB(t)

	t.Run("excluded by default on both queries", func(t *testing.T) {
		q, err := Compile(models.User{}.Schema(), New().Where("name", OpEq, "ann"))
		require.NoError(t, err)

		sql, _ := itemSQL(t, db, &models.User{}, q)
		assert.Contains(t, sql, `"users"."name" = $1 AND "users"."deleted_at" IS NULL`)

		sql, _ = countSQL(t, db, &models.User{}, q)
		assert.Contains(t, sql, `"users"."deleted_at" IS NULL`)
	})

	t.Run("opt out", func(t *testing.T) {
		q, err := Compile(models.User{}.Schema(), New().WithDeleted())
		require.NoError(t, err)

		sql, _ := itemSQL(t, db, &models.User{}, q)
		assert.NotContains(t, sql, "deleted_at")
	})

	t.Run("not injected without marker", func(t *testing.T) {
		q, err := Compile(models.Post{}.Schema(), New())
		require.NoError(t, err)
		assert.Empty(t, q.Where)
	})
}

func TestCompile_TextSearch(t *testing.T) {
	db := setupDryRunDB(t)
	q, err := Compile(models.Post{}.Schema(), New().Where("user_id", OpEq, 7).Matching("title", "50%_Off"))
	require.NoError(t, err)

	sql, vars := itemSQL(t, db, &models.Post{}, q)
	assert.Contains(t, sql, `LOWER("posts"."title") LIKE $2 ESCAPE '\'`)
	assert.Equal(t, `%50\%\_off%`, vars[1])

	// the count query must see the same predicate as the item query
	sql, vars = countSQL(t, db, &models.Post{}, q)
	assert.Contains(t, sql, `LOWER("posts"."title") LIKE $2`)
	assert.Len(t, vars, 2)
}

func TestCompile_EmptySearchIgnored(t *testing.T) {
	q, err := Compile(models.Post{}.Schema(), New().Matching("title", ""))
	require.NoError(t, err)
	assert.Empty(t, q.Where)
}

func TestCompile_CoercesWireValues(t *testing.T) {
	q, err := Compile(models.Post{}.Schema(), Criteria{Filters: []Filter{
		{Field: "user_id", Operation: OpIn, Value: []any{float64(1), float64(2)}},
		{Field: "created_at", Operation: OpGe, Value: "2024-05-01T10:00:00Z"},
	}})
	require.NoError(t, err)
	require.Len(t, q.Where, 2)
}

func TestCompile_NoPagination(t *testing.T) {
	db := setupDryRunDB(t)
	q, err := Compile(models.Comment{}.Schema(), New())
	require.NoError(t, err)

	sql, _ := itemSQL(t, db, &models.Comment{}, q)
	assert.NotContains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "OFFSET")
}

func TestCriteria_BuildersDoNotAlias(t *testing.T) {
	base := New().Where("user_id", OpEq, 1)
	a := base.Where("id", OpGt, 1)
	b := base.Where("id", OpLt, 5)

	require.Len(t, a.Filters, 2)
	require.Len(t, b.Filters, 2)
	assert.Equal(t, OpGt, a.Filters[1].Operation)
	assert.Equal(t, OpLt, b.Filters[1].Operation)
	assert.Len(t, base.Filters, 1)
}
