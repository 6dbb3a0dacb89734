// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inkpost/internal/criteria"
	"inkpost/internal/models"
	"inkpost/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Option configures a repository.
type Option func(*options)

type options struct {
	preloads []string
	now      func() time.Time
}

// WithPreloads loads the named associations on every read.
func WithPreloads(associations ...string) Option {
	return func(o *options) {
		o.preloads = append(o.preloads, associations...)
	}
}

// WithClock overrides the clock used to stamp updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Repository is CRUD over the table described by T's schema. It never
// commits; db is whatever transaction the caller hands in.
type Repository[T models.Entity] struct {
	db     *gorm.DB
	schema *models.Schema
	opts   options
	log    *observability.RepoLogger
}

// New creates a repository for entity type T.
func New[T models.Entity](db *gorm.DB, opts ...Option) *Repository[T] {
	var zero T
	schema := zero.Schema()

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Repository[T]{
		db:     db,
		schema: schema,
		opts:   o,
		log:    observability.NewRepoLogger(schema.Table()),
	}
}

// Schema returns the descriptor of the underlying table.
func (r *Repository[T]) Schema() *models.Schema {
	return r.schema
}

func (r *Repository[T]) preload(db *gorm.DB) *gorm.DB {
	for _, p := range r.opts.preloads {
		db = db.Preload(p)
	}
	return db
}

func (r *Repository[T]) notDeleted(db *gorm.DB) *gorm.DB {
	if !r.schema.SoftDelete() {
		return db
	}
	return db.Where(clause.Expr{
		SQL:  "? IS NULL",
		Vars: []any{clause.Column{Table: r.schema.Table(), Name: models.DeletedAtField}},
	})
}

func (r *Repository[T]) byID(id uint) clause.Expression {
	return clause.Eq{Column: clause.Column{Table: r.schema.Table(), Name: "id"}, Value: id}
}

// GetByID returns the entity with the given id, or nil when it does not
// exist or is soft-deleted.
func (r *Repository[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	defer observability.TrackQuery("get_by_id", r.schema.Table())()

	var entity T
	err := r.db.WithContext(ctx).
		Scopes(r.preload, r.notDeleted).
		Where(r.byID(id)).
		Take(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.LogError(ctx, err, "get_by_id")
		return nil, fmt.Errorf("get %s %d: %w", r.schema.Table(), id, err)
	}

	r.log.LogRead(ctx, map[string]any{"id": id})
	return &entity, nil
}

// GetAll returns the page of entities matching c together with the number
// of matching rows ignoring pagination. Criteria errors are reported
// before any statement runs.
func (r *Repository[T]) GetAll(ctx context.Context, c criteria.Criteria) ([]*T, int64, error) {
	q, err := criteria.Compile(r.schema, c)
	if err != nil {
		return nil, 0, err
	}

	defer observability.TrackQuery("get_all", r.schema.Table())()

	items := make([]*T, 0)
	if err := r.db.WithContext(ctx).
		Model(new(T)).
		Scopes(r.preload, q.Items).
		Find(&items).Error; err != nil {
		r.log.LogError(ctx, err, "get_all")
		return nil, 0, fmt.Errorf("list %s: %w", r.schema.Table(), err)
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(new(T)).
		Scopes(q.Count).
		Count(&count).Error; err != nil {
		r.log.LogError(ctx, err, "count")
		return nil, 0, fmt.Errorf("count %s: %w", r.schema.Table(), err)
	}

	r.log.LogRead(ctx, map[string]any{"items": len(items), "count": count})
	return items, count, nil
}

// Create inserts entity and fills in its generated columns.
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	defer observability.TrackQuery("create", r.schema.Table())()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return fmt.Errorf("create %s: %w", r.schema.Table(), err)
	}
	r.log.LogCreate(ctx, nil)
	return nil
}

// Update sets the given columns on the row with id and stamps updated_at.
// Soft-deleted rows are updated too, which is how the deletion marker is
// set and cleared.
func (r *Repository[T]) Update(ctx context.Context, id uint, fields map[string]any) error {
	values := make(map[string]any, len(fields)+1)
	for name, v := range fields {
		kind, ok := r.schema.Field(name)
		if !ok {
			return models.NewUnknownFieldError(r.schema.Table(), name)
		}
		if ss, isStrings := v.([]string); isStrings && kind == models.KindStrings {
			v = models.Tags(ss)
		}
		values[name] = v
	}
	if r.schema.HasField("updated_at") {
		values["updated_at"] = r.opts.now()
	}

	defer observability.TrackQuery("update", r.schema.Table())()

	res := r.db.WithContext(ctx).
		Model(new(T)).
		Where(r.byID(id)).
		Updates(values)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return fmt.Errorf("update %s %d: %w", r.schema.Table(), id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(r.schema.Table(), id)
	}

	r.log.LogUpdate(ctx, map[string]any{"id": id, "fields": len(fields)})
	return nil
}

// Delete removes the row with id. Deleting a missing row is not an error.
func (r *Repository[T]) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", r.schema.Table())()

	if err := r.db.WithContext(ctx).Where(r.byID(id)).Delete(new(T)).Error; err != nil {
		r.log.LogError(ctx, err, "delete")
		return fmt.Errorf("delete %s %d: %w", r.schema.Table(), id, err)
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}
