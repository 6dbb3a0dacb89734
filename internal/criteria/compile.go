package criteria

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"inkpost/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Query is compiled criteria for one table. The item and count scopes
// share every predicate; only the item scope orders and paginates.
type Query struct {
	Table  string
	Where  []clause.Expression
	Order  []clause.OrderByColumn
	Limit  *int
	Offset *int
}

// Items scopes db to the matching rows in order, bounded by pagination.
func (q *Query) Items(db *gorm.DB) *gorm.DB {
	db = q.where(db)
	if len(q.Order) > 0 {
		db = db.Clauses(clause.OrderBy{Columns: q.Order})
	}
	if q.Limit != nil {
		db = db.Limit(*q.Limit)
	}
	if q.Offset != nil {
		db = db.Offset(*q.Offset)
	}
	return db
}

// Count scopes db to the matching rows without order or pagination.
func (q *Query) Count(db *gorm.DB) *gorm.DB {
	return q.where(db)
}

func (q *Query) where(db *gorm.DB) *gorm.DB {
	if len(q.Where) > 0 {
		db = db.Clauses(clause.Where{Exprs: q.Where})
	}
	return db
}

// Compile validates c against schema and builds the query. It performs no
// I/O, so every contract violation surfaces before a statement runs.
func Compile(schema *models.Schema, c Criteria) (*Query, error) {
	q := &Query{Table: schema.Table()}

	for _, f := range c.Filters {
		expr, err := compileFilter(schema, f)
		if err != nil {
			return nil, err
		}
		q.Where = append(q.Where, expr)
	}

	if c.Search != nil && c.Search.Value != "" {
		expr, err := compileSearch(schema, *c.Search)
		if err != nil {
			return nil, err
		}
		q.Where = append(q.Where, expr)
	}

	for _, s := range c.Sorters {
		if !schema.HasField(s.Field) {
			return nil, models.NewUnknownFieldError(schema.Table(), s.Field)
		}
		switch s.Order {
		case Asc, Desc:
		default:
			return nil, models.NewInvalidSortDirectionError(s.Field, string(s.Order))
		}
		q.Order = append(q.Order, clause.OrderByColumn{
			Column: column(schema, s.Field),
			Desc:   s.Order == Desc,
		})
	}

	if schema.SoftDelete() && !c.IncludeDeleted {
		q.Where = append(q.Where, isNull(column(schema, models.DeletedAtField)))
	}

	if l := c.Pagination.Limit; l != nil && *l < 0 {
		return nil, models.NewInvalidPaginationError(fmt.Sprintf("limit must not be negative, got %d", *l))
	}
	if o := c.Pagination.Offset; o != nil && *o < 0 {
		return nil, models.NewInvalidPaginationError(fmt.Sprintf("offset must not be negative, got %d", *o))
	}
	q.Limit = c.Pagination.Limit
	q.Offset = c.Pagination.Offset

	return q, nil
}

func compileFilter(schema *models.Schema, f Filter) (clause.Expression, error) {
	kind, ok := schema.Field(f.Field)
	if !ok {
		return nil, models.NewUnknownFieldError(schema.Table(), f.Field)
	}
	col := column(schema, f.Field)

	if isNil(f.Value) {
		switch f.Operation {
		case OpEq:
			return isNull(col), nil
		case OpNe:
			return clause.Expr{SQL: "? IS NOT NULL", Vars: []any{col}}, nil
		default:
			return nil, models.NewInvalidFilterValueError(f.Field, string(f.Operation), "null value is only valid with eq or ne")
		}
	}

	if f.Operation == OpIn {
		values, ok := sequence(f.Value)
		if !ok {
			return nil, models.NewInvalidFilterValueError(f.Field, string(f.Operation), "value must be a list")
		}
		for i, v := range values {
			cv, err := coerce(kind, v)
			if err != nil {
				return nil, models.NewInvalidFilterValueError(f.Field, string(f.Operation), err.Error())
			}
			values[i] = cv
		}
		return clause.IN{Column: col, Values: values}, nil
	}

	if _, isList := sequence(f.Value); isList {
		return nil, models.NewInvalidFilterValueError(f.Field, string(f.Operation), "list values require the in operation")
	}
	val, err := coerce(kind, f.Value)
	if err != nil {
		return nil, models.NewInvalidFilterValueError(f.Field, string(f.Operation), err.Error())
	}

	switch f.Operation {
	case OpEq:
		return clause.Eq{Column: col, Value: val}, nil
	case OpNe:
		return clause.Neq{Column: col, Value: val}, nil
	case OpGt:
		return clause.Gt{Column: col, Value: val}, nil
	case OpGe:
		return clause.Gte{Column: col, Value: val}, nil
	case OpLt:
		return clause.Lt{Column: col, Value: val}, nil
	case OpLe:
		return clause.Lte{Column: col, Value: val}, nil
	default:
		return nil, models.NewInvalidFilterValueError(f.Field, string(f.Operation), "unsupported operation")
	}
}

func compileSearch(schema *models.Schema, s TextSearch) (clause.Expression, error) {
	kind, ok := schema.Field(s.Field)
	if !ok {
		return nil, models.NewUnknownFieldError(schema.Table(), s.Field)
	}
	if kind != models.KindString {
		return nil, models.NewInvalidFilterValueError(s.Field, "search", "text search needs a string field")
	}
	pattern := "%" + escapeLike(strings.ToLower(s.Value)) + "%"
	return clause.Expr{
		SQL:  `LOWER(?) LIKE ? ESCAPE '\'`,
		Vars: []any{column(schema, s.Field), pattern},
	}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func column(schema *models.Schema, field string) clause.Column {
	return clause.Column{Table: schema.Table(), Name: field}
}

func isNull(col clause.Column) clause.Expression {
	return clause.Expr{SQL: "? IS NULL", Vars: []any{col}}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// sequence flattens any slice or array into []any. Byte slices are scalars.
func sequence(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

// coerce normalizes decoded wire values (float64 numbers, RFC 3339
// strings) to the column's kind. Other values pass through untouched.
func coerce(kind models.Kind, v any) (any, error) {
	switch kind {
	case models.KindInt:
		switch n := v.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("%v is not an integer", n)
			}
			return int64(n), nil
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("%s is not an integer", n)
			}
			return i, nil
		}
	case models.KindTime:
		if s, ok := v.(string); ok {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, fmt.Errorf("%q is not an RFC 3339 timestamp", s)
			}
			return t, nil
		}
	}
	return v, nil
}
