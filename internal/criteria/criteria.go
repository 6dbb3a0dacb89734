// Package criteria describes which rows to read and compiles that
// description into gorm clauses for an item query and a count query.
package criteria

import "slices"

// Operation is a filter comparison.
type Operation string

const (
	OpEq Operation = "eq"
	OpNe Operation = "ne"
	OpGt Operation = "gt"
	OpGe Operation = "ge"
	OpLt Operation = "lt"
	OpLe Operation = "le"
	OpIn Operation = "in"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Filter compares one field against a value. A nil Value is only valid
// with eq and ne, which test for NULL.
type Filter struct {
	Field     string    `json:"field"`
	Operation Operation `json:"operation"`
	Value     any       `json:"val"`
}

// Sorter adds one ordering key.
type Sorter struct {
	Field string `json:"field"`
	Order Order  `json:"order"`
}

// TextSearch is a case-insensitive substring match on a single field.
type TextSearch struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Pagination bounds the item query. Nil means unbounded.
type Pagination struct {
	Limit  *int `json:"limit,omitempty"`
	Offset *int `json:"offset,omitempty"`
}

// Criteria is the request-scoped read description. Filters and the search
// are AND-combined. Soft-deleted rows are excluded unless IncludeDeleted.
type Criteria struct {
	Filters        []Filter    `json:"filters,omitempty"`
	Sorters        []Sorter    `json:"sorters,omitempty"`
	Search         *TextSearch `json:"search,omitempty"`
	Pagination     Pagination  `json:"pagination"`
	IncludeDeleted bool        `json:"include_deleted,omitempty"`
}

// New returns empty criteria: every live row, storage order.
func New() Criteria {
	return Criteria{}
}

// Where returns a copy with an extra filter.
func (c Criteria) Where(field string, op Operation, val any) Criteria {
	c.Filters = append(slices.Clip(c.Filters), Filter{Field: field, Operation: op, Value: val})
	return c
}

// OrderBy returns a copy with an extra sorter.
func (c Criteria) OrderBy(field string, order Order) Criteria {
	c.Sorters = append(slices.Clip(c.Sorters), Sorter{Field: field, Order: order})
	return c
}

// Matching returns a copy matching value as a substring of field.
func (c Criteria) Matching(field, value string) Criteria {
	c.Search = &TextSearch{Field: field, Value: value}
	return c
}

// Page returns a copy bounded by limit and offset.
func (c Criteria) Page(limit, offset int) Criteria {
	c.Pagination = Pagination{Limit: &limit, Offset: &offset}
	return c
}

// WithDeleted returns a copy that also matches soft-deleted rows.
func (c Criteria) WithDeleted() Criteria {
	c.IncludeDeleted = true
	return c
}
