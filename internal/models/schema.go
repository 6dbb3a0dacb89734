package models

import "sort"

// Kind classifies a declared column for query validation.
type Kind int

const (
	KindInt Kind = iota
	KindString
	KindTime
	KindBool
	KindStrings
)

// DeletedAtField is the column holding the soft-delete marker.
const DeletedAtField = "deleted_at"

// Schema describes the columns an entity exposes to criteria and patches.
type Schema struct {
	table      string
	fields     map[string]Kind
	softDelete bool
}

// Entity is implemented by every persisted model with an integer id.
// Schema must work on the zero value so generic code can call it on T{}.
type Entity interface {
	Schema() *Schema
}

// NewSchema builds a descriptor. When softDelete is set the deleted_at
// column is declared automatically.
func NewSchema(table string, fields map[string]Kind, softDelete bool) *Schema {
	s := &Schema{
		table:      table,
		fields:     make(map[string]Kind, len(fields)+1),
		softDelete: softDelete,
	}
	for name, kind := range fields {
		s.fields[name] = kind
	}
	if softDelete {
		s.fields[DeletedAtField] = KindTime
	}
	return s
}

// Table returns the table name.
func (s *Schema) Table() string { return s.table }

// SoftDelete reports whether rows carry a deleted_at marker.
func (s *Schema) SoftDelete() bool { return s.softDelete }

// HasField reports whether name is a declared column.
func (s *Schema) HasField(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Field returns the kind of a declared column.
func (s *Schema) Field(name string) (Kind, bool) {
	k, ok := s.fields[name]
	return k, ok
}

// Fields returns the declared column names in lexical order.
func (s *Schema) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
