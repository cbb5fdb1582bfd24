// Package search builds the accent and case insensitive list queries used by
// the search screens, from field metadata declared on each entity type.
package search

import (
	"cmp"
	"slices"
)

// DefaultPriority is the ordering key of a field that does not set one.
// Fields with a lower priority are listed first.
const DefaultPriority = 10000

// Kind describes how a field value is presented to the client.
type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
)

// Field describes one searchable column of an entity.
type Field struct {
	Label    string `json:"label"`
	Column   string `json:"column"`
	Priority int    `json:"priority"`
	Kind     Kind   `json:"kind"`
}

// Searchable is implemented by entities that expose search fields.
type Searchable interface {
	SearchFields() []Field
}

// Fields returns the search fields of s sorted ascending by priority.
// Missing priorities and kinds are filled with their defaults; fields sharing
// a priority keep their declaration order.
func Fields(s Searchable) []Field {
	declared := s.SearchFields()
	fields := make([]Field, len(declared))
	for i, f := range declared {
		if f.Priority == 0 {
			f.Priority = DefaultPriority
		}
		if f.Kind == "" {
			f.Kind = KindText
		}
		fields[i] = f
	}
	slices.SortStableFunc(fields, func(a, b Field) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	return fields
}

// Lookup returns the field of fields bound to column.
func Lookup(fields []Field, column string) (*Field, bool) {
	for i := range fields {
		if fields[i].Column == column {
			f := fields[i]
			return &f, true
		}
	}
	return nil, false
}
