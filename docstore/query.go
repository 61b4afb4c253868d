package docstore

import (
	"fmt"
	"regexp"
)

// Filter is a single field predicate. Eq is the only operator the app
// needs; a nil value matches documents where the field is null or absent.
type Filter struct {
	Field string
	Op    string
	Value any
}

const OpEq = "=="

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Query describes one page of an ordered scan.
//
// After carries the sort-key value and id of the last document of the
// previous page; the scan resumes strictly after that position. Because the
// position is an item, not an offset, repeating a query with the same After
// is idempotent and concurrent inserts at the tail cannot shift items out
// of a sweep already in progress.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
	After   *Position
}

// Position is a decoded pagination cursor.
type Position struct {
	Value any    `json:"v"`
	ID    string `json:"id"`
}

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate rejects malformed queries before they reach a backend. Field
// names are interpolated into postgres expressions, so they are restricted
// to identifier characters.
func (q Query) Validate() error {
	if q.OrderBy == "" {
		return fmt.Errorf("query requires an order field")
	}
	if !fieldNameRe.MatchString(q.OrderBy) {
		return fmt.Errorf("invalid order field %q", q.OrderBy)
	}
	for _, f := range q.Filters {
		if !fieldNameRe.MatchString(f.Field) {
			return fmt.Errorf("invalid filter field %q", f.Field)
		}
		if f.Op != OpEq {
			return fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("negative limit")
	}
	return nil
}
