// Package pagination holds the page buffer backing a list screen.
package pagination

import (
	"context"
	"slices"
)

// Identifiable items are matched by id on Add and Remove.
type Identifiable interface {
	GetID() uint
}

// PageFetcher loads one window of a bound query.
type PageFetcher[T any] interface {
	FindByQueryPage(ctx context.Context, sql string, offset, limit int, args ...any) ([]T, error)
}

// LazyList is the current page of a search result together with the query
// that produced it. It is not safe for concurrent use; callers serialise
// access per view.
type LazyList[T Identifiable] struct {
	fetcher PageFetcher[T]
	items   []T
	total   int64
	sql     string
	args    []any
}

// NewLazyList returns an empty list that loads pages through fetcher.
func NewLazyList[T Identifiable](fetcher PageFetcher[T]) *LazyList[T] {
	return &LazyList[T]{fetcher: fetcher}
}

// SetTotalCount binds the query to page through and the number of rows it yields.
func (l *LazyList[T]) SetTotalCount(total int64, sql string, args ...any) {
	l.total = max(total, 0)
	l.sql = sql
	l.args = slices.Clone(args)
}

// Load fetches the window [first, first+pageSize) of the bound query and
// makes it the current page. Without a bound query, or outside the result,
// it returns an empty page.
func (l *LazyList[T]) Load(ctx context.Context, first, pageSize int) ([]T, error) {
	if l.sql == "" || first < 0 || pageSize <= 0 || int64(first) >= l.total {
		l.items = nil
		return []T{}, nil
	}
	page, err := l.fetcher.FindByQueryPage(ctx, l.sql, first, pageSize, l.args...)
	if err != nil {
		return nil, err
	}
	if len(page) > pageSize {
		page = page[:pageSize]
	}
	l.items = page
	return l.Items(), nil
}

// Items returns a copy of the current page.
func (l *LazyList[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// RowCount returns the total bound with SetTotalCount.
func (l *LazyList[T]) RowCount() int64 {
	return l.total
}

// Bound reports whether a query is bound.
func (l *LazyList[T]) Bound() bool {
	return l.sql != ""
}

// Add puts item on the current page, replacing an item with the same id.
func (l *LazyList[T]) Add(item T) {
	if i := l.index(item.GetID()); i >= 0 {
		l.items[i] = item
		return
	}
	l.items = append(l.items, item)
}

// AddAll adds every item in order.
func (l *LazyList[T]) AddAll(items []T) {
	for _, item := range items {
		l.Add(item)
	}
}

// Remove drops the item with item's id from the current page.
func (l *LazyList[T]) Remove(item T) bool {
	i := l.index(item.GetID())
	if i < 0 {
		return false
	}
	l.items = slices.Delete(l.items, i, i+1)
	return true
}

// Clean empties the page and forgets the bound query.
func (l *LazyList[T]) Clean() {
	l.items = nil
	l.total = 0
	l.sql = ""
	l.args = nil
}

func (l *LazyList[T]) index(id uint) int {
	return slices.IndexFunc(l.items, func(it T) bool { return it.GetID() == id })
}
