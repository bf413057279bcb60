// Package store persists content items and answers index queries over
// their parts.
//
// Items are stored whole: the item row plus its msgpack part payloads.
// Parts that want to be queryable register an IndexProvider, which
// projects the part into one row of a named index table every time the
// item is written. Queries are conjunctions of Predicates against those
// index tables.
package store

import (
	"context"
	"errors"

	"github.com/pthm/hxpart"
)

var (
	ErrNotFound      = errors.New("store: content item not found")
	ErrConflict      = errors.New("store: content item was modified concurrently")
	ErrAlreadyExists = errors.New("store: content item already exists")
	ErrInvalidQuery  = errors.New("store: invalid query")
)

// Store persists content items.
//
// Update is optimistic: item.Version must equal the stored version, and
// on success both are incremented. A mismatch returns ErrConflict and
// writes nothing.
type Store interface {
	Create(ctx context.Context, item *hxpart.ContentItem) error
	Get(ctx context.Context, id string) (*hxpart.ContentItem, error)
	Update(ctx context.Context, item *hxpart.ContentItem) error
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, contentType string, preds []Predicate, page Page) ([]*hxpart.ContentItem, error)
}

// Page bounds a query result. Zero First means DefaultPageSize.
type Page struct {
	First int
	Skip  int
}

// DefaultPageSize caps queries that do not ask for a size.
const DefaultPageSize = 100

// Limit returns the effective row limit.
func (p Page) Limit() int {
	if p.First <= 0 || p.First > DefaultPageSize {
		return DefaultPageSize
	}
	return p.First
}

// Offset returns the effective number of rows to skip.
func (p Page) Offset() int {
	return max(p.Skip, 0)
}
