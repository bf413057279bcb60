// Package memory is an in-process Store for tests and single-node demos.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/pthm/hxpart"
	"github.com/pthm/hxpart/lib/store"
)

type entry struct {
	item *hxpart.ContentItem
	rows map[string]store.Row
}

// Store keeps content items in memory. Items are copied on the way in and
// out, so callers never share state with the store.
type Store struct {
	mu        sync.RWMutex
	items     map[string]*entry
	order     []string
	providers []store.IndexProvider
	now       func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty store indexing parts through providers.
func New(providers ...store.IndexProvider) *Store {
	return &Store{
		items:     make(map[string]*entry),
		providers: providers,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Create(ctx context.Context, item *hxpart.ContentItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows, err := store.IndexRows(item, s.providers)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; ok {
		return fmt.Errorf("%w: %s", store.ErrAlreadyExists, item.ID)
	}
	if item.Version == 0 {
		item.Version = 1
	}
	s.items[item.ID] = &entry{item: item.Clone(), rows: rows}
	s.order = append(s.order, item.ID)
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*hxpart.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return e.item.Clone(), nil
}

func (s *Store) Update(ctx context.Context, item *hxpart.ContentItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows, err := store.IndexRows(item, s.providers)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[item.ID]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, item.ID)
	}
	if e.item.Version != item.Version {
		return fmt.Errorf("%w: %s at version %d, stored %d", store.ErrConflict, item.ID, item.Version, e.item.Version)
	}

	item.Version++
	item.ModifiedUTC = s.now()
	s.items[item.ID] = &entry{item: item.Clone(), rows: rows}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	delete(s.items, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// Query returns items of contentType matching every predicate, in
// creation order.
func (s *Store) Query(ctx context.Context, contentType string, preds []store.Predicate, page store.Page) ([]*hxpart.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := store.CheckPredicates(preds, s.providers); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*hxpart.ContentItem
	skip := page.Offset()
	for _, id := range s.order {
		e := s.items[id]
		if e.item.ContentType != contentType || !store.MatchAll(preds, e.rows) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, e.item.Clone())
		if len(out) == page.Limit() {
			break
		}
	}
	return out, nil
}
