package hxpart

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// PartHandle is a driver bound to its part type with P erased, so the
// registry can hold drivers for different part types side by side.
type PartHandle interface {
	PartName() string
	Prefix() string
	BuildDisplay(ctx context.Context, item *ContentItem, dc DisplayContext) (*Shape, error)
	BuildEditor(ctx context.Context, item *ContentItem, ec EditorContext) (*Shape, error)
	UpdateEditor(ctx context.Context, item *ContentItem, ec EditorContext, b Binder) (Result, error)
}

// Handle wraps a typed driver as a PartHandle.
func Handle[P any](d Driver[P]) PartHandle {
	return &handle[P]{driver: d}
}

type handle[P any] struct {
	driver Driver[P]
}

func (h *handle[P]) PartName() string { return h.driver.PartName() }
func (h *handle[P]) Prefix() string   { return h.driver.Prefix() }

// load decodes the part from item. An item that does not carry the part
// yet (a new item) yields the zero part.
func (h *handle[P]) load(item *ContentItem) (*P, error) {
	part := new(P)
	if _, err := item.Get(h.driver.PartName(), part); err != nil {
		return nil, err
	}
	return part, nil
}

func (h *handle[P]) BuildDisplay(ctx context.Context, item *ContentItem, dc DisplayContext) (*Shape, error) {
	part, err := h.load(item)
	if err != nil {
		return nil, err
	}
	return h.driver.Display(ctx, part, dc), nil
}

func (h *handle[P]) BuildEditor(ctx context.Context, item *ContentItem, ec EditorContext) (*Shape, error) {
	part, err := h.load(item)
	if err != nil {
		return nil, err
	}
	return h.driver.Edit(ctx, part, ec), nil
}

func (h *handle[P]) UpdateEditor(ctx context.Context, item *ContentItem, ec EditorContext, b Binder) (Result, error) {
	part, err := h.load(item)
	if err != nil {
		return Result{}, err
	}
	res := h.driver.Update(ctx, part, ec, b)
	if res.Err() != nil {
		return res, res.Err()
	}
	if res.Valid() {
		if err := item.Apply(h.driver.PartName(), part); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Registry attaches part drivers to content types and drives them.
//
// Build it once at startup and share it; after setup it is read-only:
//
//	reg := hxpart.NewRegistry()
//	reg.Add("Person", hxpart.Handle[person.PersonPart](person.NewDriver()))
type Registry struct {
	mu     sync.RWMutex
	types  map[string][]PartHandle
	logger *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the registry's logger.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{
		types:  make(map[string][]PartHandle),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// Add attaches parts to contentType, in display order.
// Panics if two editors on the content type share a prefix or a prefix
// is empty: both mean form keys would collide on one page.
func (reg *Registry) Add(contentType string, parts ...PartHandle) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, p := range parts {
		if p.Prefix() == "" {
			panic(fmt.Sprintf("hxpart: %s on %s: %v", p.PartName(), contentType, ErrMissingPrefix))
		}
		for _, existing := range reg.types[contentType] {
			if existing.Prefix() == p.Prefix() {
				panic(fmt.Sprintf("hxpart: prefix %q on %s: %v", p.Prefix(), contentType, ErrDuplicatePrefix))
			}
		}
		reg.types[contentType] = append(reg.types[contentType], p)
		reg.logger.Debug("part attached", "content_type", contentType, "part", p.PartName(), "prefix", p.Prefix())
	}
}

// ContentTypes returns the registered content types, sorted.
func (reg *Registry) ContentTypes() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]string, 0, len(reg.types))
	for ct := range reg.types {
		out = append(out, ct)
	}
	sort.Strings(out)
	return out
}

// Parts returns the handles attached to contentType.
func (reg *Registry) Parts(contentType string) ([]PartHandle, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	parts, ok := reg.types[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}
	return parts, nil
}

// BuildDisplay returns the display shapes of every part on item.
func (reg *Registry) BuildDisplay(ctx context.Context, item *ContentItem, displayType string) ([]*Shape, error) {
	parts, err := reg.Parts(item.ContentType)
	if err != nil {
		return nil, err
	}
	dc := DisplayContext{ContentType: item.ContentType, DisplayType: displayType}

	shapes := make([]*Shape, 0, len(parts))
	for _, p := range parts {
		s, err := p.BuildDisplay(ctx, item, dc)
		if err != nil {
			return nil, err
		}
		if s == nil {
			continue
		}
		s.DisplayType = displayType
		if s.Part == "" {
			s.Part = p.PartName()
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}

// BuildEditor returns the editor shapes of every part on item.
func (reg *Registry) BuildEditor(ctx context.Context, item *ContentItem, ec EditorContext) ([]*Shape, error) {
	parts, err := reg.Parts(item.ContentType)
	if err != nil {
		return nil, err
	}
	ec.ContentType = item.ContentType

	shapes := make([]*Shape, 0, len(parts))
	for _, p := range parts {
		s, err := p.BuildEditor(ctx, item, ec)
		if err != nil {
			return nil, err
		}
		if s == nil {
			continue
		}
		s.DisplayType = DisplayEdit
		if s.Part == "" {
			s.Part = p.PartName()
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}

// UpdateOutcome is the combined result of updating every part of an item.
type UpdateOutcome struct {
	Shapes []*Shape
	// Errors holds every part's field errors, qualified by prefix.
	Errors ValidationErrors
}

// Valid reports whether every part accepted its input.
func (o UpdateOutcome) Valid() bool {
	return len(o.Errors) == 0
}

// UpdateEditor runs every part's update pipeline against a scratch copy
// of item. Only when all parts are valid are their changes copied into
// item; otherwise item is left exactly as it was. The caller persists
// item after a valid outcome.
func (reg *Registry) UpdateEditor(ctx context.Context, item *ContentItem, ec EditorContext, b Binder) (UpdateOutcome, error) {
	parts, err := reg.Parts(item.ContentType)
	if err != nil {
		return UpdateOutcome{}, err
	}
	ec.ContentType = item.ContentType

	scratch := item.Clone()
	var out UpdateOutcome
	for _, p := range parts {
		res, err := p.UpdateEditor(ctx, scratch, ec, b)
		if err != nil {
			return UpdateOutcome{}, err
		}
		if s := res.Shape(); s != nil {
			s.DisplayType = DisplayEdit
			if s.Part == "" {
				s.Part = p.PartName()
			}
			out.Shapes = append(out.Shapes, s)
		}
		out.Errors = append(out.Errors, res.Errors().Prefixed(p.Prefix())...)
	}

	if !out.Valid() {
		reg.logger.DebugContext(ctx, "update rejected", "content_item", item.ID, "errors", len(out.Errors))
		return out, nil
	}
	item.replaceParts(scratch)
	return out, nil
}
