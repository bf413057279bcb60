// Package render turns shapes into HTML.
//
// It is the host side of the shape contract: each shape is given a
// location (the placement rules, else its own default), grouped into zones,
// ordered by position and rendered with the templ template registered for
// its type. Shapes with no location or no template are left out; a part
// that is not placed is not an error.
package render

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/pthm/hxpart"
	"github.com/pthm/hxpart/lib/placement"
)

// Template renders one shape.
type Template func(s *hxpart.Shape) templ.Component

// Placed is a shape with its resolved location.
type Placed struct {
	Shape    *hxpart.Shape
	Location placement.Location
}

// Zone is a named region holding placed shapes in position order.
type Zone struct {
	Name   string
	Shapes []Placed
}

// Layout is the result of placing a set of shapes.
type Layout struct {
	Zones []Zone
}

// Zone returns the zone named name.
func (l Layout) Zone(name string) (Zone, bool) {
	for _, z := range l.Zones {
		if z.Name == name {
			return z, true
		}
	}
	return Zone{}, false
}

// Resolver places and renders shapes.
type Resolver struct {
	mu        sync.RWMutex
	rules     *placement.Rules
	templates map[string]Template
	zoneOrder []string
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithZoneOrder lists zones to render first, in order. Other zones follow
// alphabetically.
func WithZoneOrder(zones ...string) Option {
	return func(r *Resolver) {
		r.zoneOrder = zones
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// New creates a resolver over rules. A nil rules set places only shapes
// that carry their own location.
func New(rules *placement.Rules, opts ...Option) *Resolver {
	if rules == nil {
		rules = placement.New()
	}
	r := &Resolver{
		rules:     rules,
		templates: make(map[string]Template),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register sets the template for shapeType. Registering the same type
// twice replaces the earlier template.
func (r *Resolver) Register(shapeType string, t Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[shapeType] = t
}

// Template returns the template for shapeType. Alternate editor shapes
// ("PersonPart_Edit__Compact") fall back to their base type
// ("PersonPart_Edit") when no specific template is registered.
func (r *Resolver) Template(shapeType string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.templates[shapeType]; ok {
		return t, true
	}
	if base, _, ok := strings.Cut(shapeType, "__"); ok {
		t, ok := r.templates[base]
		return t, ok
	}
	return nil, false
}

// Locate returns where s goes for contentType. A matching placement rule
// wins; the shape's own Location is the fallback.
func (r *Resolver) Locate(contentType string, s *hxpart.Shape) (placement.Location, bool) {
	loc, ok := r.rules.Resolve(placement.Context{
		ShapeType:      s.Type,
		DisplayType:    s.DisplayType,
		ContentType:    contentType,
		ContentPart:    s.Part,
		Differentiator: s.Differentiator,
	})
	if ok {
		return loc, true
	}
	if s.Location != "" {
		return placement.ParseLocation(s.Location), true
	}
	return placement.Location{}, false
}

// Place resolves every shape and groups the visible ones into zones.
func (r *Resolver) Place(ctx context.Context, contentType string, shapes []*hxpart.Shape) Layout {
	byZone := make(map[string][]Placed)
	for _, s := range shapes {
		loc, ok := r.Locate(contentType, s)
		if !ok || loc.IsZero() {
			r.logger.DebugContext(ctx, "shape not placed", "shape", s.Type, "content_type", contentType)
			continue
		}
		if loc.Hidden {
			continue
		}
		byZone[loc.Zone] = append(byZone[loc.Zone], Placed{Shape: s, Location: loc})
	}

	var layout Layout
	for _, name := range r.zoneNames(byZone) {
		placed := byZone[name]
		slices.SortStableFunc(placed, func(a, b Placed) int {
			return placement.ComparePositions(a.Location.Position, b.Location.Position)
		})
		layout.Zones = append(layout.Zones, Zone{Name: name, Shapes: placed})
	}
	return layout
}

func (r *Resolver) zoneNames(byZone map[string][]Placed) []string {
	rank := func(z string) int {
		if i := slices.Index(r.zoneOrder, z); i >= 0 {
			return i
		}
		return len(r.zoneOrder)
	}

	names := make([]string, 0, len(byZone))
	for z := range byZone {
		names = append(names, z)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(rank(a), rank(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return names
}

// Render writes the placed shapes as zone containers.
func (r *Resolver) Render(ctx context.Context, w io.Writer, contentType string, shapes []*hxpart.Shape) error {
	for _, zone := range r.Place(ctx, contentType, shapes).Zones {
		if _, err := fmt.Fprintf(w, `<div class="zone zone-%s">`, templ.EscapeString(strings.ToLower(zone.Name))); err != nil {
			return err
		}
		for _, p := range zone.Shapes {
			t, ok := r.Template(p.Shape.Type)
			if !ok {
				r.logger.DebugContext(ctx, "no template for shape", "shape", p.Shape.Type)
				continue
			}
			if err := t(p.Shape).Render(ctx, w); err != nil {
				return fmt.Errorf("render %s: %w", p.Shape.Type, err)
			}
		}
		if _, err := io.WriteString(w, `</div>`); err != nil {
			return err
		}
	}
	return nil
}

// Component wraps Render as a templ component for use inside layouts.
func (r *Resolver) Component(contentType string, shapes []*hxpart.Shape) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return r.Render(ctx, w, contentType, shapes)
	})
}
