// Package gqlschema assembles a GraphQL schema from part type
// registrations.
//
// Parts describe themselves once at startup: an object type for reading
// the part, an optional where-input type for filtering, and index aliases
// telling the query layer which index column each filter field reads.
// The host then names which parts each content type carries and asks for
// the schema. Building the schema seals the registrar.
//
//	reg := gqlschema.NewRegistrar(st)
//	if err := person.RegisterGraphQL(reg); err != nil { ... }
//	reg.AddContentType("Person", person.PartName)
//	schema, err := reg.Schema()
package gqlschema

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/graphql-go/graphql"
	"github.com/pthm/hxpart"
	"github.com/pthm/hxpart/lib/store"
)

var (
	ErrSealed            = fmt.Errorf("gqlschema: registrar is sealed: %w", hxpart.ErrConfiguration)
	ErrNotRegistered     = fmt.Errorf("gqlschema: part type is not registered: %w", hxpart.ErrConfiguration)
	ErrInvalidDescriptor = fmt.Errorf("gqlschema: invalid part type descriptor: %w", hxpart.ErrConfiguration)
)

var graphqlName = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// Alias maps a where-input path ("personPart.name") to the index column
// holding its value ("person_part_index.name").
type Alias struct {
	Path  string
	Index string
}

func (a Alias) target() (table, column string) {
	table, column, _ = strings.Cut(a.Index, ".")
	return table, column
}

// PartType describes how a part appears in the schema.
type PartType struct {
	// Name is the part name, as attached to content types.
	Name string
	// Field is the field the part appears under on a content item
	// ("personPart") and in the content type's where input.
	Field string
	// Object resolves against the value returned by Load.
	Object *graphql.Object
	// Where filters items by the part's indexed values. Optional.
	Where   *graphql.InputObject
	Aliases []Alias
	// Load returns the part carried by item, or nil when it has none.
	Load func(item *hxpart.ContentItem) (any, error)
}

func (pt *PartType) validate() error {
	switch {
	case pt.Name == "":
		return fmt.Errorf("%w: part name is empty", ErrInvalidDescriptor)
	case !graphqlName.MatchString(pt.Field):
		return fmt.Errorf("%w: %s: field %q is not a GraphQL name", ErrInvalidDescriptor, pt.Name, pt.Field)
	case pt.Object == nil:
		return fmt.Errorf("%w: %s: object type is nil", ErrInvalidDescriptor, pt.Name)
	case pt.Load == nil:
		return fmt.Errorf("%w: %s: load func is nil", ErrInvalidDescriptor, pt.Name)
	}
	for _, a := range pt.Aliases {
		table, column := a.target()
		if !strings.HasPrefix(a.Path, pt.Field+".") || table == "" || column == "" {
			return fmt.Errorf("%w: %s: alias %s -> %s", ErrInvalidDescriptor, pt.Name, a.Path, a.Index)
		}
	}
	return nil
}

func (pt *PartType) alias(path string) (Alias, bool) {
	for _, a := range pt.Aliases {
		if a.Path == path {
			return a, true
		}
	}
	return Alias{}, false
}

// Registrar collects part types and content types and builds the schema.
// It is safe for concurrent use; registration normally happens once at
// startup.
type Registrar struct {
	mu       sync.Mutex
	store    store.Store
	parts    map[string]*PartType
	types    map[string][]string
	typeList []string
	sealed   bool
	schema   graphql.Schema
	err      error
	logger   *slog.Logger
}

// Option configures a Registrar.
type Option func(*Registrar)

// WithLogger sets the registrar's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registrar) {
		r.logger = l
	}
}

// NewRegistrar creates a registrar whose query fields read from st. A nil
// store builds a schema that can be introspected but not queried.
func NewRegistrar(st store.Store, opts ...Option) *Registrar {
	r := &Registrar{
		store:  st,
		parts:  make(map[string]*PartType),
		types:  make(map[string][]string),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a part type. Registering a part name that is already
// registered is a no-op, so parts may call it from every place they are
// wired without coordinating.
func (r *Registrar) Register(pt PartType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: register %s", ErrSealed, pt.Name)
	}
	if _, ok := r.parts[pt.Name]; ok {
		return nil
	}
	if err := pt.validate(); err != nil {
		return err
	}
	r.parts[pt.Name] = &pt
	r.logger.Debug("graphql part registered", "part", pt.Name, "field", pt.Field, "aliases", len(pt.Aliases))
	return nil
}

// Registered reports whether a part type named name has been registered.
func (r *Registrar) Registered(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.parts[name]
	return ok
}

// AddContentType exposes contentType with the named parts. Parts need not
// be registered yet; Schema checks them.
func (r *Registrar) AddContentType(contentType string, parts ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: add content type %s", ErrSealed, contentType)
	}
	if !graphqlName.MatchString(contentType) {
		return fmt.Errorf("%w: content type %q is not a GraphQL name", ErrInvalidDescriptor, contentType)
	}
	if _, ok := r.types[contentType]; !ok {
		r.typeList = append(r.typeList, contentType)
	}
	r.types[contentType] = append(r.types[contentType], parts...)
	return nil
}

// Schema builds the schema and seals the registrar. Later calls return
// the same schema, or the same error.
func (r *Registrar) Schema() (graphql.Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return r.schema, r.err
	}
	r.sealed = true
	r.schema, r.err = r.build()
	if r.err == nil {
		r.logger.Info("graphql schema built", "content_types", len(r.typeList), "parts", len(r.parts))
	}
	return r.schema, r.err
}

func (r *Registrar) build() (graphql.Schema, error) {
	fields := graphql.Fields{
		"contentTypes": &graphql.Field{
			Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String))),
			Description: "Content types exposed by this schema.",
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return r.typeList, nil
			},
		},
	}

	for _, ct := range r.typeList {
		var parts []*PartType
		for _, name := range r.types[ct] {
			pt, ok := r.parts[name]
			if !ok {
				return graphql.Schema{}, fmt.Errorf("%w: %s on content type %s", ErrNotRegistered, name, ct)
			}
			parts = append(parts, pt)
		}
		fields[lowerFirst(ct)] = r.contentTypeField(ct, parts)
	}

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: fields,
		}),
	})
}

func (r *Registrar) contentTypeField(ct string, parts []*PartType) *graphql.Field {
	itemFields := graphql.Fields{
		"contentItemId": &graphql.Field{
			Type: graphql.NewNonNull(graphql.ID),
			Resolve: itemResolver(func(item *hxpart.ContentItem) any {
				return item.ID
			}),
		},
		"contentType": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: itemResolver(func(item *hxpart.ContentItem) any {
				return item.ContentType
			}),
		},
		"version": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Int),
			Resolve: itemResolver(func(item *hxpart.ContentItem) any {
				return item.Version
			}),
		},
		"createdUtc": &graphql.Field{
			Type: graphql.DateTime,
			Resolve: itemResolver(func(item *hxpart.ContentItem) any {
				return item.CreatedUTC
			}),
		},
		"modifiedUtc": &graphql.Field{
			Type: graphql.DateTime,
			Resolve: itemResolver(func(item *hxpart.ContentItem) any {
				return item.ModifiedUTC
			}),
		},
	}
	whereFields := graphql.InputObjectConfigFieldMap{}

	for _, pt := range parts {
		load := pt.Load
		itemFields[pt.Field] = &graphql.Field{
			Type: pt.Object,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				item, ok := p.Source.(*hxpart.ContentItem)
				if !ok {
					return nil, nil
				}
				return load(item)
			},
		}
		if pt.Where != nil {
			whereFields[pt.Field] = &graphql.InputObjectFieldConfig{Type: pt.Where}
		}
	}

	args := graphql.FieldConfigArgument{
		"first": &graphql.ArgumentConfig{Type: graphql.Int},
		"skip":  &graphql.ArgumentConfig{Type: graphql.Int},
	}
	if len(whereFields) > 0 {
		args["where"] = &graphql.ArgumentConfig{
			Type: graphql.NewInputObject(graphql.InputObjectConfig{
				Name:   ct + "WhereInput",
				Fields: whereFields,
			}),
		}
	}

	return &graphql.Field{
		Type: graphql.NewList(graphql.NewObject(graphql.ObjectConfig{
			Name:   ct,
			Fields: itemFields,
		})),
		Args: args,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			if r.store == nil {
				return nil, errors.New("gqlschema: no store configured")
			}
			where, _ := p.Args["where"].(map[string]any)
			preds, err := compileWhere(where, parts)
			if err != nil {
				return nil, err
			}
			page := store.Page{}
			if v, ok := p.Args["first"].(int); ok {
				page.First = v
			}
			if v, ok := p.Args["skip"].(int); ok {
				page.Skip = v
			}
			return r.store.Query(p.Context, ct, preds, page)
		},
	}
}

func itemResolver(fn func(item *hxpart.ContentItem) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		item, ok := p.Source.(*hxpart.ContentItem)
		if !ok {
			return nil, nil
		}
		return fn(item), nil
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
