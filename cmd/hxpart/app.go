package main

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/pthm/hxpart"
	"github.com/pthm/hxpart/lib/gqlschema"
	"github.com/pthm/hxpart/lib/placement"
	"github.com/pthm/hxpart/lib/render"
	"github.com/pthm/hxpart/lib/store"
	"github.com/pthm/hxpart/lib/store/memory"
	"github.com/pthm/hxpart/lib/store/sqlite"
	"github.com/pthm/hxpart/parts/person"
)

// PersonType is the content type carrying a PersonPart.
const PersonType = "Person"

//go:embed placement.yaml
var defaultPlacement []byte

// app holds the wired components shared by the commands.
type app struct {
	registry  *hxpart.Registry
	resolver  *render.Resolver
	store     store.Store
	registrar *gqlschema.Registrar
	close     func() error
}

func newApp(ctx context.Context, cfg Config, logger *slog.Logger) (*app, error) {
	rules, err := loadPlacement(cfg.PlacementFile)
	if err != nil {
		return nil, err
	}

	st, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	driver := person.NewDriver(
		hxpart.WithValidator(hxpart.NewValidator()),
		hxpart.WithLogger(logger),
	)
	registry := hxpart.NewRegistry(hxpart.WithRegistryLogger(logger))
	registry.Add(PersonType, hxpart.Handle[person.PersonPart](driver))

	resolver := render.New(rules,
		render.WithZoneOrder("Header", "Content", "Meta"),
		render.WithLogger(logger),
	)
	person.RegisterTemplates(resolver)

	a := &app{
		registry: registry,
		resolver: resolver,
		store:    st,
		close:    closeStore,
	}

	if cfg.GraphQLEnabled {
		a.registrar = gqlschema.NewRegistrar(st, gqlschema.WithLogger(logger))
		if err := person.RegisterGraphQL(a.registrar); err != nil {
			_ = closeStore()
			return nil, fmt.Errorf("register graphql: %w", err)
		}
		if err := a.registrar.AddContentType(PersonType, person.PartName); err != nil {
			_ = closeStore()
			return nil, fmt.Errorf("register graphql: %w", err)
		}
	}
	return a, nil
}

func openStore(ctx context.Context, database string) (store.Store, func() error, error) {
	if database == "memory" {
		return memory.New(person.Index{}), func() error { return nil }, nil
	}
	st, err := sqlite.Open(ctx, database, person.Index{})
	if err != nil {
		return nil, nil, err
	}
	return st, st.Close, nil
}

// loadPlacement returns the rules from path, if set, followed by the
// built-in defaults.
func loadPlacement(path string) (*placement.Rules, error) {
	defaults, err := placement.Load(bytes.NewReader(defaultPlacement))
	if err != nil {
		return nil, fmt.Errorf("default placement: %w", err)
	}
	if path == "" {
		return defaults, nil
	}

	rules, err := placement.LoadFile(path)
	if err != nil {
		return nil, err
	}
	rules.Merge(defaults)
	return rules, nil
}
