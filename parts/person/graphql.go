package person

import (
	"strings"
	"sync"

	"github.com/graphql-go/graphql"
	"github.com/pthm/hxpart"
	"github.com/pthm/hxpart/lib/gqlschema"
)

// GraphQLField is the field PersonPart appears under on content items.
const GraphQLField = "personPart"

// GraphQL types are process-wide: graphql-go identifies types by pointer,
// so building them twice would put two "PersonPart" types in one schema.
var (
	handednessEnum = sync.OnceValue(func() *graphql.Enum {
		values := graphql.EnumValueConfigMap{}
		for _, h := range Handednesses {
			values[strings.ToUpper(string(h))] = &graphql.EnumValueConfig{
				Value:       string(h),
				Description: h.Label(),
			}
		}
		return graphql.NewEnum(graphql.EnumConfig{
			Name:   "Handedness",
			Values: values,
		})
	})

	objectType = sync.OnceValue(func() *graphql.Object {
		return graphql.NewObject(graphql.ObjectConfig{
			Name:        PartName,
			Description: "A person: name, birth date and handedness.",
			Fields: graphql.Fields{
				"name": &graphql.Field{
					Type: graphql.String,
					Resolve: partResolver(func(p *PersonPart) any {
						return p.Name
					}),
				},
				"birthDateUtc": &graphql.Field{
					Type: graphql.DateTime,
					Resolve: partResolver(func(p *PersonPart) any {
						if p.BirthDateUTC.IsZero() {
							return nil
						}
						return p.BirthDateUTC.UTC()
					}),
				},
				"handedness": &graphql.Field{
					Type: handednessEnum(),
					Resolve: partResolver(func(p *PersonPart) any {
						if p.Handedness == "" {
							return nil
						}
						return string(p.Handedness)
					}),
				},
			},
		})
	})

	whereType = sync.OnceValue(func() *graphql.InputObject {
		return graphql.NewInputObject(graphql.InputObjectConfig{
			Name: PartName + "WhereInput",
			Fields: graphql.InputObjectConfigFieldMap{
				"name":             {Type: graphql.String, Description: "exact name"},
				"name_not":         {Type: graphql.String},
				"name_contains":    {Type: graphql.String},
				"name_starts_with": {Type: graphql.String},
				"birthDateUtc":     {Type: graphql.DateTime},
				"birthDateUtc_lt":  {Type: graphql.DateTime, Description: "born before"},
				"birthDateUtc_gt":  {Type: graphql.DateTime, Description: "born after"},
				"handedness":       {Type: handednessEnum()},
			},
		})
	})
)

// Aliases maps where-input fields to person_part_index columns.
var Aliases = []gqlschema.Alias{
	{Path: GraphQLField + ".name", Index: IndexTable + ".name"},
	{Path: GraphQLField + ".birthDateUtc", Index: IndexTable + ".birth_date_utc"},
	{Path: GraphQLField + ".handedness", Index: IndexTable + ".handedness"},
}

// PartType describes PersonPart to a schema registrar.
func PartType() gqlschema.PartType {
	return gqlschema.PartType{
		Name:    PartName,
		Field:   GraphQLField,
		Object:  objectType(),
		Where:   whereType(),
		Aliases: Aliases,
		Load:    load,
	}
}

// RegisterGraphQL registers PersonPart's object type, where input and
// index aliases. Calling it again is a no-op.
func RegisterGraphQL(r *gqlschema.Registrar) error {
	return r.Register(PartType())
}

func load(item *hxpart.ContentItem) (any, error) {
	var part PersonPart
	ok, err := item.Get(PartName, &part)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &part, nil
}

func partResolver(fn func(p *PersonPart) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		part, ok := p.Source.(*PersonPart)
		if !ok || part == nil {
			return nil, nil
		}
		return fn(part), nil
	}
}
