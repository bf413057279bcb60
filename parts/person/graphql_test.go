package person

import (
	"context"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/pthm/hxpart"
	"github.com/pthm/hxpart/lib/gqlschema"
	"github.com/pthm/hxpart/lib/store/memory"
)

func newPeopleSchema(t *testing.T) graphql.Schema {
	t.Helper()
	ctx := context.Background()
	st := memory.New(Index{})

	people := []PersonPart{
		{Name: "Ada Lovelace", BirthDateUTC: time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC), Handedness: Right},
		{Name: "Alan Turing", BirthDateUTC: time.Date(1912, 6, 23, 0, 0, 0, 0, time.UTC), Handedness: Left},
		{Name: "Grace Hopper", BirthDateUTC: time.Date(1906, 12, 9, 0, 0, 0, 0, time.UTC), Handedness: Ambidextrous},
	}
	for _, p := range people {
		item := hxpart.NewContentItem("Person")
		if err := item.Apply(PartName, p); err != nil {
			t.Fatal(err)
		}
		if err := st.Create(ctx, item); err != nil {
			t.Fatal(err)
		}
	}

	reg := gqlschema.NewRegistrar(st)
	if err := RegisterGraphQL(reg); err != nil {
		t.Fatal(err)
	}
	if err := reg.AddContentType("Person", PartName); err != nil {
		t.Fatal(err)
	}
	schema, err := reg.Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	return schema
}

func queryNames(t *testing.T, schema graphql.Schema, query string) []string {
	t.Helper()
	res := graphql.Do(graphql.Params{Schema: schema, RequestString: query, Context: context.Background()})
	if res.HasErrors() {
		t.Fatalf("query errors: %v", res.Errors)
	}
	list, _ := res.Data.(map[string]any)["person"].([]any)
	names := make([]string, 0, len(list))
	for _, v := range list {
		part, _ := v.(map[string]any)["personPart"].(map[string]any)
		name, _ := part["name"].(string)
		names = append(names, name)
	}
	return names
}

func TestRegisterGraphQLIsIdempotent(t *testing.T) {
	reg := gqlschema.NewRegistrar(nil)
	for i := 0; i < 2; i++ {
		if err := RegisterGraphQL(reg); err != nil {
			t.Fatalf("RegisterGraphQL #%d: %v", i+1, err)
		}
	}
	if err := reg.AddContentType("Person", PartName); err != nil {
		t.Fatal(err)
	}
	schema, err := reg.Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}

	if got := schema.Type(PartName); got != objectType() {
		t.Errorf("PersonPart type = %v, want the shared object type", got)
	}
	if got := schema.Type("PersonPartWhereInput"); got != whereType() {
		t.Errorf("PersonPartWhereInput type = %v, want the shared input type", got)
	}
}

func TestGraphQLQueryPersonPart(t *testing.T) {
	schema := newPeopleSchema(t)

	res := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `{ person(first: 1) { contentType version personPart { name birthDateUtc handedness } } }`,
		Context:       context.Background(),
	})
	if res.HasErrors() {
		t.Fatalf("query errors: %v", res.Errors)
	}
	items := res.Data.(map[string]any)["person"].([]any)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	item := items[0].(map[string]any)
	if item["contentType"] != "Person" || item["version"] != 1 {
		t.Errorf("item = %v", item)
	}
	part := item["personPart"].(map[string]any)
	if part["name"] != "Ada Lovelace" || part["birthDateUtc"] != "1815-12-10T00:00:00Z" || part["handedness"] != "RIGHT" {
		t.Errorf("personPart = %v", part)
	}
}

func TestGraphQLWhereFilters(t *testing.T) {
	schema := newPeopleSchema(t)

	tests := []struct {
		name  string
		where string
		want  []string
	}{
		{"starts with", `{personPart: {name_starts_with: "A"}}`, []string{"Ada Lovelace", "Alan Turing"}},
		{"contains", `{personPart: {name_contains: "Hop"}}`, []string{"Grace Hopper"}},
		{"not", `{personPart: {name_not: "Alan Turing"}}`, []string{"Ada Lovelace", "Grace Hopper"}},
		{"enum", `{personPart: {handedness: LEFT}}`, []string{"Alan Turing"}},
		{"born before", `{personPart: {birthDateUtc_lt: "1900-01-01T00:00:00Z"}}`, []string{"Ada Lovelace"}},
		{"combined", `{personPart: {name_starts_with: "A", birthDateUtc_gt: "1900-01-01T00:00:00Z"}}`, []string{"Alan Turing"}},
		{"no match", `{personPart: {name: "Nobody"}}`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := queryNames(t, schema, `{ person(where: `+tt.where+`) { personPart { name } } }`)
			if len(got) != len(tt.want) {
				t.Fatalf("names = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("names = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestGraphQLPaging(t *testing.T) {
	schema := newPeopleSchema(t)

	got := queryNames(t, schema, `{ person(first: 1, skip: 1) { personPart { name } } }`)
	if len(got) != 1 || got[0] != "Alan Turing" {
		t.Errorf("names = %v, want [Alan Turing]", got)
	}
}
