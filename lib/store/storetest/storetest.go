// Package storetest holds the behaviour every store.Store backend must
// share. Backends run it from their own tests:
//
//	func TestStore(t *testing.T) {
//	    storetest.Run(t, func(t *testing.T, providers ...store.IndexProvider) store.Store {
//	        return memory.New(providers...)
//	    })
//	}
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/pthm/hxpart"
	"github.com/pthm/hxpart/lib/store"
	"github.com/pthm/hxpart/parts/person"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opener returns an empty store indexing through providers.
type Opener func(t *testing.T, providers ...store.IndexProvider) store.Store

// Run exercises open's store against the shared cases.
func Run(t *testing.T, open Opener) {
	cases := []struct {
		name string
		fn   func(t *testing.T, st store.Store)
	}{
		{"CreateGet", testCreateGet},
		{"CreateDuplicate", testCreateDuplicate},
		{"GetMissing", testGetMissing},
		{"GetReturnsCopy", testGetReturnsCopy},
		{"Update", testUpdate},
		{"UpdateConflict", testUpdateConflict},
		{"UpdateMissing", testUpdateMissing},
		{"Delete", testDelete},
		{"QueryContentType", testQueryContentType},
		{"QueryPredicates", testQueryPredicates},
		{"QueryWithoutIndexRow", testQueryWithoutIndexRow},
		{"QueryTimePrecision", testQueryTimePrecision},
		{"QueryPaging", testQueryPaging},
		{"QueryInvalid", testQueryInvalid},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			c.fn(t, open(t, person.Index{}))
		})
	}
}

var (
	ada   = person.PersonPart{Name: "Ada Lovelace", BirthDateUTC: date(1815, 12, 10), Handedness: person.Right}
	alan  = person.PersonPart{Name: "Alan Turing", BirthDateUTC: date(1912, 6, 23), Handedness: person.Left}
	grace = person.PersonPart{Name: "Grace Hopper", BirthDateUTC: date(1906, 12, 9), Handedness: person.Ambidextrous}
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newPerson(t *testing.T, part person.PersonPart) *hxpart.ContentItem {
	t.Helper()
	item := hxpart.NewContentItem("Person")
	require.NoError(t, item.Apply(person.PartName, part))
	return item
}

func create(t *testing.T, st store.Store, parts ...person.PersonPart) []*hxpart.ContentItem {
	t.Helper()
	items := make([]*hxpart.ContentItem, len(parts))
	for i, p := range parts {
		items[i] = newPerson(t, p)
		require.NoError(t, st.Create(context.Background(), items[i]))
	}
	return items
}

func partOf(t *testing.T, item *hxpart.ContentItem) person.PersonPart {
	t.Helper()
	var p person.PersonPart
	ok, err := item.Get(person.PartName, &p)
	require.NoError(t, err)
	require.True(t, ok, "item %s has no %s", item.ID, person.PartName)
	return p
}

func names(t *testing.T, items []*hxpart.ContentItem) []string {
	t.Helper()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, partOf(t, item).Name)
	}
	return out
}

func testCreateGet(t *testing.T, st store.Store) {
	ctx := context.Background()
	item := newPerson(t, ada)

	require.NoError(t, st.Create(ctx, item))
	assert.Equal(t, 1, item.Version)

	got, err := st.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, "Person", got.ContentType)
	assert.Equal(t, 1, got.Version)
	assert.WithinDuration(t, item.CreatedUTC, got.CreatedUTC, time.Millisecond)

	p := partOf(t, got)
	assert.Equal(t, ada.Name, p.Name)
	assert.True(t, ada.BirthDateUTC.Equal(p.BirthDateUTC))
	assert.Equal(t, ada.Handedness, p.Handedness)
}

func testCreateDuplicate(t *testing.T, st store.Store) {
	items := create(t, st, ada)

	dup := newPerson(t, alan)
	dup.ID = items[0].ID
	err := st.Create(context.Background(), dup)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err := st.Get(context.Background(), items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, ada.Name, partOf(t, got).Name)
}

func testGetMissing(t *testing.T, st store.Store) {
	_, err := st.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testGetReturnsCopy(t *testing.T, st store.Store) {
	ctx := context.Background()
	items := create(t, st, ada)

	got, err := st.Get(ctx, items[0].ID)
	require.NoError(t, err)
	require.NoError(t, got.Apply(person.PartName, alan))

	again, err := st.Get(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, ada.Name, partOf(t, again).Name)
}

func testUpdate(t *testing.T, st store.Store) {
	ctx := context.Background()
	items := create(t, st, ada)

	item, err := st.Get(ctx, items[0].ID)
	require.NoError(t, err)
	renamed := ada
	renamed.Name = "Augusta Ada King"
	require.NoError(t, item.Apply(person.PartName, renamed))

	require.NoError(t, st.Update(ctx, item))
	assert.Equal(t, 2, item.Version)
	assert.False(t, item.ModifiedUTC.IsZero())

	got, err := st.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "Augusta Ada King", partOf(t, got).Name)

	found, err := st.Query(ctx, "Person", []store.Predicate{
		{Table: person.IndexTable, Column: "name", Op: store.OpEq, Value: "Augusta Ada King"},
	}, store.Page{})
	require.NoError(t, err)
	assert.Len(t, found, 1, "index row was not rewritten")

	stale, err := st.Query(ctx, "Person", []store.Predicate{
		{Table: person.IndexTable, Column: "name", Op: store.OpEq, Value: ada.Name},
	}, store.Page{})
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func testUpdateConflict(t *testing.T, st store.Store) {
	ctx := context.Background()
	items := create(t, st, ada)

	first, err := st.Get(ctx, items[0].ID)
	require.NoError(t, err)
	second, err := st.Get(ctx, items[0].ID)
	require.NoError(t, err)

	require.NoError(t, first.Apply(person.PartName, alan))
	require.NoError(t, st.Update(ctx, first))

	require.NoError(t, second.Apply(person.PartName, grace))
	err = st.Update(ctx, second)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, 1, second.Version, "failed update changed the version")

	got, err := st.Get(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, alan.Name, partOf(t, got).Name)
}

func testUpdateMissing(t *testing.T, st store.Store) {
	item := newPerson(t, ada)
	item.Version = 1
	assert.ErrorIs(t, st.Update(context.Background(), item), store.ErrNotFound)
}

func testDelete(t *testing.T, st store.Store) {
	ctx := context.Background()
	items := create(t, st, ada, alan)

	require.NoError(t, st.Delete(ctx, items[0].ID))

	_, err := st.Get(ctx, items[0].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.Delete(ctx, items[0].ID), store.ErrNotFound)

	found, err := st.Query(ctx, "Person", []store.Predicate{
		{Table: person.IndexTable, Column: "name", Op: store.OpStartsWith, Value: "A"},
	}, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{alan.Name}, names(t, found))
}

func testQueryContentType(t *testing.T, st store.Store) {
	ctx := context.Background()
	create(t, st, ada)

	other := hxpart.NewContentItem("Employee")
	require.NoError(t, other.Apply(person.PartName, alan))
	require.NoError(t, st.Create(ctx, other))

	people, err := st.Query(ctx, "Person", nil, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{ada.Name}, names(t, people))

	employees, err := st.Query(ctx, "Employee", nil, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{alan.Name}, names(t, employees))
}

func testQueryPredicates(t *testing.T, st store.Store) {
	ctx := context.Background()
	create(t, st, ada, alan, grace)

	pred := func(column string, op store.Op, value any) store.Predicate {
		return store.Predicate{Table: person.IndexTable, Column: column, Op: op, Value: value}
	}
	tests := []struct {
		name  string
		preds []store.Predicate
		want  []string
	}{
		{"eq", []store.Predicate{pred("name", store.OpEq, "Alan Turing")}, []string{alan.Name}},
		{"ne", []store.Predicate{pred("name", store.OpNe, "Alan Turing")}, []string{ada.Name, grace.Name}},
		{"contains", []store.Predicate{pred("name", store.OpContains, "Hop")}, []string{grace.Name}},
		{"contains is case sensitive", []store.Predicate{pred("name", store.OpContains, "hop")}, []string{}},
		{"starts with", []store.Predicate{pred("name", store.OpStartsWith, "A")}, []string{ada.Name, alan.Name}},
		{"text lt", []store.Predicate{pred("name", store.OpLt, "B")}, []string{ada.Name, alan.Name}},
		{"time lt", []store.Predicate{pred("birth_date_utc", store.OpLt, date(1900, 1, 1))}, []string{ada.Name}},
		{"time gt", []store.Predicate{pred("birth_date_utc", store.OpGt, date(1900, 1, 1))}, []string{alan.Name, grace.Name}},
		{"time eq", []store.Predicate{pred("birth_date_utc", store.OpEq, date(1906, 12, 9))}, []string{grace.Name}},
		{"conjunction", []store.Predicate{
			pred("name", store.OpStartsWith, "A"),
			pred("handedness", store.OpEq, "left"),
		}, []string{alan.Name}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := st.Query(ctx, "Person", tt.preds, store.Page{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(t, found))
		})
	}
}

func testQueryWithoutIndexRow(t *testing.T, st store.Store) {
	ctx := context.Background()
	create(t, st, ada)
	require.NoError(t, st.Create(ctx, hxpart.NewContentItem("Person")))

	all, err := st.Query(ctx, "Person", nil, store.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := st.Query(ctx, "Person", []store.Predicate{
		{Table: person.IndexTable, Column: "name", Op: store.OpNe, Value: "Nobody"},
	}, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{ada.Name}, names(t, filtered))
}

func testQueryTimePrecision(t *testing.T, st store.Store) {
	ctx := context.Background()
	born := time.Date(1906, 12, 9, 10, 30, 0, 1_500_900, time.UTC)
	precise := grace
	precise.BirthDateUTC = born
	create(t, st, ada, precise)

	pred := func(op store.Op, value time.Time) []store.Predicate {
		return []store.Predicate{{Table: person.IndexTable, Column: "birth_date_utc", Op: op, Value: value}}
	}
	tests := []struct {
		name  string
		preds []store.Predicate
		want  []string
	}{
		{"eq exact", pred(store.OpEq, born), []string{grace.Name}},
		{"eq same millisecond", pred(store.OpEq, born.Add(-400*time.Microsecond)), []string{grace.Name}},
		{"eq next millisecond", pred(store.OpEq, born.Add(time.Millisecond)), []string{}},
		{"lt same millisecond", pred(store.OpLt, born.Add(300*time.Microsecond)), []string{ada.Name}},
		{"gt same millisecond", pred(store.OpGt, born.Add(-400*time.Microsecond)), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := st.Query(ctx, "Person", tt.preds, store.Page{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(t, found))
		})
	}
}

func testQueryPaging(t *testing.T, st store.Store) {
	ctx := context.Background()
	create(t, st, ada, alan, grace)

	tests := []struct {
		page store.Page
		want []string
	}{
		{store.Page{}, []string{ada.Name, alan.Name, grace.Name}},
		{store.Page{First: 2}, []string{ada.Name, alan.Name}},
		{store.Page{First: 1, Skip: 1}, []string{alan.Name}},
		{store.Page{Skip: 2}, []string{grace.Name}},
		{store.Page{Skip: 5}, []string{}},
		{store.Page{First: -1, Skip: -1}, []string{ada.Name, alan.Name, grace.Name}},
	}
	for _, tt := range tests {
		found, err := st.Query(ctx, "Person", nil, tt.page)
		require.NoError(t, err)
		assert.Equal(t, tt.want, names(t, found), "page %+v", tt.page)
	}
}

func testQueryInvalid(t *testing.T, st store.Store) {
	tests := []struct {
		name string
		pred store.Predicate
	}{
		{"unknown table", store.Predicate{Table: "missing", Column: "name", Op: store.OpEq, Value: "x"}},
		{"unknown column", store.Predicate{Table: person.IndexTable, Column: "age", Op: store.OpEq, Value: "x"}},
		{"text column with time", store.Predicate{Table: person.IndexTable, Column: "name", Op: store.OpEq, Value: date(2000, 1, 1)}},
		{"time column with text", store.Predicate{Table: person.IndexTable, Column: "birth_date_utc", Op: store.OpLt, Value: "2000"}},
		{"contains on time", store.Predicate{Table: person.IndexTable, Column: "birth_date_utc", Op: store.OpContains, Value: date(2000, 1, 1)}},
		{"unknown op", store.Predicate{Table: person.IndexTable, Column: "name", Op: "like", Value: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := st.Query(context.Background(), "Person", []store.Predicate{tt.pred}, store.Page{})
			assert.ErrorIs(t, err, store.ErrInvalidQuery)
		})
	}
}
