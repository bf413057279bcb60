package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm/hxpart"
	"github.com/pthm/hxpart/lib/store"
	"github.com/pthm/hxpart/lib/store/storetest"
	"github.com/pthm/hxpart/parts/person"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, providers ...store.IndexProvider) *Store {
	t.Helper()
	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "hxpart.db"), providers...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T, providers ...store.IndexProvider) store.Store {
		return openTestStore(t, providers...)
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.Error(t, err)
}

type badIndex struct {
	table  string
	column string
}

func (b badIndex) Table() string { return b.table }

func (b badIndex) Columns() []store.Column {
	return []store.Column{{Name: b.column, Type: store.Text}}
}

func (badIndex) Index(*hxpart.ContentItem) (store.Row, bool, error) { return nil, false, nil }

func TestOpenRejectsUnsafeIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		index badIndex
	}{
		{"table", badIndex{table: "people; DROP TABLE content_items", column: "name"}},
		{"column", badIndex{table: "people", column: "Name"}},
		{"reserved column", badIndex{table: "people", column: "item_id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), filepath.Join(t.TempDir(), "hxpart.db"), tt.index)
			assert.Error(t, err)
		})
	}
}

func TestReopenKeepsItems(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hxpart.db")

	st, err := Open(ctx, path, person.Index{})
	require.NoError(t, err)
	item := hxpart.NewContentItem("Person")
	require.NoError(t, item.Apply(person.PartName, person.PersonPart{Name: "Ada", Handedness: person.Right}))
	require.NoError(t, st.Create(ctx, item))
	require.NoError(t, st.Close())

	st, err = Open(ctx, path, person.Index{})
	require.NoError(t, err)
	defer st.Close()

	found, err := st.Query(ctx, "Person", []store.Predicate{
		{Table: person.IndexTable, Column: "name", Op: store.OpEq, Value: "Ada"},
	}, store.Page{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, item.ID, found[0].ID)
}

func TestTimesStoredAsMillis(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 123_456_789, time.FixedZone("CEST", 2*3600))

	got := fromMillis(toMillis(ts))
	assert.True(t, got.Equal(ts.Truncate(time.Millisecond)), "got %v", got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestDeleteCascadesIndexRows(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t, person.Index{})

	item := hxpart.NewContentItem("Person")
	require.NoError(t, item.Apply(person.PartName, person.PersonPart{Name: "Ada"}))
	require.NoError(t, st.Create(ctx, item))
	require.NoError(t, st.Delete(ctx, item.ID))

	var n int
	require.NoError(t, st.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+person.IndexTable).Scan(&n))
	assert.Zero(t, n)
}
