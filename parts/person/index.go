package person

import (
	"github.com/pthm/hxpart"
	"github.com/pthm/hxpart/lib/store"
)

// IndexTable is the index table PersonPart is projected into.
const IndexTable = "person_part_index"

// Index projects PersonPart into person_part_index so items can be
// queried by name, birth date and handedness.
type Index struct{}

var _ store.IndexProvider = Index{}

func (Index) Table() string { return IndexTable }

func (Index) Columns() []store.Column {
	return []store.Column{
		{Name: "name", Type: store.Text},
		{Name: "birth_date_utc", Type: store.Time},
		{Name: "handedness", Type: store.Text},
	}
}

func (Index) Index(item *hxpart.ContentItem) (store.Row, bool, error) {
	var part PersonPart
	ok, err := item.Get(PartName, &part)
	if err != nil || !ok {
		return nil, false, err
	}
	return store.Row{
		"name":           part.Name,
		"birth_date_utc": part.BirthDateUTC.UTC().Truncate(store.TimePrecision),
		"handedness":     string(part.Handedness),
	}, true, nil
}
