package store

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pthm/hxpart"
)

// ColumnType is the type of an index column. Text columns hold strings,
// Time columns hold UTC time.Time values.
type ColumnType int

const (
	Text ColumnType = iota
	Time
)

// Column describes one index column.
type Column struct {
	Name string
	Type ColumnType
}

// Row is one index row, keyed by column name.
type Row map[string]any

// IndexProvider projects a part into a row of its index table.
type IndexProvider interface {
	Table() string
	Columns() []Column
	// Index returns the row for item. ok is false when item does not
	// carry the part, in which case the item has no row in the table.
	Index(item *hxpart.ContentItem) (row Row, ok bool, err error)
}

// TimePrecision is the resolution of Time columns. Every backend compares
// times truncated to it, matching what SQLite keeps.
const TimePrecision = time.Millisecond

// Op is a predicate comparison.
type Op string

const (
	OpEq         Op = "eq"
	OpNe         Op = "ne"
	OpContains   Op = "contains"
	OpStartsWith Op = "starts_with"
	OpLt         Op = "lt"
	OpGt         Op = "gt"
)

// Predicate constrains one index column. An item matches when its row in
// Table satisfies Column Op Value; an item with no row never matches.
type Predicate struct {
	Table  string
	Column string
	Op     Op
	Value  any
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s.%s %s %v", p.Table, p.Column, p.Op, p.Value)
}

// Match evaluates p against row.
func (p Predicate) Match(row Row) bool {
	got, ok := row[p.Column]
	if !ok {
		return false
	}

	switch want := p.Value.(type) {
	case string:
		s, ok := got.(string)
		if !ok {
			return false
		}
		switch p.Op {
		case OpEq:
			return s == want
		case OpNe:
			return s != want
		case OpContains:
			return strings.Contains(s, want)
		case OpStartsWith:
			return strings.HasPrefix(s, want)
		case OpLt:
			return s < want
		case OpGt:
			return s > want
		}
	case time.Time:
		t, ok := got.(time.Time)
		if !ok {
			return false
		}
		t, want = t.Truncate(TimePrecision), want.Truncate(TimePrecision)
		switch p.Op {
		case OpEq:
			return t.Equal(want)
		case OpNe:
			return !t.Equal(want)
		case OpLt:
			return t.Before(want)
		case OpGt:
			return t.After(want)
		}
	}
	return false
}

// MatchAll reports whether every predicate matches its table's row.
func MatchAll(preds []Predicate, rows map[string]Row) bool {
	for _, p := range preds {
		row, ok := rows[p.Table]
		if !ok || !p.Match(row) {
			return false
		}
	}
	return true
}

// CheckPredicates rejects predicates that name an unknown table or
// column, or whose operator or value does not suit the column type.
// Backends call it before touching storage, so identifiers in a checked
// predicate are safe to use in SQL.
func CheckPredicates(preds []Predicate, providers []IndexProvider) error {
	for _, p := range preds {
		i := slices.IndexFunc(providers, func(ip IndexProvider) bool { return ip.Table() == p.Table })
		if i < 0 {
			return fmt.Errorf("%w: unknown index table %q", ErrInvalidQuery, p.Table)
		}
		cols := providers[i].Columns()
		j := slices.IndexFunc(cols, func(c Column) bool { return c.Name == p.Column })
		if j < 0 {
			return fmt.Errorf("%w: unknown column %s.%s", ErrInvalidQuery, p.Table, p.Column)
		}

		switch cols[j].Type {
		case Text:
			if _, ok := p.Value.(string); !ok {
				return fmt.Errorf("%w: %s needs a string, got %T", ErrInvalidQuery, p, p.Value)
			}
			if !slices.Contains([]Op{OpEq, OpNe, OpContains, OpStartsWith, OpLt, OpGt}, p.Op) {
				return fmt.Errorf("%w: %s: unsupported operator", ErrInvalidQuery, p)
			}
		case Time:
			if _, ok := p.Value.(time.Time); !ok {
				return fmt.Errorf("%w: %s needs a time, got %T", ErrInvalidQuery, p, p.Value)
			}
			if !slices.Contains([]Op{OpEq, OpNe, OpLt, OpGt}, p.Op) {
				return fmt.Errorf("%w: %s: unsupported operator", ErrInvalidQuery, p)
			}
		}
	}
	return nil
}

// IndexRows projects item through every provider.
func IndexRows(item *hxpart.ContentItem, providers []IndexProvider) (map[string]Row, error) {
	rows := make(map[string]Row, len(providers))
	for _, ip := range providers {
		row, ok, err := ip.Index(item)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", ip.Table(), err)
		}
		if ok {
			rows[ip.Table()] = row
		}
	}
	return rows, nil
}
