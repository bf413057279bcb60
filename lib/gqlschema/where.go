package gqlschema

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pthm/hxpart/lib/store"
)

// Filter field suffixes, longest first so "_starts_with" is not read as
// a field ending in "_with".
var suffixes = []struct {
	suffix string
	op     store.Op
}{
	{"_starts_with", store.OpStartsWith},
	{"_contains", store.OpContains},
	{"_not", store.OpNe},
	{"_lt", store.OpLt},
	{"_gt", store.OpGt},
}

func splitFilter(key string) (field string, op store.Op) {
	for _, s := range suffixes {
		if f, ok := strings.CutSuffix(key, s.suffix); ok && f != "" {
			return f, s.op
		}
	}
	return key, store.OpEq
}

// compileWhere turns a where argument into store predicates, resolving
// each filter field through its part's index aliases. Null filters are
// skipped.
func compileWhere(where map[string]any, parts []*PartType) ([]store.Predicate, error) {
	var preds []store.Predicate
	for _, pt := range parts {
		filters, ok := where[pt.Field].(map[string]any)
		if !ok {
			continue
		}

		keys := make([]string, 0, len(filters))
		for k := range filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			value := filters[key]
			if value == nil {
				continue
			}
			field, op := splitFilter(key)
			alias, ok := pt.alias(pt.Field + "." + field)
			if !ok {
				// The field's own name may end in a suffix.
				if alias, ok = pt.alias(pt.Field + "." + key); !ok {
					return nil, fmt.Errorf("gqlschema: %s.%s has no index alias", pt.Field, key)
				}
				op = store.OpEq
			}
			table, column := alias.target()
			preds = append(preds, store.Predicate{
				Table:  table,
				Column: column,
				Op:     op,
				Value:  normalize(value),
			})
		}
	}
	return preds, nil
}

func normalize(v any) any {
	switch v := v.(type) {
	case time.Time:
		return v.UTC().Truncate(store.TimePrecision)
	case fmt.Stringer:
		return v.String()
	}
	return v
}
