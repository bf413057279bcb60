package hxpart

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/ajg/form"
)

// FormBinder binds url-encoded form values into editor view models.
//
// Keys are read as "<prefix>.<field>" where field is the target's `form`
// tag name. Each field is decoded on its own so one malformed value does
// not hide problems with the others: a failure becomes a FieldError with
// code "binding" on that field and the field keeps its zero value. Empty
// values are skipped so "required" rules report them instead.
type FormBinder struct {
	values url.Values
}

// NewFormBinder creates a binder over already-parsed values.
func NewFormBinder(values url.Values) *FormBinder {
	return &FormBinder{values: values}
}

// NewRequestBinder parses r's form body and query string.
func NewRequestBinder(r *http.Request) (*FormBinder, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("hxpart: parse form: %w", err)
	}
	return &FormBinder{values: r.Form}, nil
}

// Values returns the underlying form values.
func (b *FormBinder) Values() url.Values {
	return b.values
}

// Bind implements Binder.
func (b *FormBinder) Bind(ctx context.Context, prefix string, target any) (ValidationErrors, error) {
	if prefix == "" {
		return nil, ErrMissingPrefix
	}
	rv := reflect.ValueOf(target)
	if target == nil || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %T", ErrInvalidTarget, target)
	}

	scoped := b.scoped(prefix)
	keys := make([]string, 0, len(scoped))
	for k := range scoped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dec := form.NewDecoder(nil)
	dec.IgnoreUnknownKeys(true)

	var errs ValidationErrors
	for _, k := range keys {
		vs := scoped[k]
		if len(vs) == 0 || vs[0] == "" {
			continue
		}
		if err := dec.DecodeValues(target, url.Values{k: vs}); err != nil {
			errs = append(errs, FieldError{
				Field:   k,
				Message: fmt.Sprintf("%s has an invalid value", k),
				Code:    CodeBinding,
				Value:   vs[0],
			})
		}
	}
	return errs, nil
}

// scoped returns the values under prefix with the prefix stripped.
func (b *FormBinder) scoped(prefix string) url.Values {
	p := prefix + "."
	out := url.Values{}
	for k, vs := range b.values {
		if rest, ok := strings.CutPrefix(k, p); ok && rest != "" {
			out[rest] = vs
		}
	}
	return out
}
