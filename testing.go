package hxpart

import (
	"context"
	"net/url"
	"reflect"
)

// TestResult holds the outcome of driving an update in a test.
//
// Part is the part after Update returned; Mutated reports whether Update
// changed it. Use the helpers to assert on errors without digging through
// the shape.
type TestResult[P any] struct {
	Part    P
	Shape   *Shape
	Errors  ValidationErrors
	Err     error
	Mutated bool
}

// TestDisplay runs a driver's Display with a background context.
//
//	shape := hxpart.TestDisplay(driver, part)
//	if shape.Type != "PersonPart" { ... }
func TestDisplay[P any](d Driver[P], part P) *Shape {
	return d.Display(context.Background(), &part, DisplayContext{DisplayType: DisplayDetail})
}

// TestEdit runs a driver's Edit with a background context and default editor.
func TestEdit[P any](d Driver[P], part P) *Shape {
	return d.Edit(context.Background(), &part, EditorContext{})
}

// TestUpdate submits form (keys without prefix) to a driver's Update.
//
// Keys are qualified with the driver's prefix the way a rendered editor
// would name its inputs:
//
//	res := hxpart.TestUpdate(driver, part, map[string]string{
//	    "name": "",
//	})
//	if !res.HasError("name") { ... }
func TestUpdate[P any](d Driver[P], part P, form map[string]string) TestResult[P] {
	return TestUpdateWithContext(context.Background(), d, part, form)
}

// TestUpdateWithContext is TestUpdate with a caller-supplied context.
func TestUpdateWithContext[P any](ctx context.Context, d Driver[P], part P, form map[string]string) TestResult[P] {
	values := url.Values{}
	for k, v := range form {
		values.Set(d.Prefix()+"."+k, v)
	}
	before := part

	res := d.Update(ctx, &part, EditorContext{}, NewFormBinder(values))
	return TestResult[P]{
		Part:    part,
		Shape:   res.Shape(),
		Errors:  res.Errors(),
		Err:     res.Err(),
		Mutated: !reflect.DeepEqual(before, part),
	}
}

// Valid reports whether the update succeeded.
func (r TestResult[P]) Valid() bool {
	return r.Err == nil && len(r.Errors) == 0
}

// HasError reports whether field was rejected.
func (r TestResult[P]) HasError(field string) bool {
	return r.Errors.Has(field)
}

// ErrorFields returns the rejected field names in order.
func (r TestResult[P]) ErrorFields() []string {
	fields := make([]string, len(r.Errors))
	for i, fe := range r.Errors {
		fields[i] = fe.Field
	}
	return fields
}

// TestForm builds prefixed form values for tests that need a Binder.
//
//	b := hxpart.NewTestForm("PersonPart").
//	    With("name", "Ada").
//	    With("handedness", "right").
//	    Binder()
type TestForm struct {
	prefix string
	values url.Values
}

// NewTestForm creates a test form for prefix.
func NewTestForm(prefix string) *TestForm {
	return &TestForm{prefix: prefix, values: url.Values{}}
}

// With sets field to value.
func (f *TestForm) With(field, value string) *TestForm {
	f.values.Set(f.prefix+"."+field, value)
	return f
}

// WithRaw sets a key exactly as given, without the prefix.
func (f *TestForm) WithRaw(key, value string) *TestForm {
	f.values.Set(key, value)
	return f
}

// Values returns the built form values.
func (f *TestForm) Values() url.Values {
	return f.values
}

// Binder returns a FormBinder over the built values.
func (f *TestForm) Binder() *FormBinder {
	return NewFormBinder(f.values)
}
