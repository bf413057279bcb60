package hxpart

import "context"

// DisplayContext carries what the host knows when building a display.
type DisplayContext struct {
	ContentType string
	DisplayType string // Detail, Summary
}

// EditorContext carries what the host knows when building or updating an
// editor. Editor names an alternate editor template; empty means default.
type EditorContext struct {
	ContentType string
	Editor      string
	IsNew       bool
}

// Displayer is implemented by drivers to produce a part's read-only shape.
//
// Display must be pure: it reads the part and returns a descriptor. It
// never fails for a valid part; missing placement is handled by the host.
type Displayer[P any] interface {
	Display(ctx context.Context, part *P, dc DisplayContext) *Shape
}

// Editor is implemented by drivers to produce a part's editor shape.
//
// The editor model is a copy of the part's fields plus a back-reference
// to the part. Edit must not persist anything.
type Editor[P any] interface {
	Edit(ctx context.Context, part *P, ec EditorContext) *Shape
}

// Updater is implemented by drivers to bind, validate and apply a
// submitted editor.
//
// On invalid input the part must be left untouched and the result must
// carry the re-rendered editor with its errors. On success the driver
// copies the bound fields into part; persisting it is the host's job.
type Updater[P any] interface {
	Update(ctx context.Context, part *P, ec EditorContext, b Binder) Result
}

// Driver is the full capability set a host needs to drive a part.
type Driver[P any] interface {
	Displayer[P]
	Editor[P]
	Updater[P]
	PartName() string
	Prefix() string
}

// Binder populates a target from inbound request data.
//
// Keys are looked up under prefix ("<prefix>.<field>"). Malformed values
// are reported as field errors, never as the returned error; the error
// return is reserved for misuse such as a nil target.
type Binder interface {
	Bind(ctx context.Context, prefix string, target any) (ValidationErrors, error)
}

// SelfValidator is implemented by view models that need checks struct
// tags cannot express. It runs after the tag rules.
type SelfValidator interface {
	ValidateSelf(ctx context.Context) ValidationErrors
}
