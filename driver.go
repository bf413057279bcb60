package hxpart

import (
	"context"
	"fmt"
	"log/slog"
)

// PartDriver is the base type embedded by part drivers.
// P is the part type the driver manages.
//
// Drivers embed *PartDriver[P] to gain the part name, editor prefix,
// editor shape naming and the bind+validate step of the update pipeline.
//
//	type PersonPartDriver struct {
//	    *hxpart.PartDriver[PersonPart]
//	}
//
//	func NewDriver() *PersonPartDriver {
//	    return &PersonPartDriver{PartDriver: hxpart.NewDriver[PersonPart]("PersonPart")}
//	}
//
// The prefix defaults to the part name. Override it with WithPrefix when
// the same part type is attached twice to one content type, otherwise
// both editors would read the same form keys.
type PartDriver[P any] struct {
	name      string
	prefix    string
	validator *Validator
	logger    *slog.Logger
}

// DriverOption configures a PartDriver.
type DriverOption func(*driverOptions)

type driverOptions struct {
	prefix    *string
	validator *Validator
	logger    *slog.Logger
}

// WithPrefix overrides the editor prefix.
func WithPrefix(prefix string) DriverOption {
	return func(o *driverOptions) {
		o.prefix = &prefix
	}
}

// WithValidator sets the validator used by TryUpdateModel.
func WithValidator(v *Validator) DriverOption {
	return func(o *driverOptions) {
		o.validator = v
	}
}

// WithLogger sets the driver's logger.
func WithLogger(l *slog.Logger) DriverOption {
	return func(o *driverOptions) {
		o.logger = l
	}
}

// NewDriver creates the base driver for the part named partName.
func NewDriver[P any](partName string, opts ...DriverOption) *PartDriver[P] {
	var o driverOptions
	for _, opt := range opts {
		opt(&o)
	}

	d := &PartDriver[P]{
		name:      partName,
		prefix:    partName,
		validator: o.validator,
		logger:    o.logger,
	}
	if o.prefix != nil {
		d.prefix = *o.prefix
	}
	if d.validator == nil {
		d.validator = NewValidator()
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// PartName returns the name the part is stored under.
func (d *PartDriver[P]) PartName() string {
	return d.name
}

// Prefix returns the form field prefix for this driver's editor.
func (d *PartDriver[P]) Prefix() string {
	return d.prefix
}

// Validator returns the driver's validator.
func (d *PartDriver[P]) Validator() *Validator {
	return d.validator
}

// Logger returns the driver's logger, tagged with the part name.
func (d *PartDriver[P]) Logger() *slog.Logger {
	return d.logger.With("part", d.name)
}

// EditorShapeType returns the editor shape name for ec.
// "PersonPart" becomes "PersonPart_Edit", or "PersonPart_Edit__Compact"
// when the "Compact" editor is requested.
func (d *PartDriver[P]) EditorShapeType(ec EditorContext) string {
	if ec.Editor == "" {
		return d.name + "_Edit"
	}
	return d.name + "_Edit__" + ec.Editor
}

// View creates a display shape for the part, named after it.
func (d *PartDriver[P]) View(part *P) *Shape {
	s := View(d.name, part).WithPrefix(d.prefix)
	s.Part = d.name
	return s
}

// EditorShape creates the editor shape for ec around a view model built by
// init, already carrying the driver's part name and prefix.
func EditorShape[P, M any](d *PartDriver[P], ec EditorContext, init func(*M)) *Shape {
	s := Initialize(d.EditorShapeType(ec), init).WithPrefix(d.prefix)
	s.Part = d.name
	return s
}

// TryUpdateModel binds request data into vm under the driver's prefix and
// validates the result.
//
// Every rule runs; the returned errors hold at most one entry per field,
// binding problems first. The error return is only for configuration
// mistakes (empty prefix, unusable target) and means nothing was bound.
func (d *PartDriver[P]) TryUpdateModel(ctx context.Context, b Binder, vm any) (ValidationErrors, error) {
	if d.prefix == "" {
		return nil, fmt.Errorf("%s: %w", d.name, ErrMissingPrefix)
	}

	bindErrs, err := b.Bind(ctx, d.prefix, vm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.name, err)
	}

	errs := merge(bindErrs, d.validator.Validate(ctx, vm))
	if len(errs) > 0 {
		d.Logger().DebugContext(ctx, "editor rejected", "errors", len(errs))
	}
	return errs, nil
}
