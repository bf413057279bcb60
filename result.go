package hxpart

// Result is returned from Update to tell the host what happened.
//
// There are three outcomes:
//
//	// Valid: fields were copied into the part, host should persist.
//	return hxpart.OK(c.Edit(ctx, part, ec))
//
//	// Invalid: part untouched, shape carries the bad input and errors.
//	return hxpart.Invalid(shape, errs)
//
//	// Misconfigured: a programmer error the host should surface as fatal.
//	return hxpart.Fail(hxpart.ErrMissingPrefix)
//
// Invalid input is not an error in the Go sense; it is a normal outcome
// of a form round-trip and is reported through Errors, not Err.
type Result struct {
	shape  *Shape
	errors ValidationErrors
	err    error
}

// OK creates a successful result.
func OK(shape *Shape) Result {
	return Result{shape: shape}
}

// Invalid creates a result for input that failed binding or validation.
// The errors are attached to the shape so the editor can show them.
func Invalid(shape *Shape, errs ValidationErrors) Result {
	if shape != nil {
		shape.WithErrors(errs)
	}
	return Result{shape: shape, errors: errs}
}

// Fail creates a result for a configuration error.
func Fail(err error) Result {
	return Result{err: err}
}

// Shape returns the editor shape to render.
func (r Result) Shape() *Shape {
	return r.shape
}

// Errors returns the field errors of an invalid result.
func (r Result) Errors() ValidationErrors {
	return r.errors
}

// Err returns the configuration error, if any.
func (r Result) Err() error {
	return r.err
}

// Valid reports whether the update was applied.
func (r Result) Valid() bool {
	return r.err == nil && len(r.errors) == 0
}
