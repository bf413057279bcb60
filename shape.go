package hxpart

// Display types understood by the rendering side.
const (
	DisplayDetail  = "Detail"
	DisplaySummary = "Summary"
	DisplayEdit    = "Edit"
)

// Shape is the named view descriptor a driver hands back to the host.
//
// A shape says what to render (Type resolves to a template on the host)
// and with which data (Model). It does not render anything itself. The
// host's placement rules decide the zone and position; a Location such as
// "Content:1" is only used when no rule matches.
//
//	return hxpart.View("PersonPart", part)
//	return hxpart.Initialize[ViewModel]("PersonPart_Edit", fill).Place("Content:1")
type Shape struct {
	Type           string
	Part           string
	Model          any
	Location       string
	Prefix         string
	Differentiator string
	DisplayType    string

	// Errors is set when an editor shape is re-rendered after a failed
	// update, so the template can show them next to the fields.
	Errors ValidationErrors
}

// View creates a display shape for model.
func View(shapeType string, model any) *Shape {
	return &Shape{Type: shapeType, Model: model}
}

// Initialize creates a shape whose model is a fresh *M populated by init.
//
// Use it for editors, where the model is a view model built from the part
// rather than the part itself:
//
//	hxpart.Initialize[PersonPartViewModel](shapeType, func(m *PersonPartViewModel) {
//	    m.Name = part.Name
//	})
func Initialize[M any](shapeType string, init func(*M)) *Shape {
	m := new(M)
	if init != nil {
		init(m)
	}
	return &Shape{Type: shapeType, Model: m}
}

// Place sets the default location, used when no placement rule matches.
func (s *Shape) Place(location string) *Shape {
	s.Location = location
	return s
}

// WithPrefix sets the form field prefix used by editor templates.
func (s *Shape) WithPrefix(prefix string) *Shape {
	s.Prefix = prefix
	return s
}

// WithDifferentiator distinguishes shapes of the same type within one
// content item, e.g. two text fields on different parts.
func (s *Shape) WithDifferentiator(d string) *Shape {
	s.Differentiator = d
	return s
}

// WithErrors attaches validation errors to an editor shape.
func (s *Shape) WithErrors(errs ValidationErrors) *Shape {
	s.Errors = errs
	return s
}

// FieldName returns the form key for field inside this shape's prefix.
func (s *Shape) FieldName(field string) string {
	if s.Prefix == "" {
		return field
	}
	return s.Prefix + "." + field
}

// Attempted returns the text submitted for field when it failed to bind.
func (s *Shape) Attempted(field string) (string, bool) {
	if fe, ok := s.Errors.For(field); ok && fe.Code == CodeBinding {
		return fe.Value, true
	}
	return "", false
}

// FieldError returns the message recorded for field, or "".
func (s *Shape) FieldError(field string) string {
	if fe, ok := s.Errors.For(field); ok {
		return fe.Message
	}
	return ""
}
