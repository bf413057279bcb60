package hxpart

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is wrapped by every setup mistake, including those
// reported by packages built on hxpart such as gqlschema.
var ErrConfiguration = errors.New("configuration error")

// Sentinel errors for driver configuration. These are programmer or
// operator mistakes and are never shown to the person filling in a form.
var (
	ErrMissingPrefix      = fmt.Errorf("hxpart: editor prefix is empty: %w", ErrConfiguration)
	ErrDuplicatePrefix    = fmt.Errorf("hxpart: editor prefix already used on content type: %w", ErrConfiguration)
	ErrInvalidTarget      = fmt.Errorf("hxpart: bind target must be a non-nil pointer to a struct: %w", ErrConfiguration)
	ErrUnknownContentType = fmt.Errorf("hxpart: content type has no registered parts: %w", ErrConfiguration)
	ErrPartDecode         = errors.New("hxpart: part payload could not be decoded")
)

// IsConfigurationError reports whether err is a setup mistake rather than
// a user-correctable problem.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// Error codes carried by FieldError.
const (
	CodeBinding = "binding"
	CodeInvalid = "invalid"
)

// FieldError is a single user-correctable problem with one editor field.
// Binding errors keep the submitted text in Value so an editor can show it
// again; the bound model only holds the field's zero value.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Value   string `json:"value,omitempty"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors is the ordered set of field errors produced by binding
// and validation. A nil or empty value means the input is valid.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Error()
	}
	return "hxpart: validation failed: " + strings.Join(msgs, "; ")
}

// For returns the first error recorded for field, if any.
func (v ValidationErrors) For(field string) (FieldError, bool) {
	for _, fe := range v {
		if fe.Field == field {
			return fe, true
		}
	}
	return FieldError{}, false
}

// Has reports whether field has an error.
func (v ValidationErrors) Has(field string) bool {
	_, ok := v.For(field)
	return ok
}

// Prefixed returns a copy with every field name qualified by prefix, the
// way field keys appear in a rendered form.
func (v ValidationErrors) Prefixed(prefix string) ValidationErrors {
	if prefix == "" || len(v) == 0 {
		return v
	}
	out := make(ValidationErrors, len(v))
	for i, fe := range v {
		fe.Field = prefix + "." + fe.Field
		out[i] = fe
	}
	return out
}

// merge combines binding and rule errors so each field reports once.
// Binding errors win: a value that never parsed has nothing to validate.
func merge(binding, rules ValidationErrors) ValidationErrors {
	if len(binding) == 0 {
		return rules
	}
	out := make(ValidationErrors, 0, len(binding)+len(rules))
	out = append(out, binding...)
	for _, fe := range rules {
		if !binding.Has(fe.Field) {
			out = append(out, fe)
		}
	}
	return out
}
