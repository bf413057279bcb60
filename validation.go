package hxpart

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator runs struct-tag rules against editor view models.
//
// It wraps go-playground/validator and adds the rules content editors
// need, most notably "notfuture" for dates. Field names in the returned
// errors are the `form` tag names, matching the keys the binder reads.
//
//	type ViewModel struct {
//	    Name      string    `form:"name" validate:"required"`
//	    BirthDate time.Time `form:"birthDate" validate:"required,notfuture"`
//	}
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithClock sets the time source used by "notfuture".
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		v.now = now
	}
}

// NewValidator creates a validator with the content editor rules registered.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	v.validate.RegisterTagNameFunc(formFieldName)
	if err := v.validate.RegisterValidation("notfuture", v.notFuture); err != nil {
		panic(fmt.Sprintf("hxpart: register notfuture: %v", err))
	}
	return v
}

// RegisterRule adds a custom tag rule.
func (v *Validator) RegisterRule(tag string, fn validator.Func) error {
	return v.validate.RegisterValidation(tag, fn)
}

// Validate checks model and returns every failing field, in declaration
// order. Models implementing SelfValidator are checked afterwards; their
// errors are only kept for fields the tag rules did not already reject.
func (v *Validator) Validate(ctx context.Context, model any) ValidationErrors {
	var out ValidationErrors

	err := v.validate.StructCtx(ctx, model)
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			out = append(out, FieldError{
				Field:   fe.Field(),
				Message: message(fe),
				Code:    "validation_" + fe.Tag(),
			})
		}
	default:
		// InvalidValidationError: not a struct. Binding already rejects
		// these targets, so reaching here is a caller bug.
		out = append(out, FieldError{Field: "", Message: err.Error(), Code: CodeInvalid})
	}

	if sv, ok := model.(SelfValidator); ok {
		for _, fe := range sv.ValidateSelf(ctx) {
			if !out.Has(fe.Field) {
				out = append(out, fe)
			}
		}
	}
	return out
}

// notFuture accepts times up to and including now.
func (v *Validator) notFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !t.After(v.now())
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "notfuture":
		return fmt.Sprintf("%s cannot be in the future", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s long", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed the %q rule", fe.Field(), fe.Tag())
	}
}

// formFieldName reports the `form` tag name of a struct field, falling back
// to the Go name. Fields tagged "-" are still validated under their Go name.
func formFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
