// Package person implements the Person content part: a name, a birth date
// and a handedness attached to a content item, with its display driver,
// editor, validation and GraphQL exposure.
package person

import (
	"context"
	"strings"
	"time"

	"github.com/pthm/hxpart"
)

// PartName is the name PersonPart is stored and registered under.
const PartName = "PersonPart"

// Handedness is which hand a person prefers.
type Handedness string

const (
	Left         Handedness = "left"
	Right        Handedness = "right"
	Ambidextrous Handedness = "ambidextrous"
)

// Handednesses lists the valid values in display order.
var Handednesses = []Handedness{Right, Left, Ambidextrous}

// Valid reports whether h is one of the enumerated values.
func (h Handedness) Valid() bool {
	switch h {
	case Left, Right, Ambidextrous:
		return true
	}
	return false
}

// Label returns the human-readable name.
func (h Handedness) Label() string {
	switch h {
	case Left:
		return "Left"
	case Right:
		return "Right"
	case Ambidextrous:
		return "Ambidextrous"
	}
	return string(h)
}

// PersonPart is the data attached to a content item.
type PersonPart struct {
	Name         string     `msgpack:"name"`
	BirthDateUTC time.Time  `msgpack:"birthDateUtc"`
	Handedness   Handedness `msgpack:"handedness"`
}

// Age returns the person's age in whole years at now.
func (p PersonPart) Age(now time.Time) int {
	if p.BirthDateUTC.IsZero() {
		return 0
	}
	b, n := p.BirthDateUTC.UTC(), now.UTC()
	age := n.Year() - b.Year()
	if n.Month() < b.Month() || (n.Month() == b.Month() && n.Day() < b.Day()) {
		age--
	}
	return age
}

// PersonPartViewModel is the editor model for PersonPart. It exists for
// one edit round-trip.
type PersonPartViewModel struct {
	Name         string     `form:"name" validate:"required"`
	BirthDateUTC time.Time  `form:"birthDate" validate:"required,notfuture"`
	Handedness   Handedness `form:"handedness" validate:"oneof=left right ambidextrous"`

	// PersonPart is the part being edited. It is only read from, never
	// bound or validated.
	PersonPart *PersonPart `form:"-" validate:"-"`
}

// ValidateSelf rejects names made only of whitespace, which "required"
// lets through.
func (vm *PersonPartViewModel) ValidateSelf(ctx context.Context) hxpart.ValidationErrors {
	if vm.Name != "" && strings.TrimSpace(vm.Name) == "" {
		return hxpart.ValidationErrors{{
			Field:   "name",
			Message: "name cannot be blank",
			Code:    "validation_blank",
		}}
	}
	return nil
}
