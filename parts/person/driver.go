package person

import (
	"context"

	"github.com/pthm/hxpart"
)

// Driver displays and edits PersonPart.
type Driver struct {
	*hxpart.PartDriver[PersonPart]
}

// NewDriver creates the PersonPart driver.
func NewDriver(opts ...hxpart.DriverOption) *Driver {
	return &Driver{PartDriver: hxpart.NewDriver[PersonPart](PartName, opts...)}
}

// Display returns the "PersonPart" shape. It has no location: placement
// rules position it, and without a rule it is not shown.
func (d *Driver) Display(ctx context.Context, part *PersonPart, dc hxpart.DisplayContext) *hxpart.Shape {
	return d.View(part)
}

// Edit returns the "PersonPart_Edit" shape, first in the Content zone.
func (d *Driver) Edit(ctx context.Context, part *PersonPart, ec hxpart.EditorContext) *hxpart.Shape {
	return hxpart.EditorShape(d.PartDriver, ec, func(m *PersonPartViewModel) {
		m.PersonPart = part

		m.Name = part.Name
		m.BirthDateUTC = part.BirthDateUTC
		m.Handedness = part.Handedness
	}).Place("Content:1")
}

// Update binds and validates the submitted editor. The part is only
// written when every field is valid.
func (d *Driver) Update(ctx context.Context, part *PersonPart, ec hxpart.EditorContext, b hxpart.Binder) hxpart.Result {
	vm := &PersonPartViewModel{}

	errs, err := d.TryUpdateModel(ctx, b, vm)
	if err != nil {
		return hxpart.Fail(err)
	}
	if len(errs) > 0 {
		return hxpart.Invalid(d.invalidEditor(part, vm, ec), errs)
	}

	part.Name = vm.Name
	part.BirthDateUTC = vm.BirthDateUTC.UTC()
	part.Handedness = vm.Handedness

	return hxpart.OK(d.Edit(ctx, part, ec))
}

// invalidEditor re-renders the editor with what the user typed, so the
// errors appear next to their input rather than the stored values.
func (d *Driver) invalidEditor(part *PersonPart, bound *PersonPartViewModel, ec hxpart.EditorContext) *hxpart.Shape {
	return hxpart.EditorShape(d.PartDriver, ec, func(m *PersonPartViewModel) {
		*m = *bound
		m.PersonPart = part
	}).Place("Content:1")
}
