// Package hxpart provides display drivers for content parts: typed pieces
// of data attached to generic content items, rendered through named shapes
// and edited through bound, validated view models.
//
// A host (a CMS, an admin UI, an API server) owns storage, routing and
// templates. A part driver owns one part type and answers three questions
// for the host: what should this part look like, what does its editor
// look like, and what happens when the editor is submitted.
//
// # Core Concepts
//
// Drivers embed *PartDriver[P] where P is the part type:
//
//	type PersonPartDriver struct {
//	    *hxpart.PartDriver[PersonPart]
//	}
//
// The capability set is formalized by three interfaces:
//   - Displayer[P]: Display(ctx, *P, DisplayContext) returns a view Shape
//   - Editor[P]: Edit(ctx, *P, EditorContext) returns an editor Shape
//   - Updater[P]: Update(ctx, *P, EditorContext, Binder) returns a Result
//
// Any host that can call these three can drive a part. There is no base
// class hierarchy and no ambient service lookup.
//
// # Shapes and Placement
//
// A Shape is a descriptor, not output: a type name the host resolves to a
// template, a model, and an optional default location ("Content:1"). The
// host's placement rules come first and may move or hide any shape; the
// default applies when no rule matches. A shape with no placement at all
// is simply not shown.
//
// # The Update Pipeline
//
// Update allocates a fresh view model, binds the request into it under the
// driver's prefix, validates it, and only then copies the fields into the
// part:
//
//	vm := &PersonPartViewModel{}
//	errs, err := d.TryUpdateModel(ctx, b, vm)
//	if err != nil {
//	    return hxpart.Fail(err)
//	}
//	if len(errs) > 0 {
//	    return hxpart.Invalid(d.invalidEditor(part, vm, ec), errs)
//	}
//	part.Name = vm.Name
//	return hxpart.OK(d.Edit(ctx, part, ec))
//
// Malformed input never produces a Go error: it becomes a FieldError and
// the editor is re-rendered with it. Go errors are reserved for setup
// mistakes (empty prefix, bad bind target), see IsConfigurationError.
//
// # Registration
//
// Drivers are wired explicitly at startup:
//
//	reg := hxpart.NewRegistry()
//	reg.Add("Person", hxpart.Handle[person.PersonPart](person.NewDriver()))
//
// Registry.UpdateEditor runs every part of an item against a scratch copy
// and only applies the changes when all of them are valid, so a failed
// submission leaves the item exactly as it was.
package hxpart
