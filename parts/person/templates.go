package person

import (
	"context"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/pthm/hxpart"
	"github.com/pthm/hxpart/lib/render"
)

// Form layout of the birth date input; parsed back by the form binder.
// Fractional seconds are kept so an unchanged form saves the same instant.
const birthDateLayout = "2006-01-02T15:04:05.999999999"

// RegisterTemplates registers the display and editor templates.
func RegisterTemplates(r *render.Resolver) {
	r.Register(PartName, displayTemplate)
	r.Register(PartName+"_Edit", editTemplate)
}

func displayTemplate(s *hxpart.Shape) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		part, ok := s.Model.(*PersonPart)
		if !ok || part == nil {
			return nil
		}

		var sb strings.Builder
		sb.WriteString(`<div class="person-part">`)
		sb.WriteString(`<h2 class="person-name">`)
		sb.WriteString(html.EscapeString(part.Name))
		sb.WriteString(`</h2><dl>`)
		if !part.BirthDateUTC.IsZero() {
			sb.WriteString(`<dt>Birth date</dt><dd><time datetime="`)
			sb.WriteString(part.BirthDateUTC.UTC().Format("2006-01-02T15:04:05Z"))
			sb.WriteString(`">`)
			sb.WriteString(part.BirthDateUTC.UTC().Format("2 January 2006"))
			sb.WriteString(`</time></dd>`)
		}
		if part.Handedness != "" {
			sb.WriteString(`<dt>Handedness</dt><dd>`)
			sb.WriteString(html.EscapeString(part.Handedness.Label()))
			sb.WriteString(`</dd>`)
		}
		sb.WriteString(`</dl></div>`)

		_, err := io.WriteString(w, sb.String())
		return err
	})
}

func editTemplate(s *hxpart.Shape) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		vm, ok := s.Model.(*PersonPartViewModel)
		if !ok || vm == nil {
			return nil
		}

		var birth string
		if !vm.BirthDateUTC.IsZero() {
			birth = vm.BirthDateUTC.UTC().Format(birthDateLayout)
		}

		var sb strings.Builder
		sb.WriteString(`<fieldset class="person-part-edit"><legend>Person</legend>`)
		input(&sb, s, "name", "Name", "text", vm.Name)
		input(&sb, s, "birthDate", "Birth date (UTC)", "datetime-local", birth)

		field := s.FieldName("handedness")
		sb.WriteString(`<div class="field"><label for="`)
		sb.WriteString(inputID(field))
		sb.WriteString(`">Handedness</label><select id="`)
		sb.WriteString(inputID(field))
		sb.WriteString(`" name="`)
		sb.WriteString(html.EscapeString(field))
		sb.WriteString(`">`)
		for _, h := range Handednesses {
			sb.WriteString(`<option value="`)
			sb.WriteString(string(h))
			sb.WriteString(`"`)
			if h == vm.Handedness {
				sb.WriteString(` selected`)
			}
			sb.WriteString(`>`)
			sb.WriteString(h.Label())
			sb.WriteString(`</option>`)
		}
		sb.WriteString(`</select>`)
		fieldError(&sb, s, "handedness")
		sb.WriteString(`</div></fieldset>`)

		_, err := io.WriteString(w, sb.String())
		return err
	})
}

func input(sb *strings.Builder, s *hxpart.Shape, field, label, typ, value string) {
	if v, ok := s.Attempted(field); ok {
		value = v
	}
	name := s.FieldName(field)
	sb.WriteString(`<div class="field"><label for="`)
	sb.WriteString(inputID(name))
	sb.WriteString(`">`)
	sb.WriteString(label)
	sb.WriteString(`</label><input id="`)
	sb.WriteString(inputID(name))
	sb.WriteString(`" type="`)
	sb.WriteString(typ)
	sb.WriteString(`" name="`)
	sb.WriteString(html.EscapeString(name))
	sb.WriteString(`" value="`)
	sb.WriteString(html.EscapeString(value))
	sb.WriteString(`"`)
	if typ == "datetime-local" {
		sb.WriteString(` step="1"`)
	}
	sb.WriteString(`>`)
	fieldError(sb, s, field)
	sb.WriteString(`</div>`)
}

func fieldError(sb *strings.Builder, s *hxpart.Shape, field string) {
	if msg := s.FieldError(field); msg != "" {
		sb.WriteString(`<span class="field-error">`)
		sb.WriteString(html.EscapeString(msg))
		sb.WriteString(`</span>`)
	}
}

func inputID(name string) string {
	return html.EscapeString(strings.ReplaceAll(name, ".", "_"))
}
