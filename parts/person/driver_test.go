package person

import (
	"context"
	"errors"
	"html"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pthm/hxpart"
	"pgregory.net/rapid"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestDriver(opts ...hxpart.DriverOption) *Driver {
	v := hxpart.NewValidator(hxpart.WithClock(func() time.Time { return testNow }))
	return NewDriver(append([]hxpart.DriverOption{hxpart.WithValidator(v)}, opts...)...)
}

func ada() PersonPart {
	return PersonPart{
		Name:         "Ada",
		BirthDateUTC: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Handedness:   Right,
	}
}

// form returns the editor fields for part as a browser would submit them.
func form(part PersonPart) map[string]string {
	return map[string]string{
		"name":       part.Name,
		"birthDate":  part.BirthDateUTC.Format(birthDateLayout),
		"handedness": string(part.Handedness),
	}
}

func TestDisplayReferencesPart(t *testing.T) {
	d := newTestDriver()
	part := ada()
	before := part

	shape := d.Display(context.Background(), &part, hxpart.DisplayContext{DisplayType: hxpart.DisplayDetail})

	if shape.Type != PartName {
		t.Errorf("Type = %q, want %q", shape.Type, PartName)
	}
	if shape.Model != &part {
		t.Errorf("Model = %v, want the part itself", shape.Model)
	}
	if shape.Location != "" {
		t.Errorf("Location = %q, want placement to decide", shape.Location)
	}
	if part != before {
		t.Errorf("Display mutated part to %+v", part)
	}
}

func TestEditCopiesFields(t *testing.T) {
	d := newTestDriver()
	part := ada()

	shape := d.Edit(context.Background(), &part, hxpart.EditorContext{})

	if shape.Type != "PersonPart_Edit" {
		t.Errorf("Type = %q, want PersonPart_Edit", shape.Type)
	}
	if shape.Location != "Content:1" {
		t.Errorf("Location = %q, want Content:1", shape.Location)
	}
	if shape.Prefix != PartName {
		t.Errorf("Prefix = %q, want %q", shape.Prefix, PartName)
	}
	vm, ok := shape.Model.(*PersonPartViewModel)
	if !ok {
		t.Fatalf("Model = %T", shape.Model)
	}
	if vm.Name != part.Name || !vm.BirthDateUTC.Equal(part.BirthDateUTC) || vm.Handedness != part.Handedness {
		t.Errorf("view model = %+v, want fields of %+v", vm, part)
	}
	if vm.PersonPart != &part {
		t.Error("view model does not point back at the part")
	}
}

func TestEditNamedEditor(t *testing.T) {
	part := ada()
	shape := newTestDriver().Edit(context.Background(), &part, hxpart.EditorContext{Editor: "Compact"})
	if shape.Type != "PersonPart_Edit__Compact" {
		t.Errorf("Type = %q", shape.Type)
	}
}

func TestUpdateValid(t *testing.T) {
	res := hxpart.TestUpdate[PersonPart](newTestDriver(), PersonPart{}, form(ada()))

	if !res.Valid() {
		t.Fatalf("Errors = %v, Err = %v", res.Errors, res.Err)
	}
	if res.Part != ada() {
		t.Errorf("Part = %+v, want %+v", res.Part, ada())
	}
	if res.Part.BirthDateUTC.Location() != time.UTC {
		t.Errorf("BirthDateUTC location = %v, want UTC", res.Part.BirthDateUTC.Location())
	}
	if res.Shape == nil || res.Shape.Type != "PersonPart_Edit" {
		t.Errorf("Shape = %+v, want the editor", res.Shape)
	}
}

func TestUpdateEmptyName(t *testing.T) {
	f := form(ada())
	f["name"] = ""

	res := hxpart.TestUpdate[PersonPart](newTestDriver(), ada(), f)

	if res.Valid() {
		t.Fatal("Valid() = true, want false")
	}
	if len(res.Errors) != 1 || res.Errors[0].Field != "name" {
		t.Fatalf("Errors = %v, want exactly one on name", res.Errors)
	}
	if res.Mutated {
		t.Errorf("part mutated to %+v", res.Part)
	}
	if res.Err != nil {
		t.Errorf("Err = %v, invalid input is not a failure", res.Err)
	}
}

func TestUpdateBlankName(t *testing.T) {
	f := form(ada())
	f["name"] = "   "

	res := hxpart.TestUpdate[PersonPart](newTestDriver(), ada(), f)
	fe, ok := res.Errors.For("name")
	if !ok || fe.Code != "validation_blank" {
		t.Errorf("Errors = %v, want validation_blank on name", res.Errors)
	}
	if res.Mutated {
		t.Error("part mutated")
	}
}

func TestUpdateBirthDateBoundary(t *testing.T) {
	tests := []struct {
		name    string
		birth   time.Time
		wantErr bool
	}{
		{"one second ago", testNow.Add(-time.Second), false},
		{"now", testNow, false},
		{"one second ahead", testNow.Add(time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part := ada()
			part.BirthDateUTC = tt.birth

			res := hxpart.TestUpdate[PersonPart](newTestDriver(), ada(), form(part))
			if got := res.HasError("birthDate"); got != tt.wantErr {
				t.Errorf("HasError(birthDate) = %v, want %v (%v)", got, tt.wantErr, res.Errors)
			}
			if tt.wantErr && res.Mutated {
				t.Error("part mutated by rejected update")
			}
		})
	}
}

func TestUpdateReportsEveryViolation(t *testing.T) {
	res := hxpart.TestUpdate[PersonPart](newTestDriver(), ada(), map[string]string{
		"name":       "",
		"birthDate":  testNow.AddDate(1, 0, 0).Format(birthDateLayout),
		"handedness": "both",
	})

	for _, field := range []string{"name", "birthDate", "handedness"} {
		if !res.HasError(field) {
			t.Errorf("no error on %s: %v", field, res.Errors)
		}
	}
	if len(res.Errors) != 3 {
		t.Errorf("Errors = %v, want one per field", res.Errors)
	}
}

func TestUpdateMalformedDate(t *testing.T) {
	f := form(ada())
	f["birthDate"] = "first of january"

	res := hxpart.TestUpdate[PersonPart](newTestDriver(), ada(), f)

	fe, ok := res.Errors.For("birthDate")
	if !ok {
		t.Fatalf("Errors = %v, want birthDate", res.Errors)
	}
	if fe.Code != hxpart.CodeBinding {
		t.Errorf("code = %q, want %q", fe.Code, hxpart.CodeBinding)
	}
	if len(res.Errors) != 1 {
		t.Errorf("Errors = %v, want only the binding error", res.Errors)
	}
	if res.Mutated {
		t.Error("part mutated")
	}
}

func TestUpdateInvalidKeepsSubmittedValues(t *testing.T) {
	f := form(ada())
	f["name"] = "Grace"
	f["handedness"] = "sideways"

	part := ada()
	res := newTestDriver().Update(context.Background(), &part, hxpart.EditorContext{},
		hxpart.NewTestForm(PartName).
			With("name", f["name"]).
			With("birthDate", f["birthDate"]).
			With("handedness", f["handedness"]).
			Binder())

	vm := res.Shape().Model.(*PersonPartViewModel)
	if vm.Name != "Grace" {
		t.Errorf("re-rendered name = %q, want the submitted value", vm.Name)
	}
	if vm.PersonPart != &part {
		t.Error("re-rendered editor lost the part back-reference")
	}
	if res.Shape().FieldError("handedness") == "" {
		t.Error("re-rendered editor has no handedness error")
	}
	if part.Name != "Ada" {
		t.Errorf("part.Name = %q, want unchanged", part.Name)
	}
}

func TestUpdateMissingPrefix(t *testing.T) {
	res := hxpart.TestUpdate[PersonPart](newTestDriver(hxpart.WithPrefix("")), ada(), form(ada()))

	if !errors.Is(res.Err, hxpart.ErrMissingPrefix) {
		t.Errorf("Err = %v, want ErrMissingPrefix", res.Err)
	}
	if res.Mutated {
		t.Error("part mutated")
	}
}

func TestUpdateCustomPrefix(t *testing.T) {
	d := newTestDriver(hxpart.WithPrefix("Mother"))
	part := PersonPart{}

	b := hxpart.NewTestForm("Mother").
		With("name", "Ada").
		With("birthDate", "2000-01-01T00:00:00").
		With("handedness", "right").
		WithRaw("PersonPart.name", "Wrong").
		Binder()
	res := d.Update(context.Background(), &part, hxpart.EditorContext{}, b)

	if !res.Valid() {
		t.Fatalf("Errors = %v, Err = %v", res.Errors(), res.Err())
	}
	if part.Name != "Ada" {
		t.Errorf("Name = %q, want the prefixed value", part.Name)
	}
}

func TestAge(t *testing.T) {
	p := ada()
	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), 23},
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 24},
	}
	for _, tt := range tests {
		if got := p.Age(tt.now); got != tt.want {
			t.Errorf("Age(%v) = %d, want %d", tt.now, got, tt.want)
		}
	}
	if got := (PersonPart{}).Age(testNow); got != 0 {
		t.Errorf("Age without birth date = %d, want 0", got)
	}
}

func TestHandedness(t *testing.T) {
	for _, h := range Handednesses {
		if !h.Valid() {
			t.Errorf("%q.Valid() = false", h)
		}
	}
	if Handedness("both").Valid() {
		t.Error(`"both".Valid() = true`)
	}
	if Ambidextrous.Label() != "Ambidextrous" {
		t.Errorf("Label() = %q", Ambidextrous.Label())
	}
}

func genPart() *rapid.Generator[PersonPart] {
	return rapid.Custom(func(t *rapid.T) PersonPart {
		nanos := rapid.Int64Range(
			time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano(),
			testNow.UnixNano(),
		).Draw(t, "birth")
		return PersonPart{
			Name:         rapid.StringMatching(`[A-Za-z][A-Za-z '\-]{0,30}`).Draw(t, "name"),
			BirthDateUTC: time.Unix(0, nanos).UTC(),
			Handedness:   rapid.SampledFrom(Handednesses).Draw(t, "handedness"),
		}
	})
}

var (
	renderedName       = regexp.MustCompile(`name="PersonPart\.name" value="([^"]*)"`)
	renderedBirthDate  = regexp.MustCompile(`name="PersonPart\.birthDate" value="([^"]*)"`)
	renderedHandedness = regexp.MustCompile(`<option value="([a-z]+)" selected>`)
)

// submitted renders editor and returns the fields a browser would post
// back without the user touching anything.
func submitted(t *rapid.T, editor *hxpart.Shape) map[string]string {
	var sb strings.Builder
	if err := editTemplate(editor).Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := sb.String()

	f := map[string]string{}
	for field, re := range map[string]*regexp.Regexp{
		"name":       renderedName,
		"birthDate":  renderedBirthDate,
		"handedness": renderedHandedness,
	} {
		m := re.FindStringSubmatch(out)
		if m == nil {
			t.Fatalf("editor has no %s value:\n%s", field, out)
		}
		f[field] = html.UnescapeString(m[1])
	}
	return f
}

func TestUpdateKeepsFractionalSeconds(t *testing.T) {
	part := ada()
	part.BirthDateUTC = time.Date(2000, 1, 1, 0, 0, 0, 500_000_000, time.UTC)

	res := hxpart.TestUpdate[PersonPart](newTestDriver(), ada(), form(part))

	if !res.Valid() {
		t.Fatalf("Errors = %v", res.Errors)
	}
	if !res.Part.BirthDateUTC.Equal(part.BirthDateUTC) {
		t.Errorf("BirthDateUTC = %v, want %v", res.Part.BirthDateUTC, part.BirthDateUTC)
	}
}

func TestPropertyRoundTripIdentity(t *testing.T) {
	d := newTestDriver()
	rapid.Check(t, func(t *rapid.T) {
		original := genPart().Draw(t, "part")
		part := original

		d.Display(context.Background(), &part, hxpart.DisplayContext{})
		editor := d.Edit(context.Background(), &part, hxpart.EditorContext{})

		res := hxpart.TestUpdate[PersonPart](d, part, submitted(t, editor))
		if !res.Valid() {
			t.Fatalf("round trip rejected %+v: %v", original, res.Errors)
		}
		if !res.Part.BirthDateUTC.Equal(original.BirthDateUTC) ||
			res.Part.Name != original.Name ||
			res.Part.Handedness != original.Handedness {
			t.Fatalf("round trip changed %+v into %+v", original, res.Part)
		}
	})
}

func TestPropertyEmptyNameNeverMutates(t *testing.T) {
	d := newTestDriver()
	rapid.Check(t, func(t *rapid.T) {
		part := genPart().Draw(t, "part")
		f := form(genPart().Draw(t, "submitted"))
		f["name"] = ""

		res := hxpart.TestUpdate[PersonPart](d, part, f)
		if !res.HasError("name") {
			t.Fatalf("no name error: %v", res.Errors)
		}
		if res.Mutated {
			t.Fatalf("part mutated from %+v to %+v", part, res.Part)
		}
	})
}
