package hxpart

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func newPageRegistry() *Registry {
	reg := NewRegistry()
	reg.Add("Page",
		Handle[note](newNoteDriver("Title")),
		Handle[note](newNoteDriver("Body")),
	)
	return reg
}

func pageItem(t *testing.T, title, body string) *ContentItem {
	t.Helper()
	item := NewContentItem("Page")
	if err := item.Apply("Title", note{Text: title}); err != nil {
		t.Fatal(err)
	}
	if err := item.Apply("Body", note{Text: body}); err != nil {
		t.Fatal(err)
	}
	return item
}

func partText(t *testing.T, item *ContentItem, name string) string {
	t.Helper()
	var n note
	if _, err := item.Get(name, &n); err != nil {
		t.Fatal(err)
	}
	return n.Text
}

func expectPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, contains) {
			t.Errorf("panic = %v, want it to mention %q", r, contains)
		}
	}()
	fn()
}

func TestRegistryAddPanicsOnDuplicatePrefix(t *testing.T) {
	reg := NewRegistry()
	reg.Add("Page", Handle[note](newNoteDriver("Title")))

	expectPanic(t, ErrDuplicatePrefix.Error(), func() {
		reg.Add("Page", Handle[note](newNoteDriver("Subtitle", WithPrefix("Title"))))
	})
}

func TestRegistryAddPanicsOnEmptyPrefix(t *testing.T) {
	expectPanic(t, ErrMissingPrefix.Error(), func() {
		NewRegistry().Add("Page", Handle[note](newNoteDriver("Title", WithPrefix(""))))
	})
}

func TestRegistrySamePrefixOnDifferentContentTypes(t *testing.T) {
	reg := NewRegistry()
	reg.Add("Page", Handle[note](newNoteDriver("Title")))
	reg.Add("Post", Handle[note](newNoteDriver("Title")))

	if got := reg.ContentTypes(); !reflect.DeepEqual(got, []string{"Page", "Post"}) {
		t.Errorf("ContentTypes() = %v", got)
	}
}

func TestRegistryUnknownContentType(t *testing.T) {
	reg := newPageRegistry()

	_, err := reg.BuildDisplay(context.Background(), NewContentItem("Missing"), DisplayDetail)
	if !errors.Is(err, ErrUnknownContentType) {
		t.Errorf("err = %v, want ErrUnknownContentType", err)
	}
}

func TestRegistryBuildDisplay(t *testing.T) {
	reg := newPageRegistry()
	item := pageItem(t, "Hello", "World")

	shapes, err := reg.BuildDisplay(context.Background(), item, DisplaySummary)
	if err != nil {
		t.Fatalf("BuildDisplay: %v", err)
	}
	if len(shapes) != 2 {
		t.Fatalf("len(shapes) = %d, want 2", len(shapes))
	}
	for i, name := range []string{"Title", "Body"} {
		s := shapes[i]
		if s.Type != name || s.Part != name || s.DisplayType != DisplaySummary {
			t.Errorf("shape %d = %+v", i, s)
		}
	}
	if m := shapes[0].Model.(*note); m.Text != "Hello" {
		t.Errorf("Title model = %+v", m)
	}
}

func TestRegistryBuildEditorForNewItem(t *testing.T) {
	reg := newPageRegistry()
	item := NewContentItem("Page")

	shapes, err := reg.BuildEditor(context.Background(), item, EditorContext{IsNew: true})
	if err != nil {
		t.Fatalf("BuildEditor: %v", err)
	}
	for _, s := range shapes {
		if s.DisplayType != DisplayEdit {
			t.Errorf("%s DisplayType = %q, want Edit", s.Type, s.DisplayType)
		}
		if vm := s.Model.(*noteViewModel); vm.Text != "" {
			t.Errorf("%s model = %+v, want zero part", s.Type, vm)
		}
	}
}

func TestRegistryUpdateEditorCommitsWhenAllValid(t *testing.T) {
	reg := newPageRegistry()
	item := pageItem(t, "Old title", "Old body")

	b := NewTestForm("Title").With("text", "New title").
		WithRaw("Body.text", "New body").
		WithRaw("Body.count", "2").
		Binder()
	out, err := reg.UpdateEditor(context.Background(), item, EditorContext{}, b)
	if err != nil {
		t.Fatalf("UpdateEditor: %v", err)
	}
	if !out.Valid() {
		t.Fatalf("outcome errors = %v", out.Errors)
	}
	if got := partText(t, item, "Title"); got != "New title" {
		t.Errorf("Title = %q", got)
	}
	var body note
	_, _ = item.Get("Body", &body)
	if body != (note{Text: "New body", Count: 2}) {
		t.Errorf("Body = %+v", body)
	}
}

func TestRegistryUpdateEditorIsAllOrNothing(t *testing.T) {
	reg := newPageRegistry()
	item := pageItem(t, "Old title", "Old body")
	version := item.Version

	b := NewTestForm("Title").With("text", "New title").
		WithRaw("Body.text", "").
		Binder()
	out, err := reg.UpdateEditor(context.Background(), item, EditorContext{}, b)
	if err != nil {
		t.Fatalf("UpdateEditor: %v", err)
	}
	if out.Valid() {
		t.Fatal("outcome valid, want Body rejected")
	}
	if !out.Errors.Has("Body.text") {
		t.Errorf("Errors = %v, want Body.text", out.Errors)
	}
	if out.Errors.Has("Title.text") {
		t.Error("valid part reported an error")
	}

	if got := partText(t, item, "Title"); got != "Old title" {
		t.Errorf("Title = %q, want unchanged", got)
	}
	if got := partText(t, item, "Body"); got != "Old body" {
		t.Errorf("Body = %q, want unchanged", got)
	}
	if item.Version != version {
		t.Errorf("Version = %d, want %d", item.Version, version)
	}

	if len(out.Shapes) != 2 {
		t.Fatalf("len(Shapes) = %d, want both editors for re-render", len(out.Shapes))
	}
	if msg := out.Shapes[1].FieldError("text"); msg == "" {
		t.Error("Body editor shape does not carry its error")
	}
}

func TestRegistryUpdateEditorConfigurationError(t *testing.T) {
	reg := NewRegistry()
	// Add rejects empty prefixes; attach directly to reach the update check.
	reg.types["Page"] = []PartHandle{Handle[note](newNoteDriver("Title", WithPrefix("")))}

	item := NewContentItem("Page")
	_, err := reg.UpdateEditor(context.Background(), item, EditorContext{}, NewTestForm("Title").Binder())
	if !errors.Is(err, ErrMissingPrefix) {
		t.Errorf("err = %v, want ErrMissingPrefix", err)
	}
}
