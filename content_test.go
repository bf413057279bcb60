package hxpart

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestNewContentItem(t *testing.T) {
	item := NewContentItem("Person")

	if _, err := uuid.Parse(item.ID); err != nil {
		t.Errorf("ID = %q, want a uuid: %v", item.ID, err)
	}
	if item.ContentType != "Person" {
		t.Errorf("ContentType = %q", item.ContentType)
	}
	if item.CreatedUTC.IsZero() || item.CreatedUTC.Location().String() != "UTC" {
		t.Errorf("CreatedUTC = %v, want set, in UTC", item.CreatedUTC)
	}
	if item.Version != 0 {
		t.Errorf("Version = %d, want 0 before saving", item.Version)
	}
	if len(item.PartNames()) != 0 {
		t.Errorf("PartNames() = %v, want none", item.PartNames())
	}
}

func TestContentItemApplyGet(t *testing.T) {
	item := NewContentItem("Page")
	if err := item.Apply("Note", note{Text: "hello", Count: 3}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !item.Has("Note") {
		t.Error("Has(Note) = false after Apply")
	}
	var got note
	ok, err := item.Get("Note", &got)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if got != (note{Text: "hello", Count: 3}) {
		t.Errorf("Get = %+v", got)
	}

	missing := note{Text: "untouched"}
	ok, err = item.Get("Other", &missing)
	if ok || err != nil {
		t.Errorf("Get(Other) = %v, %v, want false, nil", ok, err)
	}
	if missing.Text != "untouched" {
		t.Error("Get of a missing part wrote to dst")
	}
}

func TestContentItemGetDecodeError(t *testing.T) {
	item := NewContentItem("Page")
	if err := item.Apply("Note", "not a struct"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	var got note
	_, err := item.Get("Note", &got)
	if !errors.Is(err, ErrPartDecode) {
		t.Errorf("err = %v, want ErrPartDecode", err)
	}
}

func TestContentItemCloneIsIndependent(t *testing.T) {
	item := NewContentItem("Page")
	_ = item.Apply("Note", note{Text: "original"})

	cp := item.Clone()
	_ = cp.Apply("Note", note{Text: "changed"})
	_ = cp.Apply("Extra", note{})

	var got note
	_, _ = item.Get("Note", &got)
	if got.Text != "original" {
		t.Errorf("original item changed through clone: %+v", got)
	}
	if item.Has("Extra") {
		t.Error("clone added a part to the original")
	}
}

func TestContentItemMarshalParts(t *testing.T) {
	item := NewContentItem("Page")
	_ = item.Apply("A", note{Text: "a"})
	_ = item.Apply("B", note{Text: "b", Count: 2})

	data, err := item.MarshalParts()
	if err != nil {
		t.Fatalf("MarshalParts: %v", err)
	}

	var loaded ContentItem
	if err := loaded.UnmarshalParts(data); err != nil {
		t.Fatalf("UnmarshalParts: %v", err)
	}
	if !reflect.DeepEqual(loaded.PartNames(), []string{"A", "B"}) {
		t.Errorf("PartNames() = %v", loaded.PartNames())
	}
	var b note
	_, _ = loaded.Get("B", &b)
	if b != (note{Text: "b", Count: 2}) {
		t.Errorf("B = %+v", b)
	}

	if err := loaded.UnmarshalParts([]byte{0xc1}); !errors.Is(err, ErrPartDecode) {
		t.Errorf("UnmarshalParts(garbage) = %v, want ErrPartDecode", err)
	}
}
