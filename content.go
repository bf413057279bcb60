package hxpart

import (
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// ContentItem is the host's addressable unit that parts attach to.
//
// Parts are stored as msgpack payloads keyed by part name, so a content
// item can carry any set of parts without knowing their Go types. Drivers
// read a part with Get and write it back with Apply.
type ContentItem struct {
	ID          string
	ContentType string
	Version     int
	CreatedUTC  time.Time
	ModifiedUTC time.Time

	parts map[string]msgpack.RawMessage
}

// NewContentItem creates an unsaved item of contentType with a fresh ID.
func NewContentItem(contentType string) *ContentItem {
	now := time.Now().UTC()
	return &ContentItem{
		ID:          uuid.NewString(),
		ContentType: contentType,
		CreatedUTC:  now,
		ModifiedUTC: now,
		parts:       make(map[string]msgpack.RawMessage),
	}
}

// Has reports whether the item carries a part named name.
func (ci *ContentItem) Has(name string) bool {
	_, ok := ci.parts[name]
	return ok
}

// Get decodes the part named name into dst. It reports false, leaving
// dst untouched, when the item has no such part.
func (ci *ContentItem) Get(name string, dst any) (bool, error) {
	raw, ok := ci.parts[name]
	if !ok {
		return false, nil
	}
	if err := msgpack.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrPartDecode, name, err)
	}
	return true, nil
}

// Apply stores part under name, replacing any previous payload.
func (ci *ContentItem) Apply(name string, part any) error {
	raw, err := msgpack.Marshal(part)
	if err != nil {
		return fmt.Errorf("hxpart: encode part %s: %w", name, err)
	}
	if ci.parts == nil {
		ci.parts = make(map[string]msgpack.RawMessage)
	}
	ci.parts[name] = raw
	return nil
}

// PartNames returns the names of the attached parts, sorted.
func (ci *ContentItem) PartNames() []string {
	names := make([]string, 0, len(ci.parts))
	for name := range ci.parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the item.
func (ci *ContentItem) Clone() *ContentItem {
	cp := *ci
	cp.parts = make(map[string]msgpack.RawMessage, len(ci.parts))
	for k, v := range ci.parts {
		cp.parts[k] = append(msgpack.RawMessage(nil), v...)
	}
	return &cp
}

// MarshalParts encodes all part payloads as one msgpack document, the
// form stores persist.
func (ci *ContentItem) MarshalParts() ([]byte, error) {
	return msgpack.Marshal(ci.parts)
}

// UnmarshalParts replaces the item's parts from a MarshalParts document.
func (ci *ContentItem) UnmarshalParts(data []byte) error {
	parts := make(map[string]msgpack.RawMessage)
	if len(data) > 0 {
		if err := msgpack.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("%w: %v", ErrPartDecode, err)
		}
	}
	ci.parts = parts
	return nil
}

// replaceParts swaps in parts built on a scratch copy.
func (ci *ContentItem) replaceParts(from *ContentItem) {
	ci.parts = maps.Clone(from.parts)
}
