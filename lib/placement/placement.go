// Package placement decides where shapes go.
//
// Placement files map a shape type to an ordered list of rules. Each rule
// names a location and may restrict itself to a display type, content
// types, content parts or a differentiator. The first rule whose filters
// all match wins:
//
//	{
//	  "PersonPart": [
//	    { "place": "Content:1" }
//	  ],
//	  "TextField": [
//	    { "place": "Content:2", "differentiator": "PersonPart-Biography" }
//	  ],
//	  "PersonPart_Edit": [
//	    { "place": "-", "contentType": "Archived" }
//	  ]
//	}
//
// Files are read with a YAML decoder, so both YAML and JSON work (JSON
// files must be indented with spaces).
package placement

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRule is returned for rules that cannot be used.
var ErrInvalidRule = errors.New("placement: invalid rule")

// StringList accepts either a single string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	return fmt.Errorf("%w: expected string or list at line %d", ErrInvalidRule, node.Line)
}

func (s StringList) matches(v string) bool {
	return len(s) == 0 || slices.Contains(s, v)
}

// Rule places one shape type under optional filters.
type Rule struct {
	Place          string     `yaml:"place"`
	DisplayType    string     `yaml:"displayType,omitempty"`
	ContentType    StringList `yaml:"contentType,omitempty"`
	ContentPart    StringList `yaml:"contentPart,omitempty"`
	Differentiator string     `yaml:"differentiator,omitempty"`
}

// Context describes the shape being placed.
type Context struct {
	ShapeType      string
	DisplayType    string
	ContentType    string
	ContentPart    string
	Differentiator string
}

func (r Rule) matches(c Context) bool {
	return (r.DisplayType == "" || r.DisplayType == c.DisplayType) &&
		(r.Differentiator == "" || r.Differentiator == c.Differentiator) &&
		r.ContentType.matches(c.ContentType) &&
		r.ContentPart.matches(c.ContentPart)
}

// Rules is a set of placement rules keyed by shape type. It is safe for
// concurrent reads; Merge is meant for startup.
type Rules struct {
	mu      sync.RWMutex
	byShape map[string][]Rule
}

// New creates an empty rule set.
func New() *Rules {
	return &Rules{byShape: make(map[string][]Rule)}
}

// Load reads a placement document.
func Load(r io.Reader) (*Rules, error) {
	doc := make(map[string][]Rule)
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("placement: decode: %w", err)
	}

	rules := New()
	for shape, list := range doc {
		for i, rule := range list {
			if rule.Place == "" {
				return nil, fmt.Errorf("%w: %s[%d] has no place", ErrInvalidRule, shape, i)
			}
		}
		rules.byShape[shape] = list
	}
	return rules, nil
}

// LoadFile reads a placement file from disk.
func LoadFile(path string) (*Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("placement: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Add appends rules for shapeType.
func (r *Rules) Add(shapeType string, rules ...Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byShape[shapeType] = append(r.byShape[shapeType], rules...)
}

// Merge appends every rule of other after the rules already present, so
// earlier files take precedence.
func (r *Rules) Merge(other *Rules) {
	other.mu.RLock()
	defer other.mu.RUnlock()
	for shape, list := range other.byShape {
		r.Add(shape, list...)
	}
}

// Resolve returns the location of the first rule matching c.
func (r *Rules) Resolve(c Context) (Location, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rule := range r.byShape[c.ShapeType] {
		if rule.matches(c) {
			return ParseLocation(rule.Place), true
		}
	}
	return Location{}, false
}
