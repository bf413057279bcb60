package placement

import (
	"strconv"
	"strings"
)

// Location is a parsed placement target such as "Content:1.5#Details".
type Location struct {
	Zone     string
	Position string
	Tab      string
	Hidden   bool
}

// Hide is the placement value that suppresses a shape.
const Hide = "-"

// ParseLocation parses "Zone[:Position][#Tab]". "-" yields a hidden
// location; "" yields the zero Location.
func ParseLocation(s string) Location {
	s = strings.TrimSpace(s)
	if s == "" {
		return Location{}
	}
	if s == Hide {
		return Location{Hidden: true}
	}

	var loc Location
	s, loc.Tab, _ = strings.Cut(s, "#")
	loc.Zone, loc.Position, _ = strings.Cut(s, ":")
	return loc
}

// IsZero reports whether l names no zone and is not hidden.
func (l Location) IsZero() bool {
	return l.Zone == "" && !l.Hidden
}

func (l Location) String() string {
	if l.Hidden {
		return Hide
	}
	s := l.Zone
	if l.Position != "" {
		s += ":" + l.Position
	}
	if l.Tab != "" {
		s += "#" + l.Tab
	}
	return s
}

// ComparePositions orders dotted positions: "1" < "1.5" < "2" < "10".
// Segments compare numerically when both are integers, otherwise as
// strings. An empty position sorts after every explicit one.
func ComparePositions(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}

	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

func compareSegment(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}
