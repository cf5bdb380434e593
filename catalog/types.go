package catalog

import (
	"fmt"
	"strings"
)

// ValueKind selects how a field's bytes are decoded.
type ValueKind int

const (
	Numeric ValueKind = iota
	Flag
	TextName
	TextCountry
)

func (k ValueKind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Flag:
		return "flag"
	case TextName:
		return "name"
	case TextCountry:
		return "country"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k ValueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ValueKind) UnmarshalText(b []byte) error {
	v, err := parseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func parseKind(s string) (ValueKind, error) {
	switch strings.ToLower(s) {
	case "", "numeric":
		return Numeric, nil
	case "flag", "bool":
		return Flag, nil
	case "name":
		return TextName, nil
	case "country":
		return TextCountry, nil
	}
	return Numeric, fmt.Errorf("unknown value kind %q", s)
}

// Category selects which per-slot sub-object a unit field is relative to.
type Category int

const (
	None Category = iota
	Building
	Tank
	Infantry
	Aircraft
)

// Categories lists the unit categories in catalog order.
var Categories = []Category{Building, Tank, Infantry, Aircraft}

func (c Category) String() string {
	switch c {
	case None:
		return "None"
	case Building:
		return "Building"
	case Tank:
		return "Tank"
	case Infantry:
		return "Infantry"
	case Aircraft:
		return "Aircraft"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	if strings.EqualFold(string(b), None.String()) {
		*c = None
		return nil
	}
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCategory maps a catalog key to a Category, ignoring case.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return None, fmt.Errorf("unknown category %q", s)
}

// Version is the game edition the target runs.
type Version int

const (
	Yr Version = iota
	Ra2
)

func (v Version) String() string {
	switch v {
	case Yr:
		return "Yr"
	case Ra2:
		return "Ra2"
	default:
		return fmt.Sprintf("Version(%d)", int(v))
	}
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(b []byte) error {
	p, err := ParseVersion(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

// ParseVersion maps "yr" or "ra2" to a Version, ignoring case.
func ParseVersion(s string) (Version, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yr":
		return Yr, nil
	case "ra2":
		return Ra2, nil
	}
	return Yr, fmt.Errorf("unknown version %q", s)
}

// DefaultIndex is the display order of unit fields that do not set one.
const DefaultIndex = 99

// FieldDescriptor names one field of a player slot. Offset is relative to
// the slot base (Category None) or to the category array base.
type FieldDescriptor struct {
	Name        string
	Offset      uint32
	Kind        ValueKind
	Category    Category
	Visible     bool
	Index       int
	ExcludedFor *Version
}

// ExcludedIn reports whether the descriptor must be dropped for v.
func (d FieldDescriptor) ExcludedIn(v Version) bool {
	return d.ExcludedFor != nil && *d.ExcludedFor == v
}
