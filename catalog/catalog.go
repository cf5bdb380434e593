// Package catalog loads the field descriptors that tell the snapshot
// builder what to read from each player slot.
package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the loaded field set. It is read-only once built.
type Catalog struct {
	Panel []FieldDescriptor
	Units []FieldDescriptor
}

// hexOffset accepts "0x1a4", "1a4" or a plain integer.
type hexOffset uint32

func (h *hexOffset) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: offset must be a scalar", node.Line)
	}
	var (
		v   uint64
		err error
	)
	if node.Tag == "!!int" {
		v, err = strconv.ParseUint(node.Value, 0, 32)
	} else {
		s := strings.TrimPrefix(strings.TrimPrefix(node.Value, "0x"), "0X")
		v, err = strconv.ParseUint(s, 16, 32)
	}
	if err != nil {
		return fmt.Errorf("line %d: bad offset %q: %w", node.Line, node.Value, err)
	}
	*h = hexOffset(v)
	return nil
}

// flexBool accepts true/false as well as the 0/1 the unit documents use.
type flexBool bool

func (b *flexBool) UnmarshalYAML(node *yaml.Node) error {
	switch strings.ToLower(node.Value) {
	case "1", "true", "yes":
		*b = true
	case "0", "false", "no":
		*b = false
	default:
		return fmt.Errorf("line %d: bad flag %q", node.Line, node.Value)
	}
	return nil
}

type panelEntry struct {
	Name   string     `yaml:"Name"`
	Offset *hexOffset `yaml:"Offset"`
	Kind   string     `yaml:"Kind"`
}

type unitEntry struct {
	Name    string     `yaml:"Name"`
	Offset  *hexOffset `yaml:"Offset"`
	Show    *flexBool  `yaml:"Show"`
	Index   *int       `yaml:"Index"`
	Invalid string     `yaml:"Invalid"`
}

// Parse builds a catalog from the panel and unit documents. Both may be
// JSON or YAML. Any malformed entry fails the whole load.
func Parse(panelDoc, unitDoc []byte) (*Catalog, error) {
	var panel []panelEntry
	if err := yaml.Unmarshal(panelDoc, &panel); err != nil {
		return nil, fmt.Errorf("panel catalog: %w", err)
	}

	var units map[string][]unitEntry
	if err := yaml.Unmarshal(unitDoc, &units); err != nil {
		return nil, fmt.Errorf("unit catalog: %w", err)
	}

	c := &Catalog{}

	for i, e := range panel {
		if e.Name == "" || e.Offset == nil {
			return nil, fmt.Errorf("panel catalog: entry %d needs Name and Offset", i)
		}
		kind, err := parseKind(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("panel catalog: %s: %w", e.Name, err)
		}
		c.Panel = append(c.Panel, FieldDescriptor{
			Name:     e.Name,
			Offset:   uint32(*e.Offset),
			Kind:     kind,
			Category: None,
			Visible:  true,
			Index:    DefaultIndex,
		})
	}

	for key := range units {
		if _, err := ParseCategory(key); err != nil {
			return nil, fmt.Errorf("unit catalog: %w", err)
		}
	}

	// map iteration order is random; walk categories in a fixed order
	for _, cat := range Categories {
		entries, ok := lookupFold(units, cat.String())
		if !ok {
			continue
		}
		for i, e := range entries {
			if e.Name == "" && e.Offset == nil {
				continue
			}
			if e.Name == "" || e.Offset == nil {
				return nil, fmt.Errorf("unit catalog: %s entry %d needs Name and Offset", cat, i)
			}
			d := FieldDescriptor{
				Name:     e.Name,
				Offset:   uint32(*e.Offset),
				Kind:     Numeric,
				Category: cat,
				Visible:  e.Show == nil || bool(*e.Show),
				Index:    DefaultIndex,
			}
			if e.Index != nil {
				d.Index = *e.Index
			}
			if e.Invalid != "" {
				v, err := ParseVersion(e.Invalid)
				if err != nil {
					return nil, fmt.Errorf("unit catalog: %s: %w", e.Name, err)
				}
				d.ExcludedFor = &v
			}
			c.Units = append(c.Units, d)
		}
	}

	return c, nil
}

func lookupFold(m map[string][]unitEntry, key string) ([]unitEntry, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// LoadFiles reads and parses the two catalog documents.
func LoadFiles(panelPath, unitPath string) (*Catalog, error) {
	panelDoc, err := os.ReadFile(panelPath)
	if err != nil {
		return nil, fmt.Errorf("read panel catalog: %w", err)
	}
	unitDoc, err := os.ReadFile(unitPath)
	if err != nil {
		return nil, fmt.Errorf("read unit catalog: %w", err)
	}
	return Parse(panelDoc, unitDoc)
}

// ForVersion returns a copy without the unit entries excluded for v.
func (c *Catalog) ForVersion(v Version) *Catalog {
	out := &Catalog{
		Panel: append([]FieldDescriptor(nil), c.Panel...),
		Units: make([]FieldDescriptor, 0, len(c.Units)),
	}
	for _, d := range c.Units {
		if d.ExcludedIn(v) {
			continue
		}
		out.Units = append(out.Units, d)
	}
	return out
}

// MatchUnit finds the unit descriptor of category cat at byte offset.
func (c *Catalog) MatchUnit(cat Category, offset uint32) (FieldDescriptor, bool) {
	for _, d := range c.Units {
		if d.Category == cat && d.Offset == offset {
			return d, true
		}
	}
	return FieldDescriptor{}, false
}

// PanelField finds a panel descriptor by name.
func (c *Catalog) PanelField(name string) (FieldDescriptor, bool) {
	for _, d := range c.Panel {
		if d.Name == name {
			return d, true
		}
	}
	return FieldDescriptor{}, false
}
