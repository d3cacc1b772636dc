package shoppinglist

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Palette is the set of colours handed out to stores created without one.
var Palette = []string{
	"#dc2626",
	"#ca8a04",
	"#1d4ed8",
	"#000000",
	"#15803d",
	"#7c2d12",
	"#be185d",
	"#1e40af",
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Defaults is the starting state used for a fresh or unreadable document.
type Defaults struct {
	Stores  []Store  `yaml:"stores"`
	Palette []string `yaml:"palette"`
}

// BuiltinDefaults returns the stores a new installation starts with.
func BuiltinDefaults() Defaults {
	return Defaults{
		Stores: []Store{
			{ID: "coles", Name: "COLES", Color: "#dc2626"},
			{ID: "shidai", Name: "时代", Color: "#ca8a04"},
			{ID: "aldi", Name: "ALDI", Color: "#1d4ed8"},
		},
		Palette: append([]string(nil), Palette...),
	}
}

// LoadDefaults reads a YAML seed file of the form
//
//	stores:
//	  - {id: coles, name: Coles, color: "#dc2626"}
//	palette: ["#dc2626", "#1d4ed8"]
//
// An empty path returns BuiltinDefaults. Sections missing from the file fall
// back to the built-in values.
func LoadDefaults(path string) (Defaults, error) {
	builtin := BuiltinDefaults()
	if path == "" {
		return builtin, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Defaults{}, fmt.Errorf("failed to parse seed file: %w", err)
	}

	if len(d.Palette) == 0 {
		d.Palette = builtin.Palette
	}
	for _, c := range d.Palette {
		if !hexColor.MatchString(c) {
			return Defaults{}, fmt.Errorf("seed palette: %q is not a #RRGGBB colour", c)
		}
	}

	if len(d.Stores) == 0 {
		d.Stores = builtin.Stores
		return d, nil
	}
	seen := make(map[string]bool, len(d.Stores))
	for i := range d.Stores {
		s := &d.Stores[i]
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			return Defaults{}, fmt.Errorf("seed store %d: id is required", i)
		}
		if seen[s.ID] {
			return Defaults{}, fmt.Errorf("seed store %q: duplicate id", s.ID)
		}
		seen[s.ID] = true
		s.Name = strings.ToUpper(strings.TrimSpace(s.Name))
		if s.Name == "" {
			s.Name = strings.ToUpper(s.ID)
		}
		if s.Color == "" {
			s.Color = d.Palette[i%len(d.Palette)]
		}
	}
	return d, nil
}

// Document builds a fresh document holding the default stores with empty lists.
func (d Defaults) Document() *Document {
	doc := &Document{
		Stores:        make([]Store, len(d.Stores)),
		ShoppingLists: make(ShoppingLists, len(d.Stores)),
	}
	copy(doc.Stores, d.Stores)
	for _, s := range d.Stores {
		doc.ShoppingLists[s.ID] = []Item{}
	}
	return doc
}

func (d Defaults) paletteColor(n int) string {
	p := d.Palette
	if len(p) == 0 {
		p = Palette
	}
	return p[n%len(p)]
}
