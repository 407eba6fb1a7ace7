package odds

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

const diceSides = 6

// UnitStats describes one unit type.
type UnitStats struct {
	Name      string `yaml:"name" json:"name"`
	Attack    int    `yaml:"attack" json:"attack"`
	Defense   int    `yaml:"defense" json:"defense"`
	Cost      int    `yaml:"cost" json:"cost"`
	HitPoints int    `yaml:"hit_points" json:"hit_points"`
	Air       bool   `yaml:"air" json:"air"`
}

// Catalog holds the stats of every known unit type.
type Catalog struct {
	types  map[string]UnitStats
	names  []string // declaration order
	digest string
}

type catalogFile struct {
	Units []UnitStats `yaml:"units"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("odds: embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog and validates every entry.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Units) == 0 {
		return nil, fmt.Errorf("parse catalog: no unit types")
	}

	sum := sha256.Sum256(data)
	c := &Catalog{
		types:  make(map[string]UnitStats, len(f.Units)),
		digest: hex.EncodeToString(sum[:]),
	}
	for _, s := range f.Units {
		if s.HitPoints == 0 {
			s.HitPoints = 1
		}
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.types[s.Name]; dup {
			return nil, fmt.Errorf("unit type %q: declared twice", s.Name)
		}
		c.types[s.Name] = s
		c.names = append(c.names, s.Name)
	}
	return c, nil
}

func (s UnitStats) validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("unit type with empty name")
	case s.Attack < 0 || s.Attack > diceSides:
		return fmt.Errorf("unit type %q: attack %d out of range 0-%d", s.Name, s.Attack, diceSides)
	case s.Defense < 0 || s.Defense > diceSides:
		return fmt.Errorf("unit type %q: defense %d out of range 0-%d", s.Name, s.Defense, diceSides)
	case s.HitPoints < 1 || s.HitPoints > 2:
		return fmt.Errorf("unit type %q: hit points must be 1 or 2, got %d", s.Name, s.HitPoints)
	case s.Cost < 0:
		return fmt.Errorf("unit type %q: negative cost", s.Name)
	}
	return nil
}

// Stats returns the stats for a unit type.
func (c *Catalog) Stats(name string) (UnitStats, bool) {
	s, ok := c.types[name]
	return s, ok
}

// Names returns the unit type names in declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Digest identifies the catalog contents.
func (c *Catalog) Digest() string {
	return c.digest
}
