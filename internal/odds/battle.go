package odds

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/freeeve/battle-odds/pkg/casualty"
)

const (
	attackerOwner = "attacker"
	defenderOwner = "defender"
)

// ForceEntry is a number of units of one type.
type ForceEntry struct {
	Type  string
	Count int
}

// Battle is the starting position of a single-territory battle. Unit IDs are
// unique across both sides and stay fixed for every simulated run.
type Battle struct {
	Territory string
	Attackers []casualty.Unit
	Defenders []casualty.Unit
}

// ParseForce parses a force description such as "infantry=3,fighter=2".
// A bare type name counts as one unit. Entry order is preserved.
func ParseForce(s string) ([]ForceEntry, error) {
	var force []ForceEntry
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, countStr, hasCount := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		count := 1
		if hasCount {
			n, err := strconv.Atoi(strings.TrimSpace(countStr))
			if err != nil {
				return nil, fmt.Errorf("force entry %q: bad count: %w", part, err)
			}
			count = n
		}
		if name == "" || count < 0 {
			return nil, fmt.Errorf("force entry %q: invalid", part)
		}
		force = append(force, ForceEntry{Type: name, Count: count})
	}
	return force, nil
}

// NewBattle creates the units for both sides from the catalog.
func (c *Catalog) NewBattle(territory string, attackers, defenders []ForceEntry) (*Battle, error) {
	b := &Battle{Territory: territory}
	next := casualty.UnitID(0)
	var err error
	if b.Attackers, err = c.units(attackers, attackerOwner, &next); err != nil {
		return nil, fmt.Errorf("attackers: %w", err)
	}
	if b.Defenders, err = c.units(defenders, defenderOwner, &next); err != nil {
		return nil, fmt.Errorf("defenders: %w", err)
	}
	if len(b.Attackers) == 0 {
		return nil, fmt.Errorf("battle has no attacking units")
	}
	return b, nil
}

func (c *Catalog) units(force []ForceEntry, owner string, next *casualty.UnitID) ([]casualty.Unit, error) {
	var units []casualty.Unit
	for _, e := range force {
		s, ok := c.Stats(e.Type)
		if !ok {
			return nil, fmt.Errorf("unknown unit type %q", e.Type)
		}
		for i := 0; i < e.Count; i++ {
			units = append(units, casualty.Unit{ID: *next, Type: s.Name, Owner: owner, Air: s.Air})
			*next++
		}
	}
	return units, nil
}
