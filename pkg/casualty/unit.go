package casualty

// UnitID identifies a single physical unit. Two Unit values with the same ID
// are the same unit, regardless of the list they appear in.
type UnitID int

// Unit is a combat participant eligible to take damage or be killed.
type Unit struct {
	ID    UnitID
	Type  string
	Owner string
	Air   bool
}

// GroundCapable reports whether the unit can hold a territory on its own.
func (u Unit) GroundCapable() bool {
	return !u.Air
}

// Details is a casualty assignment: which units are damaged and which are killed.
type Details struct {
	Damaged        []Unit
	Killed         []Unit
	AutoCalculated bool
}

// IDs returns the IDs of units in order.
func IDs(units []Unit) []UnitID {
	ids := make([]UnitID, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	return ids
}

// idSet builds a membership set keyed by unit ID.
func idSet(units []Unit) map[UnitID]struct{} {
	set := make(map[UnitID]struct{}, len(units))
	for _, u := range units {
		set[u.ID] = struct{}{}
	}
	return set
}

// OrderByType expands a list of unit type names into a priority order over
// units: every unit of the first type (in units order), then the second type,
// and so on. Types with no matching unit are skipped.
func OrderByType(units []Unit, types []string) []UnitID {
	var order []UnitID
	seen := make(map[UnitID]struct{}, len(units))
	for _, t := range types {
		for _, u := range units {
			if u.Type != t {
				continue
			}
			if _, ok := seen[u.ID]; ok {
				continue
			}
			seen[u.ID] = struct{}{}
			order = append(order, u.ID)
		}
	}
	return order
}
