// Package casualty decides which units are lost when a combat round inflicts hits.
//
// The engine computes a default assignment (how many units die and which ones
// are damaged); Select only decides which units fill the killed slots. It is a
// pure function and safe to call concurrently.
package casualty

import "slices"

// Select returns the final casualty assignment for one resolution step.
//
// Damaged units and the number of killed units are taken from def unchanged.
// When order names at least one unit of pool, the killed slots are filled from
// order (highest priority first) and padded from def.Killed; retainPresence is
// ignored in that case. Otherwise def.Killed is kept, except that with
// retainPresence set a ground-capable unit is swapped for a spare air unit if
// the default would leave no ground-capable unit alive.
//
// The input slices are never modified.
func Select(pool []Unit, def Details, order []UnitID, retainPresence bool) Details {
	var killed []Unit
	if byOrder, ok := killedByOrder(pool, def.Killed, order); ok {
		killed = byOrder
	} else if retainPresence {
		killed = keepGroundPresence(pool, def.Killed)
	} else {
		killed = slices.Clone(def.Killed)
	}
	return Details{
		Damaged:        slices.Clone(def.Damaged),
		Killed:         killed,
		AutoCalculated: false,
	}
}

// killedByOrder fills len(defKilled) slots from order, restricted to pool
// members, then pads with units from defKilled. It reports false when order
// has no usable entry.
func killedByOrder(pool, defKilled []Unit, order []UnitID) ([]Unit, bool) {
	if len(order) == 0 {
		return nil, false
	}
	byID := make(map[UnitID]Unit, len(pool))
	for _, u := range pool {
		byID[u.ID] = u
	}

	n := len(defKilled)
	killed := make([]Unit, 0, n)
	chosen := make(map[UnitID]struct{}, n)
	usable := false
	for _, id := range order {
		u, ok := byID[id]
		if !ok {
			continue
		}
		usable = true
		if len(killed) == n {
			break
		}
		if _, dup := chosen[id]; dup {
			continue
		}
		chosen[id] = struct{}{}
		killed = append(killed, u)
	}
	if !usable {
		return nil, false
	}

	for _, u := range defKilled {
		if len(killed) == n {
			break
		}
		if _, dup := chosen[u.ID]; dup {
			continue
		}
		chosen[u.ID] = struct{}{}
		killed = append(killed, u)
	}
	return killed, true
}

// keepGroundPresence returns a copy of killed in which the first
// ground-capable unit is replaced by the first unselected air unit of pool,
// when otherwise nothing ground-capable would survive. killed is not modified.
func keepGroundPresence(pool, killed []Unit) []Unit {
	out := slices.Clone(killed)
	dead := idSet(killed)
	for _, u := range pool {
		if _, ok := dead[u.ID]; !ok && u.GroundCapable() {
			return out
		}
	}

	p := slices.IndexFunc(killed, Unit.GroundCapable)
	if p < 0 {
		return out
	}
	for _, u := range pool {
		if _, ok := dead[u.ID]; ok || u.GroundCapable() {
			continue
		}
		out[p] = u
		return out
	}
	return out
}
