package odds

import (
	"context"
	"math/rand"
	"slices"
	"sort"

	"github.com/freeeve/battle-odds/internal/bot"
	"github.com/freeeve/battle-odds/pkg/casualty"
)

// Winner identifies which side, if any, won a battle.
type Winner int

const (
	NoWinner Winner = iota
	AttackerWon
	DefenderWon
)

func (w Winner) String() string {
	switch w {
	case AttackerWon:
		return "attacker"
	case DefenderWon:
		return "defender"
	default:
		return "draw"
	}
}

// Outcome is the result of one simulated battle.
type Outcome struct {
	Winner        Winner
	Conquered     bool // attacker won and still has a ground-capable unit
	Retreated     bool
	Rounds        int
	AttackersLeft int
	DefendersLeft int
}

// side is the mutable state of one side during a single simulated battle.
type side struct {
	alive  []casualty.Unit
	hits   map[casualty.UnitID]int // damage taken so far
	player bot.Player
	attack bool
}

func newSide(units []casualty.Unit, p bot.Player, attack bool) *side {
	return &side{
		alive:  slices.Clone(units),
		hits:   make(map[casualty.UnitID]int),
		player: p,
		attack: attack,
	}
}

// engine resolves battles against one catalog.
type engine struct {
	catalog   *Catalog
	maxRounds int
}

func (e *engine) stats(u casualty.Unit) UnitStats {
	s, _ := e.catalog.Stats(u.Type)
	return s
}

func (e *engine) hpLeft(s *side, u casualty.Unit) int {
	return e.stats(u).HitPoints - s.hits[u.ID]
}

// fight plays the battle to completion using rng for every die roll. It stops
// early, with no winner, once ctx is done or neither side can score a hit.
func (e *engine) fight(ctx context.Context, rng *rand.Rand, b *Battle, attacker, defender bot.Player) Outcome {
	att := newSide(b.Attackers, attacker, true)
	def := newSide(b.Defenders, defender, false)

	var out Outcome
	for round := 1; e.maxRounds <= 0 || round <= e.maxRounds; round++ {
		if len(att.alive) == 0 || len(def.alive) == 0 {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if e.strength(att) == 0 && e.strength(def) == 0 {
			break
		}
		out.Rounds = round

		attHits := e.roll(rng, att)
		defHits := e.roll(rng, def)
		// Losses are taken simultaneously.
		e.takeHits(def, attHits, b.Territory, round)
		e.takeHits(att, defHits, b.Territory, round)

		if len(att.alive) == 0 || len(def.alive) == 0 {
			break
		}
		if _, ok := attacker.SelectRetreat(bot.RetreatQuery{
			Territory:           b.Territory,
			Round:               round,
			Remaining:           slices.Clone(att.alive),
			PossibleTerritories: []string{retreatTerritory(b.Territory)},
		}); ok {
			out.Retreated = true
			break
		}
	}

	out.AttackersLeft = len(att.alive)
	out.DefendersLeft = len(def.alive)
	switch {
	case out.Retreated:
		out.Winner = DefenderWon
	case out.AttackersLeft > 0 && out.DefendersLeft == 0:
		out.Winner = AttackerWon
		out.Conquered = slices.ContainsFunc(att.alive, casualty.Unit.GroundCapable)
	case out.AttackersLeft == 0 && out.DefendersLeft > 0:
		out.Winner = DefenderWon
	}
	return out
}

func retreatTerritory(territory string) string {
	return territory + " (retreat)"
}

// strength is the summed hit value of a side's living units.
func (e *engine) strength(s *side) int {
	total := 0
	for _, u := range s.alive {
		total += e.hitValue(s, u)
	}
	return total
}

func (e *engine) hitValue(s *side, u casualty.Unit) int {
	if s.attack {
		return e.stats(u).Attack
	}
	return e.stats(u).Defense
}

// roll throws one die per living unit and counts hits.
func (e *engine) roll(rng *rand.Rand, s *side) int {
	hits := 0
	for _, u := range s.alive {
		if rng.Intn(diceSides)+1 <= e.hitValue(s, u) {
			hits++
		}
	}
	return hits
}

// takeHits asks the side's player to choose casualties and removes the dead.
func (e *engine) takeHits(s *side, hits int, territory string, round int) {
	if hits == 0 || len(s.alive) == 0 {
		return
	}
	def := e.defaultCasualties(s, hits)
	details := s.player.SelectCasualties(bot.CasualtyRequest{
		SelectFrom: slices.Clone(s.alive),
		Default:    def,
		Hits:       hits,
		Territory:  territory,
		Attacker:   s.attack,
		Round:      round,
	})

	for _, u := range details.Damaged {
		s.hits[u.ID]++
	}
	dead := make(map[casualty.UnitID]struct{}, len(details.Killed))
	for _, u := range details.Killed {
		dead[u.ID] = struct{}{}
	}
	s.alive = slices.DeleteFunc(s.alive, func(u casualty.Unit) bool {
		_, ok := dead[u.ID]
		return ok
	})
}

// defaultCasualties is the engine's own choice for absorbing hits: units with
// a spare hit point take damage first, then the cheapest units die. Damaged
// and killed never overlap.
func (e *engine) defaultCasualties(s *side, hits int) casualty.Details {
	total := 0
	for _, u := range s.alive {
		total += e.hpLeft(s, u)
	}
	if hits >= total {
		return casualty.Details{Killed: e.cheapestFirst(s.alive), AutoCalculated: true}
	}

	var damaged []casualty.Unit
	for _, u := range s.alive {
		if hits == 0 {
			break
		}
		if e.hpLeft(s, u) > 1 {
			damaged = append(damaged, u)
			hits--
		}
	}

	// Units damaged this round die last; killing one undoes its damage.
	var killed []casualty.Unit
	isDamaged := make(map[casualty.UnitID]bool, len(damaged))
	for _, u := range damaged {
		isDamaged[u.ID] = true
	}
	var fresh, hurt []casualty.Unit
	for _, u := range e.cheapestFirst(s.alive) {
		if isDamaged[u.ID] {
			hurt = append(hurt, u)
		} else {
			fresh = append(fresh, u)
		}
	}
	for _, u := range append(fresh, hurt...) {
		if hits == 0 {
			break
		}
		killed = append(killed, u)
		delete(isDamaged, u.ID)
		hits--
	}
	damaged = slices.DeleteFunc(damaged, func(u casualty.Unit) bool { return !isDamaged[u.ID] })

	return casualty.Details{Damaged: damaged, Killed: killed, AutoCalculated: true}
}

// cheapestFirst orders units by cost, keeping the given order among equals.
func (e *engine) cheapestFirst(units []casualty.Unit) []casualty.Unit {
	out := slices.Clone(units)
	sort.SliceStable(out, func(i, j int) bool {
		return e.stats(out[i]).Cost < e.stats(out[j]).Cost
	})
	return out
}
