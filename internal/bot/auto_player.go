package bot

import (
	"slices"

	"github.com/freeeve/battle-odds/pkg/casualty"
)

// AutoPlayerConfig configures an AutoPlayer. Retreat thresholds of zero or
// less disable the corresponding rule.
type AutoPlayerConfig struct {
	Name                   string
	IsAttacker             bool
	OrderOfLosses          []casualty.UnitID // kill preference, highest first; nil = engine default
	KeepAtLeastOneLand     bool
	RetreatAfterRound      int
	RetreatAfterXUnitsLeft int
	RetreatWhenOnlyAirLeft bool
}

// AutoPlayer plays one side of a battle without interaction. It picks
// casualties by a fixed order of losses and retreats by simple thresholds.
// It is immutable after construction and safe for concurrent use.
type AutoPlayer struct {
	NoopPlayer
	cfg AutoPlayerConfig
}

// NewAutoPlayer creates an AutoPlayer. The order of losses is copied.
func NewAutoPlayer(cfg AutoPlayerConfig) *AutoPlayer {
	cfg.OrderOfLosses = slices.Clone(cfg.OrderOfLosses)
	if cfg.Name == "" {
		cfg.Name = "auto"
	}
	return &AutoPlayer{cfg: cfg}
}

func (p *AutoPlayer) Name() string { return p.cfg.Name }

// SelectCasualties applies the configured order of losses, or the keep-one-land
// rule when no order is configured.
func (p *AutoPlayer) SelectCasualties(req CasualtyRequest) casualty.Details {
	return casualty.Select(req.SelectFrom, req.Default, p.cfg.OrderOfLosses, p.cfg.KeepAtLeastOneLand)
}

// SelectRetreat retreats an attacker to the first possible territory once any
// configured threshold is reached.
func (p *AutoPlayer) SelectRetreat(q RetreatQuery) (string, bool) {
	if !p.cfg.IsAttacker || len(q.PossibleTerritories) == 0 {
		return "", false
	}
	if p.shouldRetreat(q) {
		return q.PossibleTerritories[0], true
	}
	return "", false
}

func (p *AutoPlayer) shouldRetreat(q RetreatQuery) bool {
	if p.cfg.RetreatAfterRound > 0 && q.Round >= p.cfg.RetreatAfterRound {
		return true
	}
	if p.cfg.RetreatAfterXUnitsLeft > 0 && len(q.Remaining) <= p.cfg.RetreatAfterXUnitsLeft {
		return true
	}
	if p.cfg.RetreatWhenOnlyAirLeft && len(q.Remaining) > 0 &&
		!slices.ContainsFunc(q.Remaining, casualty.Unit.GroundCapable) {
		return true
	}
	return false
}
