package odds

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/freeeve/battle-odds/internal/bot"
	"github.com/freeeve/battle-odds/pkg/casualty"
)

// SideOptions configures the automated player of one side.
type SideOptions struct {
	OrderOfLosses      []string `json:"order_of_losses,omitempty"` // unit type names, lost first
	KeepAtLeastOneLand bool     `json:"keep_at_least_one_land,omitempty"`
}

// RetreatOptions configures when the attacker retreats. Zero disables a rule.
type RetreatOptions struct {
	AfterRound     int  `json:"after_round,omitempty"`
	AfterUnitsLeft int  `json:"after_units_left,omitempty"`
	WhenOnlyAir    bool `json:"when_only_air,omitempty"`
}

// Request is a serializable description of an odds calculation.
type Request struct {
	Territory string         `json:"territory"`
	Attack    string         `json:"attack"` // e.g. "infantry=3,fighter=2"
	Defend    string         `json:"defend"`
	Attacker  SideOptions    `json:"attacker"`
	Defender  SideOptions    `json:"defender"`
	Retreat   RetreatOptions `json:"retreat"`
	Runs      int            `json:"runs"`
	MaxRounds int            `json:"max_rounds"`
	Seed      int64          `json:"seed"`
}

// Fingerprint identifies the inputs that determine the result of r when
// simulated against catalog c (nil = DefaultCatalog).
func (r Request) Fingerprint(c *Catalog) string {
	if c == nil {
		c = DefaultCatalog()
	}
	data, err := json.Marshal(r)
	if err != nil {
		// Request only holds plain values; Marshal cannot fail.
		panic(fmt.Sprintf("odds: marshal request: %v", err))
	}
	h := sha256.New()
	h.Write(data)
	h.Write([]byte(c.Digest()))
	return hex.EncodeToString(h.Sum(nil))
}

// Config builds the calculator configuration for r against a catalog.
// The order of losses of each side is expanded to that side's unit IDs.
func (r Request) Config(c *Catalog, workers int) (Config, error) {
	if c == nil {
		c = DefaultCatalog()
	}
	attack, err := ParseForce(r.Attack)
	if err != nil {
		return Config{}, fmt.Errorf("attack: %w", err)
	}
	defend, err := ParseForce(r.Defend)
	if err != nil {
		return Config{}, fmt.Errorf("defend: %w", err)
	}
	b, err := c.NewBattle(r.Territory, attack, defend)
	if err != nil {
		return Config{}, err
	}

	attacker := bot.NewAutoPlayer(bot.AutoPlayerConfig{
		Name:                   attackerOwner,
		IsAttacker:             true,
		OrderOfLosses:          casualty.OrderByType(b.Attackers, r.Attacker.OrderOfLosses),
		KeepAtLeastOneLand:     r.Attacker.KeepAtLeastOneLand,
		RetreatAfterRound:      r.Retreat.AfterRound,
		RetreatAfterXUnitsLeft: r.Retreat.AfterUnitsLeft,
		RetreatWhenOnlyAirLeft: r.Retreat.WhenOnlyAir,
	})
	defender := bot.NewAutoPlayer(bot.AutoPlayerConfig{
		Name:               defenderOwner,
		OrderOfLosses:      casualty.OrderByType(b.Defenders, r.Defender.OrderOfLosses),
		KeepAtLeastOneLand: r.Defender.KeepAtLeastOneLand,
	})

	return Config{
		Catalog:   c,
		Battle:    b,
		Attacker:  attacker,
		Defender:  defender,
		Runs:      r.Runs,
		Workers:   workers,
		MaxRounds: r.MaxRounds,
		Seed:      r.Seed,
	}, nil
}
