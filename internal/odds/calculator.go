// Package odds estimates battle outcomes by simulating many single-territory
// battles with automated players on both sides.
package odds

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/battle-odds/internal/bot"
)

// Config configures one odds calculation.
type Config struct {
	Catalog   *Catalog // nil = DefaultCatalog
	Battle    *Battle
	Attacker  bot.Player
	Defender  bot.Player
	Runs      int
	Workers   int   // parallel simulations; <= 0 means 1
	MaxRounds int   // <= 0 means fight to the end
	Seed      int64 // 0 = random

	// Progress, if set, is called after each finished battle. Calls are
	// serialized; done counts up to Runs.
	Progress ProgressFunc
}

// ProgressFunc reports how many of total battles have finished.
type ProgressFunc func(done, total int)

// Result aggregates the outcomes of all simulated battles.
type Result struct {
	Runs             int           `json:"runs"`
	AttackerWins     int           `json:"attacker_wins"`
	DefenderWins     int           `json:"defender_wins"`
	Draws            int           `json:"draws"`
	Conquered        int           `json:"conquered"`
	Retreats         int           `json:"retreats"`
	AvgRounds        float64       `json:"avg_rounds"`
	AvgAttackersLeft float64       `json:"avg_attackers_left"`
	AvgDefendersLeft float64       `json:"avg_defenders_left"`
	Elapsed          time.Duration `json:"elapsed"`

	totalRounds, totalAttackers, totalDefenders int
}

// AttackerWinPct returns the share of battles won by the attacker, in percent.
func (r *Result) AttackerWinPct() float64 { return r.pct(r.AttackerWins) }

// DefenderWinPct returns the share of battles won by the defender, in percent.
func (r *Result) DefenderWinPct() float64 { return r.pct(r.DefenderWins) }

// DrawPct returns the share of battles with no winner, in percent.
func (r *Result) DrawPct() float64 { return r.pct(r.Draws) }

// ConquerPct returns the share of battles in which the territory was taken, in percent.
func (r *Result) ConquerPct() float64 { return r.pct(r.Conquered) }

func (r *Result) pct(n int) float64 {
	if r.Runs == 0 {
		return 0
	}
	return 100 * float64(n) / float64(r.Runs)
}

func (r *Result) add(o Outcome) {
	r.Runs++
	switch o.Winner {
	case AttackerWon:
		r.AttackerWins++
	case DefenderWon:
		r.DefenderWins++
	default:
		r.Draws++
	}
	if o.Conquered {
		r.Conquered++
	}
	if o.Retreated {
		r.Retreats++
	}
	r.totalRounds += o.Rounds
	r.totalAttackers += o.AttackersLeft
	r.totalDefenders += o.DefendersLeft
}

func (r *Result) finish() {
	if r.Runs == 0 {
		return
	}
	n := float64(r.Runs)
	r.AvgRounds = float64(r.totalRounds) / n
	r.AvgAttackersLeft = float64(r.totalAttackers) / n
	r.AvgDefendersLeft = float64(r.totalDefenders) / n
}

func (cfg *Config) validate() error {
	switch {
	case cfg.Battle == nil:
		return errors.New("no battle configured")
	case len(cfg.Battle.Attackers) == 0:
		return errors.New("battle has no attacking units")
	case cfg.Attacker == nil || cfg.Defender == nil:
		return errors.New("both players are required")
	case cfg.Runs <= 0:
		return fmt.Errorf("runs must be positive, got %d", cfg.Runs)
	}
	return nil
}

// Run simulates cfg.Runs battles and aggregates their outcomes. With a
// non-zero seed the result is reproducible regardless of the worker count.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("odds config: %w", err)
	}
	if cfg.Catalog == nil {
		cfg.Catalog = DefaultCatalog()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	for _, u := range slices.Concat(cfg.Battle.Attackers, cfg.Battle.Defenders) {
		if _, ok := cfg.Catalog.Stats(u.Type); !ok {
			return nil, fmt.Errorf("odds config: unit %d has unknown type %q", u.ID, u.Type)
		}
	}

	e := &engine{catalog: cfg.Catalog, maxRounds: cfg.MaxRounds}
	start := time.Now()
	log.Debug().
		Str("territory", cfg.Battle.Territory).
		Int("attackers", len(cfg.Battle.Attackers)).
		Int("defenders", len(cfg.Battle.Defenders)).
		Int("runs", cfg.Runs).
		Int("workers", cfg.Workers).
		Msg("odds: starting calculation")

	result := &Result{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, cfg.Workers)

	for i := 0; i < cfg.Runs; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}
			o := e.fight(ctx, runRng(cfg.Seed, idx), cfg.Battle, cfg.Attacker, cfg.Defender)

			mu.Lock()
			result.add(o)
			if cfg.Progress != nil {
				cfg.Progress(result.Runs, cfg.Runs)
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.finish()
	result.Elapsed = time.Since(start)
	log.Debug().
		Float64("attackerWinPct", result.AttackerWinPct()).
		Float64("conquerPct", result.ConquerPct()).
		Dur("elapsed", result.Elapsed).
		Msg("odds: calculation finished")
	return result, nil
}

// runRng returns the random source for one run.
func runRng(seed int64, idx int) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewSource(rand.Int63()))
	}
	return rand.New(rand.NewSource(seed + int64(idx)))
}
