package bot

import (
	"github.com/rs/zerolog/log"

	"github.com/freeeve/battle-odds/pkg/casualty"
)

// CasualtyRequest describes one casualty-resolution step of a battle.
type CasualtyRequest struct {
	SelectFrom []casualty.Unit  // candidate pool, in engine order
	Default    casualty.Details // engine-computed default assignment
	Hits       int
	Territory  string
	Attacker   bool // true when the casualties belong to the attacking side
	Round      int
}

// RetreatQuery describes an attacker's option to retreat after a round.
type RetreatQuery struct {
	Territory           string
	Round               int
	Remaining           []casualty.Unit
	PossibleTerritories []string
}

// Player makes the decisions the combat engine asks of one side.
type Player interface {
	Name() string
	SelectCasualties(req CasualtyRequest) casualty.Details
	SelectRetreat(q RetreatQuery) (territory string, ok bool)
	ConfirmMoveInFaceOfAA(territories []string) bool
	ConfirmMoveKamikaze() bool
	SelectAttackSubs(territory string) bool
	ShouldBomberBomb(territory string) bool
	Notify(msg string)
}

// --- NoopPlayer ---

// NoopPlayer accepts every engine default and never retreats.
// Embed it to override only the decisions that matter.
type NoopPlayer struct{}

func (NoopPlayer) Name() string { return "noop" }

// SelectCasualties returns the engine default, marked as an explicit choice.
func (NoopPlayer) SelectCasualties(req CasualtyRequest) casualty.Details {
	return casualty.Select(req.SelectFrom, req.Default, nil, false)
}

func (NoopPlayer) SelectRetreat(RetreatQuery) (string, bool) { return "", false }

func (NoopPlayer) ConfirmMoveInFaceOfAA([]string) bool { return true }

func (NoopPlayer) ConfirmMoveKamikaze() bool { return false }

func (NoopPlayer) SelectAttackSubs(string) bool { return true }

func (NoopPlayer) ShouldBomberBomb(string) bool { return false }

func (NoopPlayer) Notify(msg string) {
	log.Debug().Str("message", msg).Msg("bot: notification ignored")
}
