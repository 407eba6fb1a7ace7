package model

import "time"

// OddsRun is a completed odds calculation, as cached and archived.
type OddsRun struct {
	ID               string    `json:"id"`
	Fingerprint      string    `json:"fingerprint"`
	Territory        string    `json:"territory"`
	AttackerSpec     string    `json:"attacker_spec"`
	DefenderSpec     string    `json:"defender_spec"`
	Runs             int       `json:"runs"`
	AttackerWin      float64   `json:"attacker_win"` // percent
	DefenderWin      float64   `json:"defender_win"` // percent
	Draw             float64   `json:"draw"`         // percent
	Conquer          float64   `json:"conquer"`      // percent
	AvgRounds        float64   `json:"avg_rounds"`
	AvgAttackersLeft float64   `json:"avg_attackers_left"`
	AvgDefendersLeft float64   `json:"avg_defenders_left"`
	ElapsedMS        int64     `json:"elapsed_ms"`
	CreatedAt        time.Time `json:"created_at"`
}
