package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/battle-odds/internal/model"
)

const oddsRunColumns = `id, fingerprint, territory, attacker_spec, defender_spec, runs,
	attacker_win, defender_win, draw, conquer, avg_rounds, avg_attackers_left,
	avg_defenders_left, elapsed_ms, created_at`

// OddsRunRepo handles odds_runs database operations.
type OddsRunRepo struct {
	db *sql.DB
}

// NewOddsRunRepo creates an OddsRunRepo.
func NewOddsRunRepo(db *sql.DB) *OddsRunRepo {
	return &OddsRunRepo{db: db}
}

// Save inserts a completed run.
func (r *OddsRunRepo) Save(ctx context.Context, run *model.OddsRun) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO odds_runs (`+oddsRunColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		run.ID, run.Fingerprint, run.Territory, run.AttackerSpec, run.DefenderSpec, run.Runs,
		run.AttackerWin, run.DefenderWin, run.Draw, run.Conquer, run.AvgRounds, run.AvgAttackersLeft,
		run.AvgDefendersLeft, run.ElapsedMS, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save odds run: %w", err)
	}
	return nil
}

// FindByFingerprint returns the newest run with the given fingerprint, or nil.
func (r *OddsRunRepo) FindByFingerprint(ctx context.Context, fingerprint string) (*model.OddsRun, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+oddsRunColumns+` FROM odds_runs
		 WHERE fingerprint = $1 ORDER BY created_at DESC LIMIT 1`, fingerprint)
	run, err := scanOddsRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find odds run: %w", err)
	}
	return run, nil
}

// ListRecent returns up to limit runs, newest first.
func (r *OddsRunRepo) ListRecent(ctx context.Context, limit int) ([]model.OddsRun, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+oddsRunColumns+` FROM odds_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list odds runs: %w", err)
	}
	defer rows.Close()

	var runs []model.OddsRun
	for rows.Next() {
		run, err := scanOddsRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan odds run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOddsRun(s scanner) (*model.OddsRun, error) {
	var run model.OddsRun
	err := s.Scan(&run.ID, &run.Fingerprint, &run.Territory, &run.AttackerSpec, &run.DefenderSpec, &run.Runs,
		&run.AttackerWin, &run.DefenderWin, &run.Draw, &run.Conquer, &run.AvgRounds, &run.AvgAttackersLeft,
		&run.AvgDefendersLeft, &run.ElapsedMS, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
