package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	applog "github.com/freeeve/battle-odds/internal/logger"
	"github.com/freeeve/battle-odds/internal/model"
	"github.com/freeeve/battle-odds/internal/odds"
	"github.com/freeeve/battle-odds/internal/repository"
)

var ErrInvalidRequest = errors.New("invalid odds request")

// OddsService runs odds calculations, serving repeats from the cache and
// archiving fresh results. Either store may be nil.
type OddsService struct {
	catalog  *odds.Catalog
	cache    repository.OddsCache
	runs     repository.OddsRunRepository
	cacheTTL time.Duration
	workers  int
	metrics  *oddsMetrics
}

// NewOddsService creates an OddsService. A nil catalog uses the built-in one.
func NewOddsService(catalog *odds.Catalog, cache repository.OddsCache, runs repository.OddsRunRepository, cacheTTL time.Duration, workers int) *OddsService {
	if catalog == nil {
		catalog = odds.DefaultCatalog()
	}
	return &OddsService{
		catalog:  catalog,
		cache:    cache,
		runs:     runs,
		cacheTTL: cacheTTL,
		workers:  workers,
		metrics:  newOddsMetrics(),
	}
}

// Calculate returns the odds for req. The bool reports whether the result
// came from the cache or archive instead of a fresh simulation.
func (s *OddsService) Calculate(ctx context.Context, req odds.Request) (*model.OddsRun, bool, error) {
	return s.CalculateWithProgress(ctx, req, nil)
}

// CalculateWithProgress is Calculate with a progress callback for fresh
// simulations. Stored results are returned without any progress calls.
// A request with a zero (random) seed is always simulated; its result is
// archived but never cached or served.
func (s *OddsService) CalculateWithProgress(ctx context.Context, req odds.Request, progress odds.ProgressFunc) (*model.OddsRun, bool, error) {
	cfg, err := req.Config(s.catalog, s.workers)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	cfg.Progress = progress
	fp := req.Fingerprint(s.catalog)
	logger := applog.ForBatch(ctx).With().Str("fingerprint", fp[:12]).Logger()

	reusable := req.Seed != 0
	if reusable {
		if run, source, err := s.lookup(ctx, fp); err != nil {
			return nil, false, err
		} else if run != nil {
			s.metrics.served(ctx, source)
			logger.Debug().Str("oddsRunId", run.ID).Str("source", source).Msg("odds: served from store")
			return run, true, nil
		}
	}

	result, err := odds.Run(ctx, cfg)
	if err != nil {
		return nil, false, fmt.Errorf("run odds: %w", err)
	}
	s.metrics.simulated(ctx, result.Runs, result.Elapsed)

	run := &model.OddsRun{
		ID:               uuid.NewString(),
		Fingerprint:      fp,
		Territory:        req.Territory,
		AttackerSpec:     req.Attack,
		DefenderSpec:     req.Defend,
		Runs:             result.Runs,
		AttackerWin:      result.AttackerWinPct(),
		DefenderWin:      result.DefenderWinPct(),
		Draw:             result.DrawPct(),
		Conquer:          result.ConquerPct(),
		AvgRounds:        result.AvgRounds,
		AvgAttackersLeft: result.AvgAttackersLeft,
		AvgDefendersLeft: result.AvgDefendersLeft,
		ElapsedMS:        result.Elapsed.Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	}

	if s.runs != nil {
		if err := s.runs.Save(ctx, run); err != nil {
			return nil, false, fmt.Errorf("archive odds run: %w", err)
		}
	}
	if s.cache != nil && reusable {
		if err := s.cache.SetRun(ctx, run, s.cacheTTL); err != nil {
			logger.Warn().Err(err).Msg("odds: cache write failed")
		}
	}
	logger.Info().
		Str("oddsRunId", run.ID).
		Int("runs", run.Runs).
		Float64("attackerWin", run.AttackerWin).
		Int64("elapsedMs", run.ElapsedMS).
		Msg("odds: calculation stored")
	return run, false, nil
}

// Recent lists the most recently archived runs.
func (s *OddsService) Recent(ctx context.Context, limit int) ([]model.OddsRun, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.ListRecent(ctx, limit)
}

// lookup checks the cache, then the archive, and reports which one answered.
// An archive hit refreshes the cache.
func (s *OddsService) lookup(ctx context.Context, fp string) (*model.OddsRun, string, error) {
	if s.cache != nil {
		run, err := s.cache.GetRun(ctx, fp)
		if err != nil {
			log.Warn().Err(err).Msg("odds: cache read failed")
		} else if run != nil {
			return run, sourceCache, nil
		}
	}
	if s.runs == nil {
		return nil, "", nil
	}
	run, err := s.runs.FindByFingerprint(ctx, fp)
	if err != nil {
		return nil, "", fmt.Errorf("find odds run: %w", err)
	}
	if run == nil {
		return nil, "", nil
	}
	if s.cache != nil {
		if err := s.cache.SetRun(ctx, run, s.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("odds: cache write failed")
		}
	}
	return run, sourceArchive, nil
}
