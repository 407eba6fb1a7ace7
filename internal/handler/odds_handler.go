package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/battle-odds/internal/logger"
	"github.com/freeeve/battle-odds/internal/model"
	"github.com/freeeve/battle-odds/internal/odds"
	"github.com/freeeve/battle-odds/internal/service"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// OddsCalculator is the service surface the odds endpoints need.
type OddsCalculator interface {
	CalculateWithProgress(ctx context.Context, req odds.Request, progress odds.ProgressFunc) (*model.OddsRun, bool, error)
	Recent(ctx context.Context, limit int) ([]model.OddsRun, error)
}

// OddsHandler handles odds calculation endpoints.
type OddsHandler struct {
	svc     OddsCalculator
	maxRuns int
}

// NewOddsHandler creates an OddsHandler that rejects requests above maxRuns battles.
func NewOddsHandler(svc OddsCalculator, maxRuns int) *OddsHandler {
	return &OddsHandler{svc: svc, maxRuns: maxRuns}
}

type oddsResponse struct {
	Run    *model.OddsRun `json:"run"`
	Stored bool           `json:"stored"`
}

// Calculate handles POST /api/v1/odds.
func (h *OddsHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req odds.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.checkRuns(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, stored, err := h.svc.CalculateWithProgress(r.Context(), req, nil)
	if errors.Is(err, service.ErrInvalidRequest) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		l := logger.ForBatch(r.Context())
		l.Error().Err(err).Msg("Odds calculation failed")
		writeError(w, http.StatusInternalServerError, "calculation failed")
		return
	}
	writeJSON(w, http.StatusOK, oddsResponse{Run: run, Stored: stored})
}

// Recent handles GET /api/v1/odds/recent?limit=N.
func (h *OddsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecentLimit)
	}

	runs, err := h.svc.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Listing odds runs failed")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.OddsRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *OddsHandler) checkRuns(req odds.Request) error {
	if req.Runs < 1 || req.Runs > h.maxRuns {
		return fmt.Errorf("runs must be between 1 and %d", h.maxRuns)
	}
	return nil
}
