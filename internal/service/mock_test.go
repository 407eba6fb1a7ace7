package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/freeeve/battle-odds/internal/model"
)

type mockOddsCache struct {
	runs    map[string]*model.OddsRun
	ttls    map[string]time.Duration
	gets    int
	failGet bool
	failSet bool
}

func newMockOddsCache() *mockOddsCache {
	return &mockOddsCache{
		runs: make(map[string]*model.OddsRun),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockOddsCache) GetRun(_ context.Context, fingerprint string) (*model.OddsRun, error) {
	m.gets++
	if m.failGet {
		return nil, errors.New("cache down")
	}
	r, ok := m.runs[fingerprint]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockOddsCache) SetRun(_ context.Context, run *model.OddsRun, ttl time.Duration) error {
	if m.failSet {
		return errors.New("cache down")
	}
	cp := *run
	m.runs[run.Fingerprint] = &cp
	m.ttls[run.Fingerprint] = ttl
	return nil
}

type mockOddsRunRepo struct {
	runs     []model.OddsRun
	failSave bool
}

func newMockOddsRunRepo() *mockOddsRunRepo {
	return &mockOddsRunRepo{}
}

func (m *mockOddsRunRepo) Save(_ context.Context, run *model.OddsRun) error {
	if m.failSave {
		return errors.New("db down")
	}
	m.runs = append(m.runs, *run)
	return nil
}

func (m *mockOddsRunRepo) FindByFingerprint(_ context.Context, fingerprint string) (*model.OddsRun, error) {
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].Fingerprint == fingerprint {
			cp := m.runs[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockOddsRunRepo) ListRecent(_ context.Context, limit int) ([]model.OddsRun, error) {
	out := make([]model.OddsRun, len(m.runs))
	copy(out, m.runs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
