package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freeeve/battle-odds/internal/odds"
)

func testRequest() odds.Request {
	return odds.Request{
		Territory: "ukraine",
		Attack:    "infantry=3,armour=1",
		Defend:    "infantry=2",
		Runs:      200,
		Seed:      7,
	}
}

func TestOddsService_CalculateStoresResult(t *testing.T) {
	cache := newMockOddsCache()
	repo := newMockOddsRunRepo()
	svc := NewOddsService(nil, cache, repo, time.Hour, 2)
	req := testRequest()

	run, cached, err := svc.Calculate(context.Background(), req)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if cached {
		t.Error("first calculation should not be cached")
	}
	if run.ID == "" {
		t.Error("expected run ID")
	}
	if run.Runs != req.Runs {
		t.Errorf("expected %d runs, got %d", req.Runs, run.Runs)
	}
	sum := run.AttackerWin + run.DefenderWin + run.Draw
	if sum < 99.99 || sum > 100.01 {
		t.Errorf("expected outcome percentages to sum to 100, got %f", sum)
	}
	if len(repo.runs) != 1 {
		t.Fatalf("expected 1 archived run, got %d", len(repo.runs))
	}
	if got := cache.ttls[run.Fingerprint]; got != time.Hour {
		t.Errorf("expected cache TTL 1h, got %v", got)
	}
}

func TestOddsService_CacheHitSkipsSimulation(t *testing.T) {
	cache := newMockOddsCache()
	repo := newMockOddsRunRepo()
	svc := NewOddsService(nil, cache, repo, time.Hour, 1)
	ctx := context.Background()
	req := testRequest()

	first, _, err := svc.Calculate(ctx, req)
	if err != nil {
		t.Fatalf("first calculate: %v", err)
	}
	second, cached, err := svc.Calculate(ctx, req)
	if err != nil {
		t.Fatalf("second calculate: %v", err)
	}
	if !cached {
		t.Error("expected second calculation to be served from cache")
	}
	if second.ID != first.ID {
		t.Errorf("expected cached run %s, got %s", first.ID, second.ID)
	}
	if len(repo.runs) != 1 {
		t.Errorf("expected no new archive entry, got %d entries", len(repo.runs))
	}
}

func TestOddsService_ArchiveHitRefreshesCache(t *testing.T) {
	repo := newMockOddsRunRepo()
	ctx := context.Background()
	req := testRequest()

	first, _, err := NewOddsService(nil, nil, repo, time.Hour, 1).Calculate(ctx, req)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	cache := newMockOddsCache()
	svc := NewOddsService(nil, cache, repo, time.Minute, 1)
	run, cached, err := svc.Calculate(ctx, req)
	if err != nil {
		t.Fatalf("calculate again: %v", err)
	}
	if !cached || run.ID != first.ID {
		t.Fatalf("expected archived run %s, got %s (cached=%v)", first.ID, run.ID, cached)
	}
	if _, ok := cache.runs[first.Fingerprint]; !ok {
		t.Error("expected archive hit to be written to the cache")
	}
}

func TestOddsService_CacheFailuresAreNotFatal(t *testing.T) {
	cache := newMockOddsCache()
	cache.failGet = true
	cache.failSet = true
	svc := NewOddsService(nil, cache, nil, time.Hour, 1)

	run, cached, err := svc.Calculate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if cached || run == nil {
		t.Fatalf("expected fresh run, got %+v (cached=%v)", run, cached)
	}
	if cache.gets != 1 {
		t.Errorf("expected 1 cache lookup, got %d", cache.gets)
	}
}

func TestOddsService_ArchiveFailureIsReturned(t *testing.T) {
	repo := newMockOddsRunRepo()
	repo.failSave = true
	svc := NewOddsService(nil, nil, repo, time.Hour, 1)

	if _, _, err := svc.Calculate(context.Background(), testRequest()); err == nil {
		t.Fatal("expected archive error")
	}
}

func TestOddsService_InvalidRequest(t *testing.T) {
	svc := NewOddsService(nil, nil, nil, 0, 1)
	tests := []struct {
		name string
		req  odds.Request
	}{
		{"unknown unit", odds.Request{Attack: "zeppelin=2", Defend: "infantry=1", Runs: 10}},
		{"no attackers", odds.Request{Attack: "", Defend: "infantry=1", Runs: 10}},
		{"bad count", odds.Request{Attack: "infantry=x", Defend: "infantry=1", Runs: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Calculate(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestOddsService_ZeroRunsFails(t *testing.T) {
	svc := NewOddsService(nil, nil, nil, 0, 1)
	req := testRequest()
	req.Runs = 0

	_, _, err := svc.Calculate(context.Background(), req)
	if err == nil {
		t.Fatal("expected error for zero runs")
	}
	if errors.Is(err, ErrInvalidRequest) {
		t.Errorf("zero runs is rejected by the calculator, got %v", err)
	}
}

func TestOddsService_RecentWithoutArchive(t *testing.T) {
	svc := NewOddsService(nil, nil, nil, 0, 1)
	runs, err := svc.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestOddsService_Recent(t *testing.T) {
	repo := newMockOddsRunRepo()
	svc := NewOddsService(nil, nil, repo, 0, 1)
	ctx := context.Background()

	for _, seed := range []int64{1, 2, 3} {
		req := testRequest()
		req.Seed = seed
		req.Runs = 20
		if _, _, err := svc.Calculate(ctx, req); err != nil {
			t.Fatalf("calculate seed %d: %v", seed, err)
		}
	}
	runs, err := svc.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestOddsService_ProgressOnlyForFreshRuns(t *testing.T) {
	cache := newMockOddsCache()
	svc := NewOddsService(nil, cache, nil, time.Hour, 2)
	ctx := context.Background()
	req := testRequest()

	calls := 0
	progress := func(done, total int) { calls++ }

	if _, _, err := svc.CalculateWithProgress(ctx, req, progress); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if calls != req.Runs {
		t.Errorf("expected %d progress calls, got %d", req.Runs, calls)
	}

	calls = 0
	_, cached, err := svc.CalculateWithProgress(ctx, req, progress)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if !cached || calls != 0 {
		t.Errorf("expected cached result without progress, got cached=%v calls=%d", cached, calls)
	}
}

func TestOddsService_RandomSeedIsNeverServedFromStore(t *testing.T) {
	cache := newMockOddsCache()
	repo := newMockOddsRunRepo()
	svc := NewOddsService(nil, cache, repo, time.Hour, 2)
	ctx := context.Background()
	req := testRequest()
	req.Seed = 0

	for i := 0; i < 2; i++ {
		_, cached, err := svc.Calculate(ctx, req)
		if err != nil {
			t.Fatalf("calculate %d: %v", i, err)
		}
		if cached {
			t.Errorf("calculation %d with a random seed was served from store", i)
		}
	}
	if len(repo.runs) != 2 {
		t.Errorf("expected 2 archived runs, got %d", len(repo.runs))
	}
	if cache.gets != 0 || len(cache.runs) != 0 {
		t.Errorf("expected the cache untouched, got %d reads and %d entries", cache.gets, len(cache.runs))
	}
}
