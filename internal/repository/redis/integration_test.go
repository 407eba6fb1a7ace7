//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/freeeve/battle-odds/internal/model"
	"github.com/freeeve/battle-odds/internal/testutil"
)

var testRDB *goredis.Client

func setup(t *testing.T) *Client {
	t.Helper()
	if testRDB == nil {
		testRDB = testutil.SetupRedis(t)
	}
	testutil.CleanupRedis(t, testRDB)
	return NewClientFromPool(testRDB)
}

func TestOddsRunRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	run := &model.OddsRun{
		ID:           "run-1",
		Fingerprint:  "fp-abc",
		Territory:    "karelia",
		AttackerSpec: "infantry=3,armour=2",
		DefenderSpec: "infantry=4",
		Runs:         1000,
		AttackerWin:  61.5,
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := c.SetRun(ctx, run, time.Minute); err != nil {
		t.Fatalf("set run: %v", err)
	}

	got, err := c.GetRun(ctx, "fp-abc")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got == nil {
		t.Fatal("expected cached run")
	}
	if got.ID != "run-1" || got.AttackerWin != 61.5 || got.Territory != "karelia" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", run.CreatedAt, got.CreatedAt)
	}
}

func TestOddsRunMiss(t *testing.T) {
	c := setup(t)
	got, err := c.GetRun(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil on miss, got %+v", got)
	}
}

func TestOddsRunTTL(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	if err := c.SetRun(ctx, &model.OddsRun{ID: "r", Fingerprint: "fp-ttl"}, time.Hour); err != nil {
		t.Fatalf("set run: %v", err)
	}
	ttl, err := testRDB.TTL(ctx, oddsKey("fp-ttl")).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("expected ttl within an hour, got %v", ttl)
	}

	if err := c.SetRun(ctx, &model.OddsRun{ID: "r", Fingerprint: "fp-forever"}, 0); err != nil {
		t.Fatalf("set run: %v", err)
	}
	ttl, err = testRDB.TTL(ctx, oddsKey("fp-forever")).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl != -1 {
		t.Errorf("expected no expiry, got %v", ttl)
	}
}
