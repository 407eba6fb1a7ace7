package repository

import (
	"context"
	"time"

	"github.com/freeeve/battle-odds/internal/model"
)

// OddsRunRepository archives completed odds calculations (Postgres).
type OddsRunRepository interface {
	Save(ctx context.Context, run *model.OddsRun) error
	FindByFingerprint(ctx context.Context, fingerprint string) (*model.OddsRun, error)
	ListRecent(ctx context.Context, limit int) ([]model.OddsRun, error)
}

// OddsCache holds recent odds results keyed by input fingerprint (Redis).
type OddsCache interface {
	GetRun(ctx context.Context, fingerprint string) (*model.OddsRun, error)
	SetRun(ctx context.Context, run *model.OddsRun, ttl time.Duration) error
}
