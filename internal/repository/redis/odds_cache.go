package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/battle-odds/internal/model"
)

func oddsKey(fingerprint string) string { return "odds:" + fingerprint }

// GetRun returns the cached run for a fingerprint, or nil on a miss.
func (c *Client) GetRun(ctx context.Context, fingerprint string) (*model.OddsRun, error) {
	data, err := c.rdb.Get(ctx, oddsKey(fingerprint)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get odds run: %w", err)
	}
	var run model.OddsRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode odds run: %w", err)
	}
	return &run, nil
}

// SetRun caches a run under its fingerprint. A zero ttl keeps it forever.
func (c *Client) SetRun(ctx context.Context, run *model.OddsRun, ttl time.Duration) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode odds run: %w", err)
	}
	if err := c.rdb.Set(ctx, oddsKey(run.Fingerprint), data, ttl).Err(); err != nil {
		return fmt.Errorf("set odds run: %w", err)
	}
	return nil
}
