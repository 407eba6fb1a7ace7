package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/freeeve/battle-odds/internal/service"

// Result sources recorded on the calculations counter.
const (
	sourceFresh   = "fresh"
	sourceCache   = "cache"
	sourceArchive = "archive"
)

type oddsMetrics struct {
	calculations metric.Int64Counter
	battles      metric.Int64Counter
	duration     metric.Float64Histogram
}

// newOddsMetrics registers instruments on the global meter (no-op unless a
// provider is installed). On failure it falls back to a no-op meter.
func newOddsMetrics() *oddsMetrics {
	m, err := registerOddsMetrics(otel.Meter(instrumentationName))
	if err != nil {
		log.Warn().Err(err).Msg("odds: metrics disabled")
		m, _ = registerOddsMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return m
}

func registerOddsMetrics(meter metric.Meter) (*oddsMetrics, error) {
	var m oddsMetrics
	var err error

	m.calculations, err = meter.Int64Counter(
		"odds.calculations",
		metric.WithDescription("Odds requests answered, by result source"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating calculations counter: %w", err)
	}

	m.battles, err = meter.Int64Counter(
		"odds.battles.simulated",
		metric.WithDescription("Battles simulated for fresh calculations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating battles counter: %w", err)
	}

	m.duration, err = meter.Float64Histogram(
		"odds.calculation.duration",
		metric.WithDescription("Wall time of fresh calculations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	return &m, nil
}

func (m *oddsMetrics) served(ctx context.Context, source string) {
	m.calculations.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

func (m *oddsMetrics) simulated(ctx context.Context, battles int, elapsed time.Duration) {
	m.served(ctx, sourceFresh)
	m.battles.Add(ctx, int64(battles))
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000)
}
