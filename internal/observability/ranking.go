package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// RankingMetrics records similarity scan activity. The scan is an in-memory
// pass over every stored vector, so its candidate count is the number to
// watch as the board grows.
type RankingMetrics interface {
	RecordSimilarLookup(ctx context.Context, candidates int)
}

// rankingMetrics implements RankingMetrics.
type rankingMetrics struct {
	lookups  metric.Int64Counter
	scanSize metric.Int64Histogram
}

// NewRankingMetrics creates RankingMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewRankingMetrics(meter metric.Meter) (RankingMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	lookups, err := meter.Int64Counter(
		MetricNameSimilarLookups,
		metric.WithDescription("Similar-ideas lookups performed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create similar lookups counter: %w", err)
	}

	scanSize, err := meter.Int64Histogram(
		MetricNameSimilarScanSize,
		metric.WithDescription("Candidates scanned per similarity lookup"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create similar scan size histogram: %w", err)
	}

	return &rankingMetrics{lookups: lookups, scanSize: scanSize}, nil
}

func (m *rankingMetrics) RecordSimilarLookup(ctx context.Context, candidates int) {
	m.lookups.Add(ctx, 1)
	m.scanSize.Record(ctx, int64(candidates))
}
