package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RateLimitMetrics records submission rejections by scope (anon, ip).
type RateLimitMetrics interface {
	RecordRejection(ctx context.Context, scope string)
}

// rateLimitMetrics implements RateLimitMetrics.
type rateLimitMetrics struct {
	rejections metric.Int64Counter
}

// NewRateLimitMetrics creates RateLimitMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewRateLimitMetrics(meter metric.Meter) (RateLimitMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	rejections, err := meter.Int64Counter(
		MetricNameRateLimitRejections,
		metric.WithDescription("Idea submissions rejected by the per-anon or per-IP quota"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create rate limit rejections counter: %w", err)
	}

	return &rateLimitMetrics{rejections: rejections}, nil
}

func (m *rateLimitMetrics) RecordRejection(ctx context.Context, scope string) {
	if !AllowedRateLimitScopes[scope] {
		scope = "other"
	}

	m.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrScope, scope)))
}
