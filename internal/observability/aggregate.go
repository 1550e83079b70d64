package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// NewMetrics creates every collector group from the given meter.
// Returns (nil, nil) when meter is nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	httpMetrics, err := NewHTTPMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	embeddings, err := NewEmbeddingMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("embedding metrics: %w", err)
	}

	cache, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	rateLimit, err := NewRateLimitMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("rate limit metrics: %w", err)
	}

	ranking, err := NewRankingMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("ranking metrics: %w", err)
	}

	return &Metrics{
		HTTP:       httpMetrics,
		Embeddings: embeddings,
		Cache:      cache,
		RateLimit:  rateLimit,
		Ranking:    ranking,
	}, nil
}
