// Package service contains the idea board's business logic: idea submission
// with spec generation and best-effort embedding, feed ranking, semantic
// search, votes, comments, task claiming, and anonymous profiles.
package service

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/ideaboard/api/internal/observability"
)

// MaxEmbeddingInputChars is the longest text sent to the embedding provider.
// Longer submissions are truncated, not rejected.
const MaxEmbeddingInputChars = 8000

const defaultEmbeddingTimeout = 10 * time.Second

// TruncateEmbeddingInput caps text at MaxEmbeddingInputChars. The cut is by
// byte to match the provider's own accounting of oversized input, backed off
// to the previous rune boundary so the result stays valid UTF-8.
func TruncateEmbeddingInput(text string) string {
	if len(text) <= MaxEmbeddingInputChars {
		return text
	}

	cut := MaxEmbeddingInputChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	return text[:cut]
}

// EmbeddingClient creates one embedding vector for the given input.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// EmbeddingGateway wraps the embedding provider with the board's failure
// policy: truncate oversized input, bound the call with a timeout, and absorb
// every provider error into a nil vector so idea creation never fails on
// embeddings.
type EmbeddingGateway struct {
	client  EmbeddingClient
	timeout time.Duration
	metrics observability.EmbeddingMetrics
	logger  *slog.Logger
}

// NewEmbeddingGateway creates an EmbeddingGateway. client may be nil (no
// provider configured); metrics may be nil; a zero timeout uses the default.
func NewEmbeddingGateway(client EmbeddingClient, timeout time.Duration, metrics observability.EmbeddingMetrics, logger *slog.Logger) *EmbeddingGateway {
	if timeout <= 0 {
		timeout = defaultEmbeddingTimeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &EmbeddingGateway{client: client, timeout: timeout, metrics: metrics, logger: logger}
}

// Embed returns the embedding vector for text, or nil when no provider is
// configured or the provider call fails. Callers treat nil as "no vector":
// the idea is stored without one and excluded from similarity results.
func (g *EmbeddingGateway) Embed(ctx context.Context, text string) []float32 {
	if g == nil || g.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()

	vector, err := g.client.CreateEmbedding(ctx, TruncateEmbeddingInput(text))
	if err != nil {
		g.logger.Warn("embedding generation failed, storing idea without vector", "error", err)

		if g.metrics != nil {
			g.metrics.RecordOutcome(ctx, "error")
			g.metrics.RecordDuration(ctx, time.Since(start), "error")
		}

		return nil
	}

	if g.metrics != nil {
		g.metrics.RecordOutcome(ctx, "ok")
		g.metrics.RecordDuration(ctx, time.Since(start), "ok")
	}

	return vector
}
