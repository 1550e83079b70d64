// Package workers provides River job workers (idea embedding backfill).
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"golang.org/x/time/rate"

	"github.com/ideaboard/api/internal/models"
	"github.com/ideaboard/api/internal/observability"
	"github.com/ideaboard/api/internal/service"
)

// ideaEmbeddingStore is the minimal interface the worker needs.
type ideaEmbeddingStore interface {
	GetIdea(ctx context.Context, id uuid.UUID) (*models.Idea, error)
	SetIdeaEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

// IdeaEmbeddingWorker generates and stores vectors for ideas that were
// created while the embedding provider was down or unconfigured.
type IdeaEmbeddingWorker struct {
	river.WorkerDefaults[service.IdeaEmbeddingArgs]

	store           ideaEmbeddingStore
	embeddingClient service.EmbeddingClient
	limiter         *rate.Limiter
	metrics         observability.EmbeddingMetrics
}

// NewIdeaEmbeddingWorker creates a worker that loads the idea, calls the
// embedding provider, and stores the vector. limiter throttles provider calls
// across concurrent jobs; metrics may be nil.
func NewIdeaEmbeddingWorker(
	store ideaEmbeddingStore,
	embeddingClient service.EmbeddingClient,
	limiter *rate.Limiter,
	metrics observability.EmbeddingMetrics,
) *IdeaEmbeddingWorker {
	return &IdeaEmbeddingWorker{
		store:           store,
		embeddingClient: embeddingClient,
		limiter:         limiter,
		metrics:         metrics,
	}
}

const ideaEmbeddingTimeout = 30 * time.Second

// Timeout limits how long a single embedding job can run.
func (w *IdeaEmbeddingWorker) Timeout(*river.Job[service.IdeaEmbeddingArgs]) time.Duration {
	return ideaEmbeddingTimeout
}

// Work loads the idea, generates its vector, and persists it. Ideas that
// disappeared or already carry a vector are skipped without retry.
func (w *IdeaEmbeddingWorker) Work(ctx context.Context, job *river.Job[service.IdeaEmbeddingArgs]) error {
	args := job.Args
	start := time.Now()

	idea, err := w.store.GetIdea(ctx, args.IdeaID)
	if err != nil {
		if w.metrics != nil {
			w.metrics.RecordWorkerError(ctx, "get_idea_failed")
			w.metrics.RecordOutcome(ctx, "error")
		}

		slog.Error("embedding backfill: get idea failed",
			"idea_id", args.IdeaID,
			"error", err,
		)

		return nil // no retry when the idea is gone
	}

	if idea.Embedding != nil {
		if w.metrics != nil {
			w.metrics.RecordOutcome(ctx, "skipped")
		}

		slog.Info("embedding backfill: skipped (vector already present)", "idea_id", args.IdeaID)

		return nil
	}

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			if w.metrics != nil {
				w.metrics.RecordWorkerError(ctx, "rate_wait_failed")
			}

			return fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	embedding, err := w.embeddingClient.CreateEmbedding(ctx, service.TruncateEmbeddingInput(idea.RawInputText))
	if err != nil {
		isLastAttempt := job.Attempt >= job.MaxAttempts

		if w.metrics != nil {
			w.metrics.RecordWorkerError(ctx, "provider_failed")
			w.metrics.RecordOutcome(ctx, "error")
			w.metrics.RecordDuration(ctx, time.Since(start), "error")
		}

		if isLastAttempt {
			slog.Error("embedding backfill: provider failed (final attempt)",
				"idea_id", args.IdeaID,
				"error", err,
			)

			return nil
		}

		return fmt.Errorf("create embedding: %w", err)
	}

	if err := w.store.SetIdeaEmbedding(ctx, args.IdeaID, embedding); err != nil {
		if w.metrics != nil {
			w.metrics.RecordWorkerError(ctx, "update_failed")
			w.metrics.RecordOutcome(ctx, "error")
		}

		slog.Error("embedding backfill: set embedding failed",
			"idea_id", args.IdeaID,
			"error", err,
		)

		return fmt.Errorf("set idea embedding: %w", err)
	}

	slog.Info("embedding backfill: stored", "idea_id", args.IdeaID)

	if w.metrics != nil {
		w.metrics.RecordOutcome(ctx, "ok")
		w.metrics.RecordDuration(ctx, time.Since(start), "ok")
	}

	return nil
}
