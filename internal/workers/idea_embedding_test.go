package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideaboard/api/internal/boarderrors"
	"github.com/ideaboard/api/internal/models"
	"github.com/ideaboard/api/internal/service"
)

type mockStore struct {
	getFunc func(ctx context.Context, id uuid.UUID) (*models.Idea, error)
	setFunc func(ctx context.Context, id uuid.UUID, embedding []float32) error
}

func (m *mockStore) GetIdea(ctx context.Context, id uuid.UUID) (*models.Idea, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}

	return &models.Idea{ID: id, RawInputText: "some raw idea text"}, nil
}

func (m *mockStore) SetIdeaEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, id, embedding)
	}

	return nil
}

type mockEmbeddingClient struct {
	createFunc func(ctx context.Context, input string) ([]float32, error)
}

func (m *mockEmbeddingClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, input)
	}

	return []float32{0.1, 0.2}, nil
}

func embeddingJob(ideaID uuid.UUID, attempt, maxAttempts int) *river.Job[service.IdeaEmbeddingArgs] {
	return &river.Job[service.IdeaEmbeddingArgs]{
		JobRow: &rivertype.JobRow{Attempt: attempt, MaxAttempts: maxAttempts},
		Args:   service.IdeaEmbeddingArgs{IdeaID: ideaID},
	}
}

func TestIdeaEmbeddingWorker_Work(t *testing.T) {
	ideaID := uuid.New()

	t.Run("generates and stores the vector", func(t *testing.T) {
		var stored []float32

		store := &mockStore{
			setFunc: func(_ context.Context, _ uuid.UUID, embedding []float32) error {
				stored = embedding

				return nil
			},
		}
		client := &mockEmbeddingClient{
			createFunc: func(_ context.Context, input string) ([]float32, error) {
				assert.Equal(t, "some raw idea text", input)

				return []float32{1, 2, 3}, nil
			},
		}

		worker := NewIdeaEmbeddingWorker(store, client, nil, nil)

		err := worker.Work(context.Background(), embeddingJob(ideaID, 1, 3))
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2, 3}, stored)
	})

	t.Run("missing idea does not retry", func(t *testing.T) {
		store := &mockStore{
			getFunc: func(_ context.Context, _ uuid.UUID) (*models.Idea, error) {
				return nil, boarderrors.NewNotFoundError("idea", "idea not found")
			},
		}

		worker := NewIdeaEmbeddingWorker(store, &mockEmbeddingClient{}, nil, nil)

		assert.NoError(t, worker.Work(context.Background(), embeddingJob(ideaID, 1, 3)))
	})

	t.Run("idea with a vector is skipped", func(t *testing.T) {
		called := false

		store := &mockStore{
			getFunc: func(_ context.Context, id uuid.UUID) (*models.Idea, error) {
				return &models.Idea{ID: id, Embedding: []float32{1}}, nil
			},
		}
		client := &mockEmbeddingClient{
			createFunc: func(_ context.Context, _ string) ([]float32, error) {
				called = true

				return nil, nil
			},
		}

		worker := NewIdeaEmbeddingWorker(store, client, nil, nil)

		require.NoError(t, worker.Work(context.Background(), embeddingJob(ideaID, 1, 3)))
		assert.False(t, called)
	})

	t.Run("provider failure retries until the final attempt", func(t *testing.T) {
		client := &mockEmbeddingClient{
			createFunc: func(_ context.Context, _ string) ([]float32, error) {
				return nil, errors.New("provider down")
			},
		}

		worker := NewIdeaEmbeddingWorker(&mockStore{}, client, nil, nil)

		err := worker.Work(context.Background(), embeddingJob(ideaID, 1, 3))
		assert.Error(t, err)

		err = worker.Work(context.Background(), embeddingJob(ideaID, 3, 3))
		assert.NoError(t, err)
	})

	t.Run("store failure surfaces for retry", func(t *testing.T) {
		store := &mockStore{
			setFunc: func(_ context.Context, _ uuid.UUID, _ []float32) error {
				return errors.New("db gone")
			},
		}

		worker := NewIdeaEmbeddingWorker(store, &mockEmbeddingClient{}, nil, nil)

		assert.Error(t, worker.Work(context.Background(), embeddingJob(ideaID, 1, 3)))
	})
}
