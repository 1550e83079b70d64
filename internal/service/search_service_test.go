package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideaboard/api/internal/models"
)

type mockRankingReader struct {
	listFunc func(ctx context.Context) ([]models.RankingCandidate, error)
}

func (m *mockRankingReader) ListForRanking(ctx context.Context) ([]models.RankingCandidate, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}

	return nil, nil
}

func TestSearchService_SemanticSearch(t *testing.T) {
	t.Run("empty query returns ErrEmptyQuery", func(t *testing.T) {
		svc := NewSearchService(SearchServiceParams{
			EmbeddingClient: &mockEmbeddingClient{},
			IdeasRepo:       &mockRankingReader{},
		})

		results, err := svc.SemanticSearch(context.Background(), "   ", 5)
		assert.Nil(t, results)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("embedding failure surfaces as error", func(t *testing.T) {
		svc := NewSearchService(SearchServiceParams{
			EmbeddingClient: &mockEmbeddingClient{
				createFunc: func(_ context.Context, _ string) ([]float32, error) {
					return nil, errors.New("provider down")
				},
			},
			IdeasRepo: &mockRankingReader{},
		})

		_, err := svc.SemanticSearch(context.Background(), "team chores", 5)
		assert.Error(t, err)
	})

	t.Run("ranks candidates against the query vector", func(t *testing.T) {
		nearby := models.RankingCandidate{ID: uuid.New(), Title: "close", Embedding: []float32{1, 0}}
		far := models.RankingCandidate{ID: uuid.New(), Title: "far", Embedding: []float32{0, 1}}

		svc := NewSearchService(SearchServiceParams{
			EmbeddingClient: &mockEmbeddingClient{
				createFunc: func(_ context.Context, _ string) ([]float32, error) {
					return []float32{1, 0}, nil
				},
			},
			IdeasRepo: &mockRankingReader{
				listFunc: func(_ context.Context) ([]models.RankingCandidate, error) {
					return []models.RankingCandidate{far, nearby}, nil
				},
			},
		})

		results, err := svc.SemanticSearch(context.Background(), "team chores", 5)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, nearby.ID, results[0].ID)
	})

	t.Run("identical queries share one provider call through the cache", func(t *testing.T) {
		var calls atomic.Int32

		cache, err := lru.New[string, []float32](16)
		require.NoError(t, err)

		svc := NewSearchService(SearchServiceParams{
			EmbeddingClient: &mockEmbeddingClient{
				createFunc: func(_ context.Context, _ string) ([]float32, error) {
					calls.Add(1)

					return []float32{1, 0}, nil
				},
			},
			IdeasRepo:  &mockRankingReader{},
			QueryCache: cache,
		})

		for i := 0; i < 3; i++ {
			_, err := svc.SemanticSearch(context.Background(), "same query", 5)
			require.NoError(t, err)
		}

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("requested top-K above the service cap is clamped", func(t *testing.T) {
		candidates := make([]models.RankingCandidate, 10)
		for i := range candidates {
			candidates[i] = models.RankingCandidate{ID: uuid.New(), Title: "idea", Embedding: []float32{1, 0}}
		}

		svc := NewSearchService(SearchServiceParams{
			EmbeddingClient: &mockEmbeddingClient{
				createFunc: func(_ context.Context, _ string) ([]float32, error) {
					return []float32{1, 0}, nil
				},
			},
			IdeasRepo: &mockRankingReader{
				listFunc: func(_ context.Context) ([]models.RankingCandidate, error) {
					return candidates, nil
				},
			},
			TopK: 4,
		})

		results, err := svc.SemanticSearch(context.Background(), "anything", 100)
		require.NoError(t, err)
		assert.Len(t, results, 4)
	})
}
