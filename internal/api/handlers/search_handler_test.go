package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideaboard/api/internal/models"
	"github.com/ideaboard/api/internal/service"
)

// mockSearchService mocks SearchService for handler tests.
type mockSearchService struct {
	semanticSearchFunc func(ctx context.Context, query string, topK int) ([]models.SimilarIdea, error)
}

func (m *mockSearchService) SemanticSearch(ctx context.Context, query string, topK int) ([]models.SimilarIdea, error) {
	if m.semanticSearchFunc != nil {
		return m.semanticSearchFunc(ctx, query, topK)
	}

	return []models.SimilarIdea{}, nil
}

func TestSearchHandler_Semantic(t *testing.T) {
	t.Run("success returns ranked results", func(t *testing.T) {
		mock := &mockSearchService{
			semanticSearchFunc: func(_ context.Context, query string, topK int) ([]models.SimilarIdea, error) {
				assert.Equal(t, "mentor matching", query)
				assert.Equal(t, 3, topK)

				return []models.SimilarIdea{
					{ID: uuid.New(), Title: "Mentor Match", Similarity: 0.91},
					{ID: uuid.New(), Title: "Code review buddies", Similarity: 0.64},
				}, nil
			},
		}
		h := NewSearchHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/ideas/search/semantic?q=mentor+matching&limit=3", http.NoBody)
		rec := httptest.NewRecorder()

		h.Semantic(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var results []models.SimilarIdea

		err := json.Unmarshal(rec.Body.Bytes(), &results)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Mentor Match", results[0].Title)
	})

	t.Run("missing limit defaults to zero", func(t *testing.T) {
		var captured int

		mock := &mockSearchService{
			semanticSearchFunc: func(_ context.Context, _ string, topK int) ([]models.SimilarIdea, error) {
				captured = topK

				return []models.SimilarIdea{}, nil
			},
		}
		h := NewSearchHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/ideas/search/semantic?q=mentor", http.NoBody)
		rec := httptest.NewRecorder()

		h.Semantic(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, captured)
	})

	t.Run("non-integer limit returns 400", func(t *testing.T) {
		h := NewSearchHandler(&mockSearchService{})

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/ideas/search/semantic?q=mentor&limit=ten", http.NoBody)
		rec := httptest.NewRecorder()

		h.Semantic(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty query returns 400", func(t *testing.T) {
		mock := &mockSearchService{
			semanticSearchFunc: func(context.Context, string, int) ([]models.SimilarIdea, error) {
				return nil, service.ErrEmptyQuery
			},
		}
		h := NewSearchHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/ideas/search/semantic", http.NoBody)
		rec := httptest.NewRecorder()

		h.Semantic(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider failure returns 502", func(t *testing.T) {
		mock := &mockSearchService{
			semanticSearchFunc: func(context.Context, string, int) ([]models.SimilarIdea, error) {
				return nil, errors.New("embedding provider unavailable")
			},
		}
		h := NewSearchHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/ideas/search/semantic?q=mentor", http.NoBody)
		rec := httptest.NewRecorder()

		h.Semantic(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}
