package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ideaboard/api/internal/api/response"
	"github.com/ideaboard/api/internal/models"
	"github.com/ideaboard/api/internal/service"
)

// SearchService defines the interface for semantic search.
type SearchService interface {
	SemanticSearch(ctx context.Context, query string, topK int) ([]models.SimilarIdea, error)
}

// SearchHandler handles semantic search requests.
type SearchHandler struct {
	service SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// Semantic handles GET /v1/ideas/search/semantic.
func (h *SearchHandler) Semantic(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	topK := 0

	if v := query.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			response.RespondBadRequest(w, "limit must be an integer")

			return
		}

		topK = parsed
	}

	results, err := h.service.SemanticSearch(r.Context(), query.Get("q"), topK)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			response.RespondBadRequest(w, err.Error())

			return
		}

		response.RespondBadGateway(w, "Search is temporarily unavailable")

		return
	}

	response.RespondJSON(w, http.StatusOK, results)
}
