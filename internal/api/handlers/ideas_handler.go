package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ideaboard/api/internal/api/middleware"
	"github.com/ideaboard/api/internal/api/response"
	"github.com/ideaboard/api/internal/models"
)

// IdeasService defines the interface for idea business logic.
type IdeasService interface {
	CreateIdea(ctx context.Context, anonID, clientIP string, req *models.CreateIdeaRequest) (*models.IdeaDetail, error)
	ListIdeas(ctx context.Context, filters models.ListIdeasFilters) (*models.ListIdeasResponse, error)
	GetIdeaDetail(ctx context.Context, ideaID uuid.UUID, anonID string) (*models.IdeaDetail, error)
	Upvote(ctx context.Context, ideaID uuid.UUID, anonID string) error
	RemoveUpvote(ctx context.Context, ideaID uuid.UUID, anonID string) error
	ListComments(ctx context.Context, ideaID uuid.UUID) ([]models.Comment, error)
	CreateComment(ctx context.Context, ideaID uuid.UUID, anonID string, req *models.CreateCommentRequest) (*models.Comment, error)
}

// IdeasHandler handles HTTP requests for ideas, votes, and comments.
type IdeasHandler struct {
	service IdeasService
}

// NewIdeasHandler creates a new ideas handler.
func NewIdeasHandler(service IdeasService) *IdeasHandler {
	return &IdeasHandler{service: service}
}

// clientIP returns the originating client address: the first X-Forwarded-For
// entry when present (set by the fronting proxy), else the connection address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")

		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// ideaIDFromPath parses the {id} path segment.
func ideaIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid idea ID")

		return uuid.Nil, false
	}

	return id, true
}

// Create handles POST /v1/ideas.
func (h *IdeasHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateIdeaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	anonID := middleware.AnonIDFromContext(r.Context())

	detail, err := h.service.CreateIdea(r.Context(), anonID, clientIP(r), &req)
	if err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusCreated, detail)
}

// List handles GET /v1/ideas.
func (h *IdeasHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := models.ListIdeasFilters{
		Sort:   query.Get("sort"),
		Search: query.Get("search"),
	}

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			response.RespondBadRequest(w, "limit must be an integer")

			return
		}

		filters.Limit = limit
	}

	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			response.RespondBadRequest(w, "offset must be an integer")

			return
		}

		filters.Offset = offset
	}

	resp, err := h.service.ListIdeas(r.Context(), filters)
	if err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}

// Get handles GET /v1/ideas/{id}.
func (h *IdeasHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ideaIDFromPath(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetIdeaDetail(r.Context(), id, middleware.AnonIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, detail)
}

// Upvote handles POST /v1/ideas/{id}/upvote.
func (h *IdeasHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	id, ok := ideaIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.service.Upvote(r.Context(), id, middleware.AnonIDFromContext(r.Context())); err != nil {
		respondServiceError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveUpvote handles DELETE /v1/ideas/{id}/upvote.
func (h *IdeasHandler) RemoveUpvote(w http.ResponseWriter, r *http.Request) {
	id, ok := ideaIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveUpvote(r.Context(), id, middleware.AnonIDFromContext(r.Context())); err != nil {
		respondServiceError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListComments handles GET /v1/ideas/{id}/comments.
func (h *IdeasHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := ideaIDFromPath(w, r)
	if !ok {
		return
	}

	comments, err := h.service.ListComments(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)

		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}

	response.RespondJSON(w, http.StatusOK, comments)
}

// CreateComment handles POST /v1/ideas/{id}/comments.
func (h *IdeasHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := ideaIDFromPath(w, r)
	if !ok {
		return
	}

	var req models.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	comment, err := h.service.CreateComment(r.Context(), id, middleware.AnonIDFromContext(r.Context()), &req)
	if err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusCreated, comment)
}
