package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ideaboard/api/internal/api/middleware"
	"github.com/ideaboard/api/internal/api/response"
	"github.com/ideaboard/api/internal/models"
)

// AnonUsersService defines the interface for the caller's profile.
type AnonUsersService interface {
	GetProfile(ctx context.Context, anonID string) (*models.AnonUser, error)
	SetNickname(ctx context.Context, anonID, nickname string) (*models.AnonUser, error)
}

// MeHandler handles requests about the caller's own identity.
type MeHandler struct {
	service AnonUsersService
}

// NewMeHandler creates a new me handler.
func NewMeHandler(service AnonUsersService) *MeHandler {
	return &MeHandler{service: service}
}

// Get handles GET /v1/me.
func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	anonID := middleware.AnonIDFromContext(r.Context())

	profile, err := h.service.GetProfile(r.Context(), anonID)
	if err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, profile)
}

// SetNickname handles POST /v1/me/nickname.
func (h *MeHandler) SetNickname(w http.ResponseWriter, r *http.Request) {
	var req models.SetNicknameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid JSON body")

		return
	}

	anonID := middleware.AnonIDFromContext(r.Context())

	profile, err := h.service.SetNickname(r.Context(), anonID, req.Nickname)
	if err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, profile)
}
