package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/ideaboard/api/internal/api/middleware"
	"github.com/ideaboard/api/internal/api/response"
	"github.com/ideaboard/api/internal/models"
)

// TasksService defines the interface for task business logic.
type TasksService interface {
	Claim(ctx context.Context, taskID uuid.UUID, anonID string) (*models.Task, error)
	Unclaim(ctx context.Context, taskID uuid.UUID, anonID string) (*models.Task, error)
	UpdateStatus(ctx context.Context, taskID uuid.UUID, anonID, status string) (*models.Task, error)
	AddLink(ctx context.Context, taskID uuid.UUID, anonID string, req *models.CreateTaskLinkRequest) (*models.TaskLink, error)
	DeleteLink(ctx context.Context, linkID uuid.UUID, anonID string) error
}

// TasksHandler handles HTTP requests for tasks and task links.
type TasksHandler struct {
	service TasksService
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(service TasksService) *TasksHandler {
	return &TasksHandler{service: service}
}

func taskIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid task ID")

		return uuid.Nil, false
	}

	return id, true
}

// Claim handles POST /v1/tasks/{id}/claim.
func (h *TasksHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	task, err := h.service.Claim(r.Context(), id, middleware.AnonIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, task)
}

// Unclaim handles DELETE /v1/tasks/{id}/claim.
func (h *TasksHandler) Unclaim(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	task, err := h.service.Unclaim(r.Context(), id, middleware.AnonIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, task)
}

// UpdateStatus handles PATCH /v1/tasks/{id}/status.
func (h *TasksHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	var req models.UpdateTaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	task, err := h.service.UpdateStatus(r.Context(), id, middleware.AnonIDFromContext(r.Context()), req.Status)
	if err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, task)
}

// AddLink handles POST /v1/tasks/{id}/links.
func (h *TasksHandler) AddLink(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	var req models.CreateTaskLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	link, err := h.service.AddLink(r.Context(), id, middleware.AnonIDFromContext(r.Context()), &req)
	if err != nil {
		respondServiceError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusCreated, link)
}

// DeleteLink handles DELETE /v1/task-links/{id}.
func (h *TasksHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid link ID")

		return
	}

	if err := h.service.DeleteLink(r.Context(), id, middleware.AnonIDFromContext(r.Context())); err != nil {
		respondServiceError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
