package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/ideaboard/api/internal/boarderrors"
	"github.com/ideaboard/api/internal/models"
)

const maxLinkLabelLen = 200

// TasksRepository is the task persistence surface the service needs.
type TasksRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListByIdea(ctx context.Context, ideaID uuid.UUID) ([]models.Task, error)
	Claim(ctx context.Context, id uuid.UUID, anonID string) (*models.Task, error)
	Release(ctx context.Context, id uuid.UUID) (*models.Task, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Task, error)
	CreateLink(ctx context.Context, taskID uuid.UUID, url, label, anonID string) (*models.TaskLink, error)
	GetLinkByID(ctx context.Context, id uuid.UUID) (*models.TaskLink, error)
	DeleteLink(ctx context.Context, id uuid.UUID) error
}

// TasksService implements the task claim state machine and task links.
type TasksService struct {
	repo TasksRepository
}

// NewTasksService creates a TasksService.
func NewTasksService(repo TasksRepository) *TasksService {
	return &TasksService{repo: repo}
}

// Claim assigns an open task to the caller. Claiming a task that is already
// claimed or past open is a conflict; the claim itself is a conditional
// update, so two racing claims resolve to one winner.
func (s *TasksService) Claim(ctx context.Context, taskID uuid.UUID, anonID string) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	if task.Status != models.TaskStatusOpen || task.ClaimedByAnonID != nil {
		return nil, boarderrors.NewConflictError("task is already claimed")
	}

	claimed, err := s.repo.Claim(ctx, taskID, anonID)
	if err != nil {
		return nil, fmt.Errorf("claim task: %w", err)
	}

	return claimed, nil
}

// Unclaim releases the caller's claim and resets the task to open. Only the
// claimant may release; an unclaimed task is a conflict.
func (s *TasksService) Unclaim(ctx context.Context, taskID uuid.UUID, anonID string) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	if task.ClaimedByAnonID == nil {
		return nil, boarderrors.NewConflictError("task is not claimed")
	}

	if *task.ClaimedByAnonID != anonID {
		return nil, boarderrors.NewForbiddenError("task is not claimed by you")
	}

	released, err := s.repo.Release(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("release task: %w", err)
	}

	return released, nil
}

// UpdateStatus moves a task between open, in_progress, and done. Only the
// claimant may advance a claimed task; setting a task back to open releases
// the claim.
func (s *TasksService) UpdateStatus(ctx context.Context, taskID uuid.UUID, anonID, status string) (*models.Task, error) {
	if !models.ValidTaskStatus(status) {
		return nil, boarderrors.NewValidationError("status", "status must be open, in_progress, or done")
	}

	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	if task.ClaimedByAnonID == nil || *task.ClaimedByAnonID != anonID {
		return nil, boarderrors.NewForbiddenError("task is not claimed by you")
	}

	if status == models.TaskStatusOpen {
		released, err := s.repo.Release(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("release task: %w", err)
		}

		return released, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, taskID, status)
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}

	return updated, nil
}

// AddLink attaches a URL to a task. Any caller may attach links, not just the
// claimant; the link records its creator for deletion checks.
func (s *TasksService) AddLink(ctx context.Context, taskID uuid.UUID, anonID string, req *models.CreateTaskLinkRequest) (*models.TaskLink, error) {
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, boarderrors.NewValidationError("url", "url must be a valid http or https URL")
	}

	label := ""
	if req.Label != nil {
		label = *req.Label
	}

	if len(label) > maxLinkLabelLen {
		return nil, boarderrors.NewValidationError("label",
			fmt.Sprintf("label must be at most %d characters", maxLinkLabelLen))
	}

	if _, err := s.repo.GetByID(ctx, taskID); err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	link, err := s.repo.CreateLink(ctx, taskID, req.URL, label, anonID)
	if err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	return link, nil
}

// DeleteLink removes a link. Only its creator may delete it.
func (s *TasksService) DeleteLink(ctx context.Context, linkID uuid.UUID, anonID string) error {
	link, err := s.repo.GetLinkByID(ctx, linkID)
	if err != nil {
		return fmt.Errorf("get link: %w", err)
	}

	if link.CreatedByAnonID != anonID {
		return boarderrors.NewForbiddenError("link was added by someone else")
	}

	if err := s.repo.DeleteLink(ctx, linkID); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}

	return nil
}
