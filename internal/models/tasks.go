package models

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses. A task is claimable only while open; setting it back to open
// releases the claim.
const (
	TaskStatusOpen       = "open"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// ValidTaskStatus reports whether s is one of the three task statuses.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// Effort estimates produced by spec generation.
const (
	EffortSmall  = "S"
	EffortMedium = "M"
	EffortLarge  = "L"
	EffortXLarge = "XL"
)

// Task is one implementable unit of an idea's generated specification.
type Task struct {
	ID                 uuid.UUID  `json:"id"`
	IdeaID             uuid.UUID  `json:"idea_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	AcceptanceCriteria string     `json:"acceptance_criteria"`
	Effort             string     `json:"effort"`
	Status             string     `json:"status"`
	ClaimedByAnonID    *string    `json:"claimed_by_anon_id,omitempty"`
	ClaimedAt          *time.Time `json:"claimed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	Links              []TaskLink `json:"links"`
}

// TaskLink is a user-attached link on a task (PR, doc, prototype).
type TaskLink struct {
	ID              uuid.UUID `json:"id"`
	TaskID          uuid.UUID `json:"task_id"`
	URL             string    `json:"url"`
	Label           string    `json:"label"`
	CreatedByAnonID string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// UpdateTaskStatusRequest sets a task's status.
type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

// CreateTaskLinkRequest attaches a link to a task.
type CreateTaskLinkRequest struct {
	URL   string  `json:"url"`
	Label *string `json:"label,omitempty"`
}
