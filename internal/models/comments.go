package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is one anonymous comment on an idea. Nickname is a denormalized
// snapshot of the author's nickname at posting time.
type Comment struct {
	ID              uuid.UUID `json:"id"`
	IdeaID          uuid.UUID `json:"idea_id"`
	Body            string    `json:"body"`
	CreatedByAnonID string    `json:"-"`
	Nickname        *string   `json:"nickname,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateCommentRequest is the comment submission payload.
type CreateCommentRequest struct {
	Body string `json:"body"`
}
