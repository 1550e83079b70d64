package models

import (
	"time"

	"github.com/google/uuid"
)

// Feature is one LLM-generated feature of an idea's specification.
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Idea represents one submitted idea with its generated specification.
// Embedding is nil when vector generation failed or has not run; it is never
// serialized to clients.
type Idea struct {
	ID               uuid.UUID `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	CreatedByAnonID  string    `json:"-"`
	RawInputText     string    `json:"-"`
	Title            string    `json:"title"`
	ProblemStatement string    `json:"problem_statement"`
	Tags             []string  `json:"tags"`
	Features         []Feature `json:"features"`
	OpenQuestions    []string  `json:"open_questions"`
	UpvotesCount     int       `json:"upvotes_count"`
	CommentsCount    int       `json:"comments_count"`
	Embedding        []float32 `json:"-"`
}

// IdeaSummary is the feed-listing projection of an idea.
type IdeaSummary struct {
	ID               uuid.UUID `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Title            string    `json:"title"`
	ProblemStatement string    `json:"problem_statement"`
	Tags             []string  `json:"tags"`
	UpvotesCount     int       `json:"upvotes_count"`
	CommentsCount    int       `json:"comments_count"`
	TaskCount        int       `json:"task_count"`
	DoneTaskCount    int       `json:"done_task_count"`
}

// SimilarIdea is one entry of the similar-ideas panel. Similarity is a
// fraction in (0.3, 1]; the caller renders it as a rounded percentage.
type SimilarIdea struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Similarity float64   `json:"similarity"`
}

// IdeaDetail is the full detail-page payload for one idea.
type IdeaDetail struct {
	Idea

	CreatedByAnonID string        `json:"created_by_anon_id"`
	RawInputText    string        `json:"raw_input_text"`
	Tasks           []Task        `json:"tasks"`
	Comments        []Comment     `json:"comments"`
	HasVoted        bool          `json:"has_voted"`
	IsOwner         bool          `json:"is_owner"`
	SimilarIdeas    []SimilarIdea `json:"similar_ideas"`
}

// CreateIdeaRequest is the submission payload. Only RawInputText is required;
// the optional fields are folded into the LLM prompt.
type CreateIdeaRequest struct {
	RawInputText string  `json:"raw_input_text"`
	TargetUsers  *string `json:"target_users,omitempty"`
	Platform     *string `json:"platform,omitempty"`
	Constraints  *string `json:"constraints,omitempty"`
}

// Feed sort orders.
const (
	SortHot = "hot"
	SortNew = "new"
)

// ListIdeasFilters selects and pages the idea feed.
type ListIdeasFilters struct {
	Sort   string
	Search string
	Limit  int
	Offset int
}

// ListIdeasResponse is the paginated feed payload.
type ListIdeasResponse struct {
	Data   []IdeaSummary `json:"data"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// RankingCandidate is the minimal projection the similarity scan reads for
// every stored idea: identifier, display title, vector or nil.
type RankingCandidate struct {
	ID        uuid.UUID
	Title     string
	Embedding []float32
}
