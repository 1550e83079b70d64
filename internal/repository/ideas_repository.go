// Package repository provides pgx-based data access for the idea board.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/ideaboard/api/internal/boarderrors"
	"github.com/ideaboard/api/internal/models"
)

// errEmbeddingScanInvalidType is returned when Scan receives a type other than []byte.
var errEmbeddingScanInvalidType = errors.New("embedding: expected []byte")

// nullableEmbedding scans a vector column that may be NULL without panicking
// (pgvector.Vector.Scan panics on empty/NULL).
type nullableEmbedding []float32

func (n *nullableEmbedding) Scan(src any) error {
	if src == nil {
		*n = nil

		return nil
	}

	buf, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("%w: got %T", errEmbeddingScanInvalidType, src)
	}

	if len(buf) == 0 {
		*n = nil

		return nil
	}

	var vec pgvector.Vector

	if err := vec.DecodeBinary(buf); err != nil {
		return fmt.Errorf("embedding decode: %w", err)
	}

	*n = vec.Slice()

	return nil
}

// embeddingParam converts a vector to the pgvector insert parameter, mapping
// nil (absent) to SQL NULL.
func embeddingParam(embedding []float32) any {
	if embedding == nil {
		return nil
	}

	return pgvector.NewVector(embedding)
}

// CreateTaskParams is one generated task inserted with its idea.
type CreateTaskParams struct {
	Title              string
	Description        string
	AcceptanceCriteria string
	Effort             string
}

// CreateIdeaParams holds everything inserted at idea-creation time. Embedding
// may be nil (vector generation failed); Tasks come from spec generation.
type CreateIdeaParams struct {
	CreatedByAnonID  string
	RawInputText     string
	Title            string
	ProblemStatement string
	Tags             []string
	Features         []models.Feature
	OpenQuestions    []string
	Embedding        []float32
	Tasks            []CreateTaskParams
}

// IdeasRepository handles data access for ideas.
type IdeasRepository struct {
	db *pgxpool.Pool
}

// NewIdeasRepository creates a new ideas repository.
func NewIdeasRepository(db *pgxpool.Pool) *IdeasRepository {
	return &IdeasRepository{db: db}
}

// Create inserts a new idea and its generated tasks in one transaction,
// returning both the idea and the inserted task rows.
func (r *IdeasRepository) Create(ctx context.Context, params *CreateIdeaParams) (*models.Idea, []models.Task, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO ideas (
			created_by_anon_id, raw_input_text, title, problem_statement,
			tags, features, open_questions, embedding
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, created_by_anon_id, raw_input_text,
			title, problem_statement, tags, features, open_questions,
			upvotes_count, comments_count
	`

	var idea models.Idea

	err = tx.QueryRow(ctx, query,
		params.CreatedByAnonID, params.RawInputText, params.Title, params.ProblemStatement,
		params.Tags, params.Features, params.OpenQuestions, embeddingParam(params.Embedding),
	).Scan(
		&idea.ID, &idea.CreatedAt, &idea.CreatedByAnonID, &idea.RawInputText,
		&idea.Title, &idea.ProblemStatement, &idea.Tags, &idea.Features, &idea.OpenQuestions,
		&idea.UpvotesCount, &idea.CommentsCount,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create idea: %w", err)
	}

	idea.Embedding = params.Embedding

	tasks := make([]models.Task, 0, len(params.Tasks))

	for _, taskParams := range params.Tasks {
		var task models.Task

		err = tx.QueryRow(ctx, `
			INSERT INTO tasks (idea_id, title, description, acceptance_criteria, effort)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, idea_id, title, description, acceptance_criteria, effort,
				status, claimed_by_anon_id, claimed_at, created_at, updated_at`,
			idea.ID, taskParams.Title, taskParams.Description, taskParams.AcceptanceCriteria, taskParams.Effort,
		).Scan(
			&task.ID, &task.IdeaID, &task.Title, &task.Description, &task.AcceptanceCriteria,
			&task.Effort, &task.Status, &task.ClaimedByAnonID, &task.ClaimedAt,
			&task.CreatedAt, &task.UpdatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create task: %w", err)
		}

		tasks = append(tasks, task)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit idea: %w", err)
	}

	return &idea, tasks, nil
}

// GetByID retrieves a single idea by ID, including its stored embedding.
func (r *IdeasRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Idea, error) {
	query := `
		SELECT id, created_at, created_by_anon_id, raw_input_text,
			title, problem_statement, tags, features, open_questions,
			upvotes_count, comments_count, embedding
		FROM ideas
		WHERE id = $1
	`

	var idea models.Idea

	var emb nullableEmbedding

	err := r.db.QueryRow(ctx, query, id).Scan(
		&idea.ID, &idea.CreatedAt, &idea.CreatedByAnonID, &idea.RawInputText,
		&idea.Title, &idea.ProblemStatement, &idea.Tags, &idea.Features, &idea.OpenQuestions,
		&idea.UpvotesCount, &idea.CommentsCount, &emb,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, boarderrors.NewNotFoundError("idea", "idea not found")
		}

		return nil, fmt.Errorf("failed to get idea: %w", err)
	}

	idea.Embedding = emb

	return &idea, nil
}

// buildSearchCondition builds the WHERE clause and args for a feed search term.
func buildSearchCondition(search string) (whereClause string, args []any) {
	if search == "" {
		return "", nil
	}

	return " WHERE (i.title ILIKE '%' || $1 || '%' OR i.problem_statement ILIKE '%' || $1 || '%')",
		[]any{search}
}

const listIdeasSelect = `
	SELECT i.id, i.created_at, i.title, i.problem_statement, i.tags,
		i.upvotes_count, i.comments_count,
		COALESCE(t.task_count, 0), COALESCE(t.done_count, 0)
	FROM ideas i
	LEFT JOIN (
		SELECT idea_id,
			COUNT(*) AS task_count,
			COUNT(*) FILTER (WHERE status = 'done') AS done_count
		FROM tasks
		GROUP BY idea_id
	) t ON t.idea_id = i.id
`

// List retrieves idea summaries ordered by created_at DESC. Limit <= 0 means
// no limit (the hot feed loads the full working set and ranks in memory).
func (r *IdeasRepository) List(ctx context.Context, filters *models.ListIdeasFilters) ([]models.IdeaSummary, error) {
	query := listIdeasSelect

	whereClause, args := buildSearchCondition(filters.Search)
	query += whereClause
	query += " ORDER BY i.created_at DESC, i.id"

	argCount := len(args) + 1

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)

		args = append(args, filters.Limit)
		argCount++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)

		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	defer rows.Close()

	summaries := []models.IdeaSummary{} // Initialize as empty slice, not nil

	for rows.Next() {
		var s models.IdeaSummary

		err := rows.Scan(
			&s.ID, &s.CreatedAt, &s.Title, &s.ProblemStatement, &s.Tags,
			&s.UpvotesCount, &s.CommentsCount, &s.TaskCount, &s.DoneTaskCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan idea summary: %w", err)
		}

		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ideas: %w", err)
	}

	return summaries, nil
}

// Count returns the number of ideas matching the search filter.
func (r *IdeasRepository) Count(ctx context.Context, filters *models.ListIdeasFilters) (int64, error) {
	query := `SELECT COUNT(*) FROM ideas i`

	whereClause, args := buildSearchCondition(filters.Search)
	query += whereClause

	var count int64

	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ideas: %w", err)
	}

	return count, nil
}

// ListForRanking returns every idea's (id, title, embedding-or-nil) for the
// in-memory similarity scan. This is the full-corpus read behind the
// similar-ideas panel and semantic search.
func (r *IdeasRepository) ListForRanking(ctx context.Context) ([]models.RankingCandidate, error) {
	rows, err := r.db.Query(ctx, `SELECT id, title, embedding FROM ideas`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranking candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.RankingCandidate

	for rows.Next() {
		var c models.RankingCandidate

		var emb nullableEmbedding

		if err := rows.Scan(&c.ID, &c.Title, &emb); err != nil {
			return nil, fmt.Errorf("failed to scan ranking candidate: %w", err)
		}

		c.Embedding = emb
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ranking candidates: %w", err)
	}

	return candidates, nil
}

// ListIDsMissingEmbedding returns IDs of ideas whose embedding column is NULL,
// for the backfill queue.
func (r *IdeasRepository) ListIDsMissingEmbedding(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM ideas WHERE embedding IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas missing embedding: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan idea id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating idea ids: %w", err)
	}

	return ids, nil
}

// SetEmbedding stores the embedding vector for an idea (backfill path).
func (r *IdeasRepository) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE ideas SET embedding = $2 WHERE id = $1`,
		id, embeddingParam(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to set idea embedding: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return boarderrors.NewNotFoundError("idea", "idea not found")
	}

	return nil
}
