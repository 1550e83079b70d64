package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ideaboard/api/internal/models"
)

// CommentsRepository handles data access for comments. The comment row and
// the denormalized comments_count on the idea are always updated together.
type CommentsRepository struct {
	db *pgxpool.Pool
}

// NewCommentsRepository creates a new comments repository.
func NewCommentsRepository(db *pgxpool.Pool) *CommentsRepository {
	return &CommentsRepository{db: db}
}

// ListByIdea returns an idea's comments, newest first.
func (r *CommentsRepository) ListByIdea(ctx context.Context, ideaID uuid.UUID) ([]models.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, idea_id, body, created_by_anon_id, nickname, created_at
		FROM comments
		WHERE idea_id = $1
		ORDER BY created_at DESC, id`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}

	for rows.Next() {
		var c models.Comment

		err := rows.Scan(&c.ID, &c.IdeaID, &c.Body, &c.CreatedByAnonID, &c.Nickname, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}

		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}

	return comments, nil
}

// Create inserts a comment and increments the idea's comment count in one
// transaction. nickname may be nil (author never set one).
func (r *CommentsRepository) Create(ctx context.Context, ideaID uuid.UUID, body, anonID string, nickname *string) (*models.Comment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var comment models.Comment

	err = tx.QueryRow(ctx, `
		INSERT INTO comments (idea_id, body, created_by_anon_id, nickname)
		VALUES ($1, $2, $3, $4)
		RETURNING id, idea_id, body, created_by_anon_id, nickname, created_at`,
		ideaID, body, anonID, nickname,
	).Scan(&comment.ID, &comment.IdeaID, &comment.Body, &comment.CreatedByAnonID,
		&comment.Nickname, &comment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE ideas SET comments_count = comments_count + 1 WHERE id = $1`,
		ideaID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to increment comments count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit comment: %w", err)
	}

	return &comment, nil
}
