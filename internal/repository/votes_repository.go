package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ideaboard/api/internal/boarderrors"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// VotesRepository handles data access for upvotes. The vote row and the
// denormalized upvotes_count on the idea are always updated together.
type VotesRepository struct {
	db *pgxpool.Pool
}

// NewVotesRepository creates a new votes repository.
func NewVotesRepository(db *pgxpool.Pool) *VotesRepository {
	return &VotesRepository{db: db}
}

// Exists reports whether anonID has voted on the idea.
func (r *VotesRepository) Exists(ctx context.Context, ideaID uuid.UUID, anonID string) (bool, error) {
	var exists bool

	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM votes WHERE idea_id = $1 AND anon_id = $2)`,
		ideaID, anonID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check vote: %w", err)
	}

	return exists, nil
}

// Create records a vote and increments the idea's upvote count in one
// transaction. A duplicate vote returns ErrConflict.
func (r *VotesRepository) Create(ctx context.Context, ideaID uuid.UUID, anonID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO votes (idea_id, anon_id) VALUES ($1, $2)`,
		ideaID, anonID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return boarderrors.NewConflictError("already upvoted")
		}

		return fmt.Errorf("failed to create vote: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE ideas SET upvotes_count = upvotes_count + 1 WHERE id = $1`,
		ideaID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment upvotes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit vote: %w", err)
	}

	return nil
}

// Delete removes a vote and decrements the idea's upvote count in one
// transaction. A missing vote returns ErrNotFound.
func (r *VotesRepository) Delete(ctx context.Context, ideaID uuid.UUID, anonID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`DELETE FROM votes WHERE idea_id = $1 AND anon_id = $2`,
		ideaID, anonID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return boarderrors.NewNotFoundError("vote", "not voted")
	}

	_, err = tx.Exec(ctx,
		`UPDATE ideas SET upvotes_count = GREATEST(upvotes_count - 1, 0) WHERE id = $1`,
		ideaID,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement upvotes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit unvote: %w", err)
	}

	return nil
}
