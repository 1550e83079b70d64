package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ideaboard/api/internal/boarderrors"
	"github.com/ideaboard/api/internal/models"
)

// AnonUsersRepository handles data access for anonymous user profiles.
type AnonUsersRepository struct {
	db *pgxpool.Pool
}

// NewAnonUsersRepository creates a new anon users repository.
func NewAnonUsersRepository(db *pgxpool.Pool) *AnonUsersRepository {
	return &AnonUsersRepository{db: db}
}

// GetByID retrieves the profile for an anon id. Returns ErrNotFound when the
// user never set a nickname (no row exists).
func (r *AnonUsersRepository) GetByID(ctx context.Context, anonID string) (*models.AnonUser, error) {
	var user models.AnonUser

	err := r.db.QueryRow(ctx, `
		SELECT id, nickname, created_at, updated_at
		FROM anon_users WHERE id = $1`, anonID,
	).Scan(&user.ID, &user.Nickname, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, boarderrors.NewNotFoundError("anon user", "anon user not found")
		}

		return nil, fmt.Errorf("failed to get anon user: %w", err)
	}

	return &user, nil
}

// UpsertNickname creates or updates the profile's nickname.
func (r *AnonUsersRepository) UpsertNickname(ctx context.Context, anonID, nickname string) (*models.AnonUser, error) {
	var user models.AnonUser

	err := r.db.QueryRow(ctx, `
		INSERT INTO anon_users (id, nickname)
		VALUES ($1, $2)
		ON CONFLICT (id)
		DO UPDATE SET nickname = EXCLUDED.nickname, updated_at = now()
		RETURNING id, nickname, created_at, updated_at`,
		anonID, nickname,
	).Scan(&user.ID, &user.Nickname, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert nickname: %w", err)
	}

	return &user, nil
}
