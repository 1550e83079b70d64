package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ideaboard/api/internal/boarderrors"
	"github.com/ideaboard/api/internal/models"
)

const maxNicknameLen = 30

// AnonUsersRepository is the profile persistence surface the service needs.
type AnonUsersRepository interface {
	GetByID(ctx context.Context, anonID string) (*models.AnonUser, error)
	UpsertNickname(ctx context.Context, anonID, nickname string) (*models.AnonUser, error)
}

// AnonUsersService implements the /v1/me surface: the caller's identity and
// optional nickname.
type AnonUsersService struct {
	repo AnonUsersRepository
}

// NewAnonUsersService creates an AnonUsersService.
func NewAnonUsersService(repo AnonUsersRepository) *AnonUsersService {
	return &AnonUsersService{repo: repo}
}

// GetProfile returns the caller's profile. A caller who never set a nickname
// has no row; they still get a profile with a nil nickname.
func (s *AnonUsersService) GetProfile(ctx context.Context, anonID string) (*models.AnonUser, error) {
	profile, err := s.repo.GetByID(ctx, anonID)
	if err != nil {
		if errors.Is(err, boarderrors.ErrNotFound) {
			return &models.AnonUser{ID: anonID}, nil
		}

		return nil, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}

// SetNickname sets or replaces the caller's nickname.
func (s *AnonUsersService) SetNickname(ctx context.Context, anonID, nickname string) (*models.AnonUser, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || len(nickname) > maxNicknameLen {
		return nil, boarderrors.NewValidationError("nickname",
			fmt.Sprintf("nickname must be between 1 and %d characters", maxNicknameLen))
	}

	profile, err := s.repo.UpsertNickname(ctx, anonID, nickname)
	if err != nil {
		return nil, fmt.Errorf("set nickname: %w", err)
	}

	return profile, nil
}
