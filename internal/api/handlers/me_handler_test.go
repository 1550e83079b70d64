package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideaboard/api/internal/boarderrors"
	"github.com/ideaboard/api/internal/models"
)

// mockAnonUsersService mocks AnonUsersService for handler tests.
type mockAnonUsersService struct {
	getProfileFunc  func(ctx context.Context, anonID string) (*models.AnonUser, error)
	setNicknameFunc func(ctx context.Context, anonID, nickname string) (*models.AnonUser, error)
}

func (m *mockAnonUsersService) GetProfile(ctx context.Context, anonID string) (*models.AnonUser, error) {
	if m.getProfileFunc != nil {
		return m.getProfileFunc(ctx, anonID)
	}

	return &models.AnonUser{ID: anonID}, nil
}

func (m *mockAnonUsersService) SetNickname(ctx context.Context, anonID, nickname string) (*models.AnonUser, error) {
	if m.setNicknameFunc != nil {
		return m.setNicknameFunc(ctx, anonID, nickname)
	}

	return &models.AnonUser{ID: anonID, Nickname: &nickname}, nil
}

func TestMeHandler_Get(t *testing.T) {
	t.Run("returns the caller's profile", func(t *testing.T) {
		nickname := "grace"

		mock := &mockAnonUsersService{
			getProfileFunc: func(_ context.Context, anonID string) (*models.AnonUser, error) {
				assert.Equal(t, "anon-8", anonID)

				return &models.AnonUser{ID: anonID, Nickname: &nickname}, nil
			},
		}
		h := NewMeHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/me", http.NoBody)
		rec := httptest.NewRecorder()

		h.Get(rec, withAnonID(req, "anon-8"))

		assert.Equal(t, http.StatusOK, rec.Code)

		var profile models.AnonUser

		err := json.Unmarshal(rec.Body.Bytes(), &profile)
		require.NoError(t, err)
		assert.Equal(t, "anon-8", profile.ID)
		require.NotNil(t, profile.Nickname)
		assert.Equal(t, "grace", *profile.Nickname)
	})

	t.Run("profile without nickname has null nickname", func(t *testing.T) {
		h := NewMeHandler(&mockAnonUsersService{})

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/me", http.NoBody)
		rec := httptest.NewRecorder()

		h.Get(rec, withAnonID(req, "anon-8"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"nickname":null`)
	})
}

func TestMeHandler_SetNickname(t *testing.T) {
	t.Run("success returns updated profile", func(t *testing.T) {
		mock := &mockAnonUsersService{
			setNicknameFunc: func(_ context.Context, anonID, nickname string) (*models.AnonUser, error) {
				assert.Equal(t, "anon-8", anonID)
				assert.Equal(t, "grace", nickname)

				return &models.AnonUser{ID: anonID, Nickname: &nickname}, nil
			},
		}
		h := NewMeHandler(mock)

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/me/nickname", strings.NewReader(`{"nickname": "grace"}`))
		rec := httptest.NewRecorder()

		h.SetNickname(rec, withAnonID(req, "anon-8"))

		assert.Equal(t, http.StatusOK, rec.Code)

		var profile models.AnonUser

		err := json.Unmarshal(rec.Body.Bytes(), &profile)
		require.NoError(t, err)
		require.NotNil(t, profile.Nickname)
		assert.Equal(t, "grace", *profile.Nickname)
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		h := NewMeHandler(&mockAnonUsersService{})

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/me/nickname", strings.NewReader("{"))
		rec := httptest.NewRecorder()

		h.SetNickname(rec, withAnonID(req, "anon-8"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		mock := &mockAnonUsersService{
			setNicknameFunc: func(context.Context, string, string) (*models.AnonUser, error) {
				return nil, boarderrors.NewValidationError("nickname", "nickname must be between 1 and 30 characters")
			},
		}
		h := NewMeHandler(mock)

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/me/nickname", strings.NewReader(`{"nickname": ""}`))
		rec := httptest.NewRecorder()

		h.SetNickname(rec, withAnonID(req, "anon-8"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
