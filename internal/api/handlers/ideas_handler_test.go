package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideaboard/api/internal/boarderrors"
	"github.com/ideaboard/api/internal/models"
	"github.com/ideaboard/api/internal/observability"
)

// mockIdeasService mocks IdeasService for handler tests.
type mockIdeasService struct {
	createIdeaFunc    func(ctx context.Context, anonID, clientIP string, req *models.CreateIdeaRequest) (*models.IdeaDetail, error)
	listIdeasFunc     func(ctx context.Context, filters models.ListIdeasFilters) (*models.ListIdeasResponse, error)
	getDetailFunc     func(ctx context.Context, ideaID uuid.UUID, anonID string) (*models.IdeaDetail, error)
	upvoteFunc        func(ctx context.Context, ideaID uuid.UUID, anonID string) error
	removeUpvoteFunc  func(ctx context.Context, ideaID uuid.UUID, anonID string) error
	listCommentsFunc  func(ctx context.Context, ideaID uuid.UUID) ([]models.Comment, error)
	createCommentFunc func(ctx context.Context, ideaID uuid.UUID, anonID string, req *models.CreateCommentRequest) (*models.Comment, error)
}

func (m *mockIdeasService) CreateIdea(ctx context.Context, anonID, clientIP string, req *models.CreateIdeaRequest) (*models.IdeaDetail, error) {
	if m.createIdeaFunc != nil {
		return m.createIdeaFunc(ctx, anonID, clientIP, req)
	}

	return &models.IdeaDetail{}, nil
}

func (m *mockIdeasService) ListIdeas(ctx context.Context, filters models.ListIdeasFilters) (*models.ListIdeasResponse, error) {
	if m.listIdeasFunc != nil {
		return m.listIdeasFunc(ctx, filters)
	}

	return &models.ListIdeasResponse{}, nil
}

func (m *mockIdeasService) GetIdeaDetail(ctx context.Context, ideaID uuid.UUID, anonID string) (*models.IdeaDetail, error) {
	if m.getDetailFunc != nil {
		return m.getDetailFunc(ctx, ideaID, anonID)
	}

	return &models.IdeaDetail{}, nil
}

func (m *mockIdeasService) Upvote(ctx context.Context, ideaID uuid.UUID, anonID string) error {
	if m.upvoteFunc != nil {
		return m.upvoteFunc(ctx, ideaID, anonID)
	}

	return nil
}

func (m *mockIdeasService) RemoveUpvote(ctx context.Context, ideaID uuid.UUID, anonID string) error {
	if m.removeUpvoteFunc != nil {
		return m.removeUpvoteFunc(ctx, ideaID, anonID)
	}

	return nil
}

func (m *mockIdeasService) ListComments(ctx context.Context, ideaID uuid.UUID) ([]models.Comment, error) {
	if m.listCommentsFunc != nil {
		return m.listCommentsFunc(ctx, ideaID)
	}

	return nil, nil
}

func (m *mockIdeasService) CreateComment(ctx context.Context, ideaID uuid.UUID, anonID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	if m.createCommentFunc != nil {
		return m.createCommentFunc(ctx, ideaID, anonID, req)
	}

	return &models.Comment{}, nil
}

// withAnonID seeds the request context the way the AnonID middleware does.
func withAnonID(r *http.Request, anonID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), observability.AnonIDKey, anonID))
}

func TestIdeasHandler_Create(t *testing.T) {
	t.Run("success returns 201 with detail", func(t *testing.T) {
		mock := &mockIdeasService{
			createIdeaFunc: func(_ context.Context, anonID, clientIP string, req *models.CreateIdeaRequest) (*models.IdeaDetail, error) {
				assert.Equal(t, "anon-1", anonID)
				assert.Equal(t, "203.0.113.7", clientIP)
				assert.Equal(t, "An app that pairs mentors with first-time open source contributors", req.RawInputText)

				return &models.IdeaDetail{
					Idea:    models.Idea{ID: uuid.New(), Title: "Mentor Match"},
					IsOwner: true,
				}, nil
			},
		}
		h := NewIdeasHandler(mock)

		body := `{"raw_input_text": "An app that pairs mentors with first-time open source contributors"}`
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/ideas", strings.NewReader(body))
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		rec := httptest.NewRecorder()

		h.Create(rec, withAnonID(req, "anon-1"))

		assert.Equal(t, http.StatusCreated, rec.Code)

		var detail models.IdeaDetail

		err := json.Unmarshal(rec.Body.Bytes(), &detail)
		require.NoError(t, err)
		assert.Equal(t, "Mentor Match", detail.Title)
		assert.True(t, detail.IsOwner)
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		h := NewIdeasHandler(&mockIdeasService{})

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/ideas", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()

		h.Create(rec, withAnonID(req, "anon-1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		mock := &mockIdeasService{
			createIdeaFunc: func(context.Context, string, string, *models.CreateIdeaRequest) (*models.IdeaDetail, error) {
				return nil, boarderrors.NewValidationError("raw_input_text", "too short")
			},
		}
		h := NewIdeasHandler(mock)

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/ideas", strings.NewReader(`{"raw_input_text": "tiny"}`))
		rec := httptest.NewRecorder()

		h.Create(rec, withAnonID(req, "anon-1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	})

	t.Run("rate limited maps to 429", func(t *testing.T) {
		mock := &mockIdeasService{
			createIdeaFunc: func(context.Context, string, string, *models.CreateIdeaRequest) (*models.IdeaDetail, error) {
				return nil, boarderrors.NewRateLimitedError("submission limit reached, try again later")
			},
		}
		h := NewIdeasHandler(mock)

		body := `{"raw_input_text": "A tool that summarizes long meeting recordings"}`
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/ideas", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.Create(rec, withAnonID(req, "anon-1"))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("upstream failure maps to 502", func(t *testing.T) {
		mock := &mockIdeasService{
			createIdeaFunc: func(context.Context, string, string, *models.CreateIdeaRequest) (*models.IdeaDetail, error) {
				return nil, boarderrors.NewUpstreamError("spec generation failed")
			},
		}
		h := NewIdeasHandler(mock)

		body := `{"raw_input_text": "A tool that summarizes long meeting recordings"}`
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/ideas", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.Create(rec, withAnonID(req, "anon-1"))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("remote addr used when no forwarded header", func(t *testing.T) {
		var capturedIP string

		mock := &mockIdeasService{
			createIdeaFunc: func(_ context.Context, _, clientIP string, _ *models.CreateIdeaRequest) (*models.IdeaDetail, error) {
				capturedIP = clientIP

				return &models.IdeaDetail{}, nil
			},
		}
		h := NewIdeasHandler(mock)

		body := `{"raw_input_text": "A tool that summarizes long meeting recordings"}`
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/ideas", strings.NewReader(body))
		req.RemoteAddr = "198.51.100.4:52311"
		rec := httptest.NewRecorder()

		h.Create(rec, withAnonID(req, "anon-1"))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "198.51.100.4", capturedIP)
	})
}

func TestIdeasHandler_List(t *testing.T) {
	t.Run("passes query params as filters", func(t *testing.T) {
		var captured models.ListIdeasFilters

		mock := &mockIdeasService{
			listIdeasFunc: func(_ context.Context, filters models.ListIdeasFilters) (*models.ListIdeasResponse, error) {
				captured = filters

				return &models.ListIdeasResponse{Data: []models.IdeaSummary{}, Limit: filters.Limit, Offset: filters.Offset}, nil
			},
		}
		h := NewIdeasHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/ideas?sort=new&search=mentor&limit=10&offset=20", http.NoBody)
		rec := httptest.NewRecorder()

		h.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.ListIdeasFilters{Sort: "new", Search: "mentor", Limit: 10, Offset: 20}, captured)
	})

	t.Run("non-integer limit returns 400", func(t *testing.T) {
		h := NewIdeasHandler(&mockIdeasService{})

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/ideas?limit=lots", http.NoBody)
		rec := httptest.NewRecorder()

		h.List(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-integer offset returns 400", func(t *testing.T) {
		h := NewIdeasHandler(&mockIdeasService{})

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/ideas?offset=abc", http.NoBody)
		rec := httptest.NewRecorder()

		h.List(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestIdeasHandler_Get(t *testing.T) {
	t.Run("success returns detail", func(t *testing.T) {
		ideaID := uuid.New()

		mock := &mockIdeasService{
			getDetailFunc: func(_ context.Context, id uuid.UUID, anonID string) (*models.IdeaDetail, error) {
				assert.Equal(t, ideaID, id)
				assert.Equal(t, "anon-9", anonID)

				return &models.IdeaDetail{Idea: models.Idea{ID: id, Title: "Mentor Match"}, HasVoted: true}, nil
			},
		}
		h := NewIdeasHandler(mock)

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/ideas/"+ideaID.String(), http.NoBody)
		req.SetPathValue("id", ideaID.String())
		rec := httptest.NewRecorder()

		h.Get(rec, withAnonID(req, "anon-9"))

		assert.Equal(t, http.StatusOK, rec.Code)

		var detail models.IdeaDetail

		err := json.Unmarshal(rec.Body.Bytes(), &detail)
		require.NoError(t, err)
		assert.True(t, detail.HasVoted)
	})

	t.Run("invalid id returns 400", func(t *testing.T) {
		h := NewIdeasHandler(&mockIdeasService{})

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/ideas/not-a-uuid", http.NoBody)
		req.SetPathValue("id", "not-a-uuid")
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing idea returns 404", func(t *testing.T) {
		mock := &mockIdeasService{
			getDetailFunc: func(context.Context, uuid.UUID, string) (*models.IdeaDetail, error) {
				return nil, boarderrors.NewNotFoundError("idea", uuid.New().String())
			},
		}
		h := NewIdeasHandler(mock)

		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "http://test/v1/ideas/"+id, http.NoBody)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestIdeasHandler_Upvote(t *testing.T) {
	t.Run("success returns 204", func(t *testing.T) {
		ideaID := uuid.New()

		mock := &mockIdeasService{
			upvoteFunc: func(_ context.Context, id uuid.UUID, anonID string) error {
				assert.Equal(t, ideaID, id)
				assert.Equal(t, "anon-2", anonID)

				return nil
			},
		}
		h := NewIdeasHandler(mock)

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/ideas/"+ideaID.String()+"/upvote", http.NoBody)
		req.SetPathValue("id", ideaID.String())
		rec := httptest.NewRecorder()

		h.Upvote(rec, withAnonID(req, "anon-2"))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("duplicate vote maps to 409", func(t *testing.T) {
		mock := &mockIdeasService{
			upvoteFunc: func(context.Context, uuid.UUID, string) error {
				return boarderrors.NewConflictError("already upvoted")
			},
		}
		h := NewIdeasHandler(mock)

		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/ideas/"+id+"/upvote", http.NoBody)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()

		h.Upvote(rec, withAnonID(req, "anon-2"))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestIdeasHandler_RemoveUpvote(t *testing.T) {
	t.Run("success returns 204", func(t *testing.T) {
		id := uuid.New().String()

		h := NewIdeasHandler(&mockIdeasService{})

		req := httptest.NewRequest(http.MethodDelete, "http://test/v1/ideas/"+id+"/upvote", http.NoBody)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()

		h.RemoveUpvote(rec, withAnonID(req, "anon-2"))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing vote maps to 404", func(t *testing.T) {
		mock := &mockIdeasService{
			removeUpvoteFunc: func(context.Context, uuid.UUID, string) error {
				return boarderrors.NewNotFoundError("vote", "anon-2")
			},
		}
		h := NewIdeasHandler(mock)

		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodDelete, "http://test/v1/ideas/"+id+"/upvote", http.NoBody)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()

		h.RemoveUpvote(rec, withAnonID(req, "anon-2"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestIdeasHandler_ListComments(t *testing.T) {
	t.Run("nil comments serialize as empty array", func(t *testing.T) {
		h := NewIdeasHandler(&mockIdeasService{})

		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "http://test/v1/ideas/"+id+"/comments", http.NoBody)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()

		h.ListComments(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestIdeasHandler_CreateComment(t *testing.T) {
	t.Run("success returns 201", func(t *testing.T) {
		ideaID := uuid.New()
		nickname := "ada"

		mock := &mockIdeasService{
			createCommentFunc: func(_ context.Context, id uuid.UUID, anonID string, req *models.CreateCommentRequest) (*models.Comment, error) {
				assert.Equal(t, ideaID, id)
				assert.Equal(t, "anon-3", anonID)
				assert.Equal(t, "Love this, I would use it weekly", req.Body)

				return &models.Comment{ID: uuid.New(), IdeaID: id, Body: req.Body, Nickname: &nickname}, nil
			},
		}
		h := NewIdeasHandler(mock)

		body := `{"body": "Love this, I would use it weekly"}`
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/ideas/"+ideaID.String()+"/comments", strings.NewReader(body))
		req.SetPathValue("id", ideaID.String())
		rec := httptest.NewRecorder()

		h.CreateComment(rec, withAnonID(req, "anon-3"))

		assert.Equal(t, http.StatusCreated, rec.Code)

		var comment models.Comment

		err := json.Unmarshal(rec.Body.Bytes(), &comment)
		require.NoError(t, err)
		require.NotNil(t, comment.Nickname)
		assert.Equal(t, "ada", *comment.Nickname)
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		h := NewIdeasHandler(&mockIdeasService{})

		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/ideas/"+id+"/comments", strings.NewReader("{"))
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()

		h.CreateComment(rec, withAnonID(req, "anon-3"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
