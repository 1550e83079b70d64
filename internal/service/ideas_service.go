package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/google/uuid"

	"github.com/ideaboard/api/internal/boarderrors"
	"github.com/ideaboard/api/internal/models"
	"github.com/ideaboard/api/internal/observability"
	"github.com/ideaboard/api/internal/ranking"
	"github.com/ideaboard/api/internal/repository"
	"github.com/ideaboard/api/internal/specgen"
)

// Submission validation bounds.
const (
	minRawInputChars  = 20
	maxRawInputChars  = 5000
	maxTargetUsersLen = 500
	maxPlatformLen    = 100
	maxConstraintsLen = 1000
	maxCommentBodyLen = 2000
	defaultFeedLimit  = 20
	maxFeedLimit      = 50
)

// IdeasRepository is the idea persistence surface the service needs.
type IdeasRepository interface {
	Create(ctx context.Context, params *repository.CreateIdeaParams) (*models.Idea, []models.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Idea, error)
	List(ctx context.Context, filters *models.ListIdeasFilters) ([]models.IdeaSummary, error)
	Count(ctx context.Context, filters *models.ListIdeasFilters) (int64, error)
	ListForRanking(ctx context.Context) ([]models.RankingCandidate, error)
	ListIDsMissingEmbedding(ctx context.Context) ([]uuid.UUID, error)
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

// VotesRepository is the vote persistence surface the service needs.
type VotesRepository interface {
	Exists(ctx context.Context, ideaID uuid.UUID, anonID string) (bool, error)
	Create(ctx context.Context, ideaID uuid.UUID, anonID string) error
	Delete(ctx context.Context, ideaID uuid.UUID, anonID string) error
}

// CommentsRepository is the comment persistence surface the service needs.
type CommentsRepository interface {
	ListByIdea(ctx context.Context, ideaID uuid.UUID) ([]models.Comment, error)
	Create(ctx context.Context, ideaID uuid.UUID, body, anonID string, nickname *string) (*models.Comment, error)
}

// TasksReader lists an idea's tasks for the detail payload.
type TasksReader interface {
	ListByIdea(ctx context.Context, ideaID uuid.UUID) ([]models.Task, error)
}

// NicknameReader resolves the caller's profile for comment denormalization.
type NicknameReader interface {
	GetByID(ctx context.Context, anonID string) (*models.AnonUser, error)
}

// SpecGenerator turns the submission prompt into a validated specification.
type SpecGenerator interface {
	Generate(ctx context.Context, userPrompt string) (*specgen.Spec, error)
}

// Embedder produces a vector for text, or nil when unavailable.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// SubmissionLimiter enforces a per-key quota.
type SubmissionLimiter interface {
	Allow(key string) (allowed bool, remaining int)
}

// IdeasService implements idea submission, the feed, the detail page, and votes.
type IdeasService struct {
	ideasRepo    IdeasRepository
	votesRepo    VotesRepository
	commentsRepo CommentsRepository
	tasksRepo    TasksReader
	profiles     NicknameReader
	generator    SpecGenerator
	embedder     Embedder
	anonLimiter  SubmissionLimiter
	ipLimiter    SubmissionLimiter

	similarTopK     int
	similarityFloor float64

	jobInserter    EmbeddingJobInserter
	jobMaxAttempts int

	rateLimitMetrics observability.RateLimitMetrics
	rankingMetrics   observability.RankingMetrics
	embeddingMetrics observability.EmbeddingMetrics
	logger           *slog.Logger

	now func() time.Time
}

// IdeasServiceParams configures IdeasService. AnonLimiter, IPLimiter, the
// metrics fields, and Logger may be nil; zero SimilarTopK/SimilarityFloor use
// the ranking defaults.
type IdeasServiceParams struct {
	IdeasRepo        IdeasRepository
	VotesRepo        VotesRepository
	CommentsRepo     CommentsRepository
	TasksRepo        TasksReader
	Profiles         NicknameReader
	Generator        SpecGenerator
	Embedder         Embedder
	AnonLimiter      SubmissionLimiter
	IPLimiter        SubmissionLimiter
	SimilarTopK      int
	SimilarityFloor  float64
	JobInserter      EmbeddingJobInserter
	JobMaxAttempts   int
	RateLimitMetrics observability.RateLimitMetrics
	RankingMetrics   observability.RankingMetrics
	EmbeddingMetrics observability.EmbeddingMetrics
	Logger           *slog.Logger
}

// NewIdeasService creates an IdeasService.
func NewIdeasService(p IdeasServiceParams) *IdeasService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	topK := p.SimilarTopK
	if topK <= 0 {
		topK = ranking.DefaultTopK
	}

	floor := p.SimilarityFloor
	if floor == 0 {
		floor = ranking.DefaultSimilarityFloor
	}

	return &IdeasService{
		ideasRepo:        p.IdeasRepo,
		votesRepo:        p.VotesRepo,
		commentsRepo:     p.CommentsRepo,
		tasksRepo:        p.TasksRepo,
		profiles:         p.Profiles,
		generator:        p.Generator,
		embedder:         p.Embedder,
		anonLimiter:      p.AnonLimiter,
		ipLimiter:        p.IPLimiter,
		similarTopK:      topK,
		similarityFloor:  floor,
		jobInserter:      p.JobInserter,
		jobMaxAttempts:   p.JobMaxAttempts,
		rateLimitMetrics: p.RateLimitMetrics,
		rankingMetrics:   p.RankingMetrics,
		embeddingMetrics: p.EmbeddingMetrics,
		logger:           logger,
		now:              time.Now,
	}
}

func validateCreateIdeaRequest(req *models.CreateIdeaRequest) error {
	n := len(req.RawInputText)
	if n < minRawInputChars || n > maxRawInputChars {
		return boarderrors.NewValidationError("raw_input_text",
			fmt.Sprintf("raw_input_text must be between %d and %d characters", minRawInputChars, maxRawInputChars))
	}

	if req.TargetUsers != nil && len(*req.TargetUsers) > maxTargetUsersLen {
		return boarderrors.NewValidationError("target_users",
			fmt.Sprintf("target_users must be at most %d characters", maxTargetUsersLen))
	}

	if req.Platform != nil && len(*req.Platform) > maxPlatformLen {
		return boarderrors.NewValidationError("platform",
			fmt.Sprintf("platform must be at most %d characters", maxPlatformLen))
	}

	if req.Constraints != nil && len(*req.Constraints) > maxConstraintsLen {
		return boarderrors.NewValidationError("constraints",
			fmt.Sprintf("constraints must be at most %d characters", maxConstraintsLen))
	}

	return nil
}

// CreateIdea validates and rate-limits the submission, generates the spec,
// embeds the raw text best-effort, and stores everything in one transaction.
// The returned detail carries the created tasks; similar ideas are not
// computed here (the detail page does that on read).
func (s *IdeasService) CreateIdea(ctx context.Context, anonID, clientIP string, req *models.CreateIdeaRequest) (*models.IdeaDetail, error) {
	if err := validateCreateIdeaRequest(req); err != nil {
		return nil, err
	}

	if s.anonLimiter != nil {
		if allowed, _ := s.anonLimiter.Allow("idea:" + anonID); !allowed {
			if s.rateLimitMetrics != nil {
				s.rateLimitMetrics.RecordRejection(ctx, "anon")
			}

			return nil, boarderrors.NewRateLimitedError("submission limit reached, try again later")
		}
	}

	if s.ipLimiter != nil && clientIP != "" {
		if allowed, _ := s.ipLimiter.Allow("idea:ip:" + clientIP); !allowed {
			if s.rateLimitMetrics != nil {
				s.rateLimitMetrics.RecordRejection(ctx, "ip")
			}

			return nil, boarderrors.NewRateLimitedError("submission limit reached, try again later")
		}
	}

	if s.generator == nil {
		return nil, boarderrors.NewUpstreamError("specification generation is not configured")
	}

	spec, err := s.generator.Generate(ctx, specgen.BuildPrompt(req.RawInputText, req.TargetUsers, req.Platform, req.Constraints))
	if err != nil {
		s.logger.Error("spec generation failed", "error", err)

		return nil, boarderrors.NewUpstreamError("specification generation failed")
	}

	var embedding []float32
	if s.embedder != nil {
		embedding = s.embedder.Embed(ctx, req.RawInputText)
	}

	params := &repository.CreateIdeaParams{
		CreatedByAnonID:  anonID,
		RawInputText:     req.RawInputText,
		Title:            spec.Title,
		ProblemStatement: spec.ProblemStatement,
		Tags:             spec.Tags,
		Features:         spec.Features,
		OpenQuestions:    spec.OpenQuestions,
		Embedding:        embedding,
		Tasks:            make([]repository.CreateTaskParams, 0, len(spec.Tasks)),
	}

	for _, task := range spec.Tasks {
		params.Tasks = append(params.Tasks, repository.CreateTaskParams{
			Title:              task.Title,
			Description:        task.Description,
			AcceptanceCriteria: task.AcceptanceCriteria,
			Effort:             task.Effort,
		})
	}

	idea, tasks, err := s.ideasRepo.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create idea: %w", err)
	}

	detail := &models.IdeaDetail{
		Idea:            *idea,
		CreatedByAnonID: idea.CreatedByAnonID,
		RawInputText:    idea.RawInputText,
		Tasks:           tasks,
		Comments:        []models.Comment{},
		IsOwner:         true,
		SimilarIdeas:    []models.SimilarIdea{},
	}

	return detail, nil
}

// ListIdeas returns the feed. "new" sorts and pages in SQL; "hot" loads the
// filtered set, scores it in memory, and pages the sorted slice.
func (s *IdeasService) ListIdeas(ctx context.Context, filters models.ListIdeasFilters) (*models.ListIdeasResponse, error) {
	if filters.Sort != models.SortNew {
		filters.Sort = models.SortHot
	}

	if filters.Limit <= 0 {
		filters.Limit = defaultFeedLimit
	}

	if filters.Limit > maxFeedLimit {
		filters.Limit = maxFeedLimit
	}

	if filters.Offset < 0 {
		filters.Offset = 0
	}

	if filters.Sort == models.SortNew {
		summaries, err := s.ideasRepo.List(ctx, &filters)
		if err != nil {
			return nil, fmt.Errorf("list ideas: %w", err)
		}

		total, err := s.ideasRepo.Count(ctx, &filters)
		if err != nil {
			return nil, fmt.Errorf("count ideas: %w", err)
		}

		return &models.ListIdeasResponse{
			Data:   summaries,
			Total:  total,
			Limit:  filters.Limit,
			Offset: filters.Offset,
		}, nil
	}

	return s.listIdeasHot(ctx, filters)
}

func (s *IdeasService) listIdeasHot(ctx context.Context, filters models.ListIdeasFilters) (*models.ListIdeasResponse, error) {
	all := filters
	all.Limit = 0
	all.Offset = 0

	summaries, err := s.ideasRepo.List(ctx, &all)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}

	byID := make(map[string]models.IdeaSummary, len(summaries))
	items := make([]ranking.HotItem, 0, len(summaries))

	for _, summary := range summaries {
		id := summary.ID.String()
		byID[id] = summary
		items = append(items, ranking.HotItem{
			ID:        id,
			Upvotes:   summary.UpvotesCount,
			CreatedAt: summary.CreatedAt,
		})
	}

	ranking.SortByHot(items, s.now())

	start := filters.Offset
	if start > len(items) {
		start = len(items)
	}

	end := start + filters.Limit
	if end > len(items) {
		end = len(items)
	}

	page := make([]models.IdeaSummary, 0, end-start)
	for _, item := range items[start:end] {
		page = append(page, byID[item.ID])
	}

	return &models.ListIdeasResponse{
		Data:   page,
		Total:  int64(len(items)),
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}

// GetIdeaDetail assembles the detail page: the idea, its tasks and comments,
// the caller's vote and ownership flags, and the similar-ideas panel.
func (s *IdeasService) GetIdeaDetail(ctx context.Context, ideaID uuid.UUID, anonID string) (*models.IdeaDetail, error) {
	idea, err := s.ideasRepo.GetByID(ctx, ideaID)
	if err != nil {
		return nil, fmt.Errorf("get idea: %w", err)
	}

	tasks, err := s.tasksRepo.ListByIdea(ctx, ideaID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	comments, err := s.commentsRepo.ListByIdea(ctx, ideaID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	hasVoted, err := s.votesRepo.Exists(ctx, ideaID, anonID)
	if err != nil {
		return nil, fmt.Errorf("check vote: %w", err)
	}

	similar, err := s.similarIdeas(ctx, idea)
	if err != nil {
		// Similarity is a side panel; the detail page still renders without it.
		s.logger.Error("similar ideas lookup failed", "error", err, "ideaId", ideaID.String())

		similar = []models.SimilarIdea{}
	}

	return &models.IdeaDetail{
		Idea:            *idea,
		CreatedByAnonID: idea.CreatedByAnonID,
		RawInputText:    idea.RawInputText,
		Tasks:           tasks,
		Comments:        comments,
		HasVoted:        hasVoted,
		IsOwner:         idea.CreatedByAnonID == anonID,
		SimilarIdeas:    similar,
	}, nil
}

// similarIdeas scans every stored vector and ranks them against the idea's
// embedding. An idea without a vector gets an empty panel.
func (s *IdeasService) similarIdeas(ctx context.Context, idea *models.Idea) ([]models.SimilarIdea, error) {
	if idea.Embedding == nil {
		return []models.SimilarIdea{}, nil
	}

	rows, err := s.ideasRepo.ListForRanking(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ranking candidates: %w", err)
	}

	byID := make(map[string]uuid.UUID, len(rows))
	candidates := make([]ranking.Candidate, 0, len(rows))

	for _, row := range rows {
		id := row.ID.String()
		byID[id] = row.ID
		candidates = append(candidates, ranking.Candidate{
			ID:     id,
			Title:  row.Title,
			Vector: row.Embedding,
		})
	}

	matches := ranking.FindSimilar(idea.Embedding, candidates, idea.ID.String(), s.similarTopK, s.similarityFloor)

	if s.rankingMetrics != nil {
		s.rankingMetrics.RecordSimilarLookup(ctx, len(candidates))
	}

	similar := make([]models.SimilarIdea, 0, len(matches))
	for _, match := range matches {
		similar = append(similar, models.SimilarIdea{
			ID:         byID[match.ID],
			Title:      match.Title,
			Similarity: match.Similarity,
		})
	}

	return similar, nil
}

// Upvote records one vote per anon per idea. A second vote is a conflict.
func (s *IdeasService) Upvote(ctx context.Context, ideaID uuid.UUID, anonID string) error {
	if _, err := s.ideasRepo.GetByID(ctx, ideaID); err != nil {
		return fmt.Errorf("get idea: %w", err)
	}

	if err := s.votesRepo.Create(ctx, ideaID, anonID); err != nil {
		return fmt.Errorf("create vote: %w", err)
	}

	return nil
}

// RemoveUpvote withdraws the caller's vote. Removing a vote that does not
// exist is not found.
func (s *IdeasService) RemoveUpvote(ctx context.Context, ideaID uuid.UUID, anonID string) error {
	if err := s.votesRepo.Delete(ctx, ideaID, anonID); err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}

	return nil
}

// ListComments returns an idea's comments, newest first.
func (s *IdeasService) ListComments(ctx context.Context, ideaID uuid.UUID) ([]models.Comment, error) {
	comments, err := s.commentsRepo.ListByIdea(ctx, ideaID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return comments, nil
}

// CreateComment posts a comment under the caller's current nickname snapshot.
func (s *IdeasService) CreateComment(ctx context.Context, ideaID uuid.UUID, anonID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	if len(req.Body) == 0 || len(req.Body) > maxCommentBodyLen {
		return nil, boarderrors.NewValidationError("body",
			fmt.Sprintf("body must be between 1 and %d characters", maxCommentBodyLen))
	}

	if _, err := s.ideasRepo.GetByID(ctx, ideaID); err != nil {
		return nil, fmt.Errorf("get idea: %w", err)
	}

	var nickname *string

	profile, err := s.profiles.GetByID(ctx, anonID)

	switch {
	case err == nil:
		nickname = profile.Nickname
	case errors.Is(err, boarderrors.ErrNotFound):
		// No profile yet; the comment stays nameless.
	default:
		return nil, fmt.Errorf("get profile: %w", err)
	}

	comment, err := s.commentsRepo.Create(ctx, ideaID, req.Body, anonID, nickname)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	return comment, nil
}

// errNoJobInserter guards backfill when the server runs without River wiring.
var errNoJobInserter = errors.New("embedding job inserter not configured")

// BackfillEmbeddings queues one embedding job per idea missing a vector and
// reports how many were enqueued. The inserter must be set.
func (s *IdeasService) BackfillEmbeddings(ctx context.Context) (int, error) {
	if s.jobInserter == nil {
		return 0, errNoJobInserter
	}

	ids, err := s.ideasRepo.ListIDsMissingEmbedding(ctx)
	if err != nil {
		return 0, fmt.Errorf("list ideas missing embedding: %w", err)
	}

	opts := &river.InsertOpts{
		Queue:       EmbeddingsQueueName,
		MaxAttempts: s.jobMaxAttempts,
		UniqueOpts:  river.UniqueOpts{ByArgs: true, ByPeriod: uniqueByPeriodEmbedding},
	}

	enqueued := 0

	for _, id := range ids {
		if _, err := s.jobInserter.Insert(ctx, IdeaEmbeddingArgs{IdeaID: id}, opts); err != nil {
			return enqueued, fmt.Errorf("enqueue embedding job for %s: %w", id, err)
		}

		enqueued++
	}

	if s.embeddingMetrics != nil && enqueued > 0 {
		s.embeddingMetrics.RecordJobsEnqueued(ctx, int64(enqueued))
	}

	return enqueued, nil
}

// GetIdea loads one idea including its stored vector.
func (s *IdeasService) GetIdea(ctx context.Context, ideaID uuid.UUID) (*models.Idea, error) {
	idea, err := s.ideasRepo.GetByID(ctx, ideaID)
	if err != nil {
		return nil, fmt.Errorf("get idea: %w", err)
	}

	return idea, nil
}

// SetIdeaEmbedding stores a backfilled vector.
func (s *IdeasService) SetIdeaEmbedding(ctx context.Context, ideaID uuid.UUID, embedding []float32) error {
	if err := s.ideasRepo.SetEmbedding(ctx, ideaID, embedding); err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}

	return nil
}
