package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/ideaboard/api/internal/models"
	"github.com/ideaboard/api/internal/observability"
	"github.com/ideaboard/api/internal/ranking"
)

const searchQueryEmbeddingCacheName = "search_query_embedding"

// ErrEmptyQuery is returned when the search query is empty after trimming.
// Handlers map it to a 400.
var ErrEmptyQuery = errors.New("query is required and must be non-empty")

// RankingCandidatesReader streams every stored idea's vector for a scan.
type RankingCandidatesReader interface {
	ListForRanking(ctx context.Context) ([]models.RankingCandidate, error)
}

// SearchService performs semantic search: it embeds the query text and ranks
// every stored idea vector against it in memory. Identical queries share one
// provider call through the LRU cache and singleflight group.
type SearchService struct {
	embeddingClient EmbeddingClient
	ideasRepo       RankingCandidatesReader
	topK            int
	floor           float64
	queryCache      *lru.Cache[string, []float32]
	queryLoadGroup  singleflight.Group
	cacheMetrics    observability.CacheMetrics
	rankingMetrics  observability.RankingMetrics
	logger          *slog.Logger
}

// SearchServiceParams configures SearchService. QueryCache and the metrics
// fields may be nil (no caching, no metrics).
type SearchServiceParams struct {
	EmbeddingClient EmbeddingClient
	IdeasRepo       RankingCandidatesReader
	TopK            int
	Floor           float64
	QueryCache      *lru.Cache[string, []float32]
	CacheMetrics    observability.CacheMetrics
	RankingMetrics  observability.RankingMetrics
	Logger          *slog.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(p SearchServiceParams) *SearchService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	topK := p.TopK
	if topK <= 0 {
		topK = ranking.DefaultTopK
	}

	floor := p.Floor
	if floor == 0 {
		floor = ranking.DefaultSimilarityFloor
	}

	return &SearchService{
		embeddingClient: p.EmbeddingClient,
		ideasRepo:       p.IdeasRepo,
		topK:            topK,
		floor:           floor,
		queryCache:      p.QueryCache,
		cacheMetrics:    p.CacheMetrics,
		rankingMetrics:  p.RankingMetrics,
		logger:          logger,
	}
}

// SemanticSearch returns ideas ranked by similarity to the query text.
// topK caps the result count; zero uses the service default. The similarity
// floor applies after the cap, same as the similar-ideas panel.
func (s *SearchService) SemanticSearch(ctx context.Context, query string, topK int) ([]models.SimilarIdea, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if topK <= 0 || topK > s.topK {
		topK = s.topK
	}

	var (
		embedding []float32
		err       error
	)

	if s.queryCache != nil {
		embedding, err = s.getQueryEmbeddingCached(ctx, query)
	} else {
		embedding, err = s.embeddingClient.CreateEmbedding(ctx, query)
	}

	if err != nil {
		s.logger.Error("semantic search: create embedding failed", "error", err)

		return nil, fmt.Errorf("create embedding: %w", err)
	}

	rows, err := s.ideasRepo.ListForRanking(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ranking candidates: %w", err)
	}

	byID := make(map[string]models.RankingCandidate, len(rows))
	candidates := make([]ranking.Candidate, 0, len(rows))

	for _, row := range rows {
		id := row.ID.String()
		byID[id] = row
		candidates = append(candidates, ranking.Candidate{
			ID:     id,
			Title:  row.Title,
			Vector: row.Embedding,
		})
	}

	matches := ranking.FindSimilar(embedding, candidates, "", topK, s.floor)

	if s.rankingMetrics != nil {
		s.rankingMetrics.RecordSimilarLookup(ctx, len(candidates))
	}

	results := make([]models.SimilarIdea, 0, len(matches))
	for _, match := range matches {
		results = append(results, models.SimilarIdea{
			ID:         byID[match.ID].ID,
			Title:      match.Title,
			Similarity: match.Similarity,
		})
	}

	return results, nil
}

// getQueryEmbeddingCached returns the embedding for query from the LRU cache,
// computing it at most once per key under concurrent misses.
func (s *SearchService) getQueryEmbeddingCached(ctx context.Context, query string) ([]float32, error) {
	if cached, ok := s.queryCache.Get(query); ok {
		if s.cacheMetrics != nil {
			s.cacheMetrics.RecordHit(ctx, searchQueryEmbeddingCacheName)
		}

		return cached, nil
	}

	if s.cacheMetrics != nil {
		s.cacheMetrics.RecordMiss(ctx, searchQueryEmbeddingCacheName)
	}

	value, err, _ := s.queryLoadGroup.Do(query, func() (any, error) {
		embedding, err := s.embeddingClient.CreateEmbedding(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("create embedding: %w", err)
		}

		s.queryCache.Add(query, embedding)

		return embedding, nil
	})
	if err != nil {
		return nil, err
	}

	embedding, ok := value.([]float32)
	if !ok {
		return nil, errors.New("unexpected cache value type")
	}

	return embedding, nil
}
