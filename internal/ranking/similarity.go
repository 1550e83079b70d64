// Package ranking implements the scoring used to order the idea board: cosine
// similarity over stored embedding vectors for the "similar ideas" panel, and a
// recency-decayed hot score for the feed. Everything here is a pure function
// over data already in memory; persistence and the embedding provider live
// elsewhere.
package ranking

import (
	"math"
	"sort"
)

const (
	// DefaultTopK is the default number of similar ideas returned.
	DefaultTopK = 5

	// DefaultSimilarityFloor is the minimum similarity a result must exceed
	// to be returned. Applied after top-K truncation, so a lookup can return
	// fewer than topK results but never more.
	DefaultSimilarityFloor = 0.3
)

// Candidate is one idea considered for similarity ranking. Vector is nil when
// the idea has no stored embedding (provider failure at creation time).
type Candidate struct {
	ID     string
	Title  string
	Vector []float32
}

// Match is one ranked similarity result. Similarity is a fraction; callers
// render it as a rounded percentage.
type Match struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero-norm vectors score exactly 0 rather than
// erroring, so one malformed record cannot abort a ranking pass.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// FindSimilar ranks candidates by cosine similarity to target and returns at
// most topK matches with similarity above floor.
//
// The candidate whose ID equals excludeID is skipped (an idea is never similar
// to itself), as are candidates without a vector. Results sort descending by
// similarity with ascending ID as the tie-break, so output is deterministic
// regardless of storage iteration order. The floor is applied after top-K
// truncation, preserving the possibility of returning fewer than topK results.
//
// This is an exhaustive linear scan; fine for a small corpus, and the only
// thing a future vector index would replace.
func FindSimilar(target []float32, candidates []Candidate, excludeID string, topK int, floor float64) []Match {
	if topK <= 0 {
		topK = DefaultTopK
	}

	results := make([]Match, 0, len(candidates))

	for _, c := range candidates {
		if c.ID == excludeID || c.Vector == nil {
			continue
		}

		results = append(results, Match{
			ID:         c.ID,
			Title:      c.Title,
			Similarity: CosineSimilarity(target, c.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}

		return results[i].ID < results[j].ID
	})

	if len(results) > topK {
		results = results[:topK]
	}

	filtered := results[:0]

	for _, r := range results {
		if r.Similarity > floor {
			filtered = append(filtered, r)
		}
	}

	return filtered
}
