package ranking

import (
	"math"
	"sort"
	"time"
)

// HotItem is the slice of an idea the feed needs for hot ordering.
type HotItem struct {
	ID        string
	Upvotes   int
	CreatedAt time.Time
}

// HotScore is the feed ordering score: log10(max(upvotes, 1)) minus one point
// per 24 hours of age at the evaluation instant now.
//
// Zero upvotes score the same as one (log10(1) = 0), so a fresh idea is only
// penalized by age decay. The score depends on now and must be recomputed on
// every listing request; it is a sort key, never persisted or sent to clients.
func HotScore(upvotes int, createdAt, now time.Time) float64 {
	ageInHours := now.Sub(createdAt).Hours()

	return math.Log10(math.Max(float64(upvotes), 1)) - ageInHours/24
}

// SortByHot orders items descending by hot score at instant now, in place.
// Equal scores break ties newest-first, then by ascending ID, so paginating a
// hot feed is deterministic for a fixed instant.
func SortByHot(items []HotItem, now time.Time) {
	scores := make(map[string]float64, len(items))
	for _, it := range items {
		scores[it.ID] = HotScore(it.Upvotes, it.CreatedAt, now)
	}

	sort.SliceStable(items, func(i, j int) bool {
		si, sj := scores[items[i].ID], scores[items[j].ID]
		if si != sj {
			return si > sj
		}

		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}

		return items[i].ID < items[j].ID
	})
}
