package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameRequestCount        = "http.server.request_count"
	MetricNameRequestDuration     = "http.server.duration"
	MetricNameEmbeddingOutcomes   = "board_embedding_outcomes_total"
	MetricNameEmbeddingDuration   = "board_embedding_duration_seconds"
	MetricNameEmbeddingEnqueued   = "board_embedding_jobs_enqueued_total"
	MetricNameEmbeddingWorkerErrs = "board_embedding_worker_errors_total"
	MetricNameCacheHits           = "board_cache_hits_total"
	MetricNameCacheMisses         = "board_cache_misses_total"
	MetricNameRateLimitRejections = "board_rate_limit_rejections_total"
	MetricNameSimilarLookups      = "board_similar_lookups_total"
	MetricNameSimilarScanSize     = "board_similar_scan_candidates"
)

// Attribute keys.
const (
	AttrReason = "reason"
	AttrStatus = "status"
	AttrScope  = "scope"
	AttrCache  = "cache"
)

// AllowedEmbeddingStatuses for board_embedding_outcomes_total and the
// duration histogram.
var AllowedEmbeddingStatuses = map[string]bool{
	"ok":      true,
	"error":   true,
	"skipped": true,
}

// AllowedWorkerReasons for board_embedding_worker_errors_total.
var AllowedWorkerReasons = map[string]bool{
	"get_idea_failed":  true,
	"provider_failed":  true,
	"update_failed":    true,
	"rate_wait_failed": true,
}

// AllowedRateLimitScopes for board_rate_limit_rejections_total.
var AllowedRateLimitScopes = map[string]bool{
	"anon": true,
	"ip":   true,
}

// NormalizeReason returns reason if in allowed, otherwise "other".
func NormalizeReason(reason string, allowed map[string]bool) string {
	if allowed[reason] {
		return reason
	}

	return "other"
}
