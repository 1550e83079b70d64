package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults apply when env is empty", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "text-embedding-3-small", cfg.OpenAIEmbeddingModel)
		assert.Equal(t, 1536, cfg.EmbeddingDimensions)
		assert.Equal(t, 10*time.Second, cfg.EmbeddingTimeout)
		assert.InDelta(t, 0.3, cfg.SimilarityThreshold, 1e-9)
		assert.Equal(t, 5, cfg.SimilarIdeasLimit)
		assert.Equal(t, 5, cfg.IdeaRateLimit)
		assert.Equal(t, 10, cfg.IdeaIPRateLimit)
		assert.Equal(t, 3, cfg.EmbeddingMaxAttempts)
		assert.False(t, cfg.CookieSecure)
	})

	t.Run("env overrides are honored", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("SIMILARITY_THRESHOLD", "0.5")
		t.Setenv("SIMILAR_IDEAS_LIMIT", "3")
		t.Setenv("IDEA_RATE_LIMIT", "2")
		t.Setenv("COOKIE_SECURE", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.Port)
		assert.InDelta(t, 0.5, cfg.SimilarityThreshold, 1e-9)
		assert.Equal(t, 3, cfg.SimilarIdeasLimit)
		assert.Equal(t, 2, cfg.IdeaRateLimit)
		assert.True(t, cfg.CookieSecure)
	})

	t.Run("out-of-range threshold errors", func(t *testing.T) {
		t.Setenv("SIMILARITY_THRESHOLD", "1.5")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("zero threshold errors", func(t *testing.T) {
		t.Setenv("SIMILARITY_THRESHOLD", "0")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("non-positive quota errors", func(t *testing.T) {
		t.Setenv("IDEA_RATE_LIMIT", "0")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("malformed numbers fall back to defaults", func(t *testing.T) {
		t.Setenv("SIMILAR_IDEAS_LIMIT", "lots")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.SimilarIdeasLimit)
	})
}
