package ai

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "https://api.openai.com/v1", cfg.EmbeddingHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 256, cfg.BatchSize)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryDelay)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://custom:8080/v1"),
			WithEmbeddingModel("custom-embed"),
			WithAPIKey("sk-test"),
			WithBatchSize(16),
			WithConcurrency(2),
			WithTimeout(time.Second),
			WithRetry(5, 10*time.Millisecond),
		)

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, 16, cfg.BatchSize)
		assert.Equal(t, 2, cfg.Concurrency)
		assert.Equal(t, time.Second, cfg.Timeout)
		assert.Equal(t, 5, cfg.MaxRetries)
		assert.Equal(t, 10*time.Millisecond, cfg.RetryDelay)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"already has /v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing /v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"has trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"empty host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host}

			cfg.Normalize()

			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config normalizes host", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingHost("http://localhost:11434"))

		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, "BatchSize"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "Concurrency"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "Timeout"},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }, "MaxRetries"},
		{"negative retry delay", func(c *Config) { c.RetryDelay = -time.Second }, "RetryDelay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestEmbeddingResult(t *testing.T) {
	ok := Embedded([]float32{1, 2})
	assert.False(t, ok.Failed())
	assert.NoError(t, ok.Err)

	empty := Embedded(nil)
	assert.True(t, empty.Failed())
	assert.ErrorIs(t, empty.Err, ErrEmptyEmbedding)

	for _, bad := range [][]float32{
		{float32(math.NaN()), 1},
		{1, float32(math.Inf(1))},
		{float32(math.Inf(-1))},
	} {
		e := Embedded(bad)
		assert.True(t, e.Failed())
		assert.Nil(t, e.Vector)
		assert.ErrorIs(t, e.Err, ErrMalformedEmbedding)
	}

	failed := Failed(ErrProviderUnavailable)
	assert.True(t, failed.Failed())
	assert.Nil(t, failed.Vector)
	assert.ErrorIs(t, failed.Err, ErrProviderUnavailable)

	assert.ErrorIs(t, Failed(nil).Err, ErrEmptyEmbedding)

	all := FailAll(3, ErrResponseLength)
	require.Len(t, all, 3)
	for _, e := range all {
		assert.True(t, e.Failed())
		assert.ErrorIs(t, e.Err, ErrResponseLength)
	}
}
