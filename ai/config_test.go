package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.SynthesizerHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.SynthesizerModel)
	assert.Equal(t, "none", cfg.APIKey)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBaseDelay)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		// Should have default values
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.SynthesizerHost)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.SynthesizerHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithSynthesizerHost("http://synth:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://synth:9090/v1", cfg.SynthesizerHost)
	})

	t.Run("with custom models", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("text-embedding-3-small"),
			WithSynthesizerModel("gpt-4o-mini"),
		)

		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.SynthesizerModel)
	})

	t.Run("with throttle settings", func(t *testing.T) {
		cfg := NewConfig(
			WithMaxConcurrent(16),
			WithMaxRetries(5),
			WithRetryBaseDelay(time.Second),
			WithAPIKey("sk-test"),
		)

		assert.Equal(t, 16, cfg.MaxConcurrent)
		assert.Equal(t, 5, cfg.MaxRetries)
		assert.Equal(t, time.Second, cfg.RetryBaseDelay)
		assert.Equal(t, "sk-test", cfg.APIKey)
	})
}

func TestConfigNormalize(t *testing.T) {
	t.Run("adds v1 suffix", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434"))
		cfg.Normalize()

		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.SynthesizerHost)
	})

	t.Run("trims trailing slash before suffixing", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434/"))
		cfg.Normalize()

		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("leaves canonical hosts alone", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434/v1"))
		cfg.Normalize()

		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("empty api key becomes placeholder", func(t *testing.T) {
		cfg := NewConfig(WithAPIKey(""))
		cfg.Normalize()

		assert.Equal(t, "none", cfg.APIKey)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("missing embedding host", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EmbeddingHost = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing embedding model", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EmbeddingModel = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing synthesizer model", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SynthesizerModel = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive concurrency", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxConcurrent = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive retries", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxRetries = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive retry delay", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RetryBaseDelay = 0
		assert.Error(t, cfg.Validate())
	})
}
