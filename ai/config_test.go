package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, "http://localhost:11434/v1", config.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", config.EmbeddingModel)
	assert.Equal(t, "none", config.Token)
	assert.NoError(t, config.Validate())
}

func TestNewConfig_Options(t *testing.T) {
	config := NewConfig(
		WithEmbeddingHost("https://api.openai.com/v1"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithToken("sk-test"),
	)

	require.NoError(t, config.Validate())
	assert.Equal(t, "https://api.openai.com/v1", config.EmbeddingHost)
	assert.Equal(t, "text-embedding-3-small", config.EmbeddingModel)
	assert.Equal(t, "sk-test", config.Token)
}

func TestConfigValidate(t *testing.T) {
	t.Run("missing host", func(t *testing.T) {
		config := &Config{EmbeddingModel: "m"}
		assert.Error(t, config.Validate())
	})

	t.Run("missing model", func(t *testing.T) {
		config := &Config{EmbeddingHost: "http://localhost:11434/v1"}
		assert.Error(t, config.Validate())
	})

	t.Run("normalizes host and defaults token", func(t *testing.T) {
		config := &Config{EmbeddingHost: " http://localhost:11434/v1/ ", EmbeddingModel: "m"}
		require.NoError(t, config.Validate())
		assert.Equal(t, "http://localhost:11434/v1", config.EmbeddingHost)
		assert.Equal(t, "none", config.Token)
	})
}
