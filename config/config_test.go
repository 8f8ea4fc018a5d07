package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "data/profiles", cfg.Storage.Path)
	assert.Equal(t, "local", cfg.Index.Type)
	assert.Equal(t, 900, cfg.Search.ChunkSize)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "embeddinggemma", cfg.Embedder.Model)
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage:
  path: /var/lib/rishta
index:
  type: qdrant
server:
  addr: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/rishta", cfg.Storage.Path)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "qdrant", cfg.Index.Type)
	require.NotNil(t, cfg.Index.Qdrant)
	assert.Equal(t, "http://localhost:6333", cfg.Index.Qdrant.URL)
	assert.Equal(t, "profile_embeddings", cfg.Index.Qdrant.Collection)
	assert.Equal(t, 900, cfg.Search.ChunkSize)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
