// Package config loads application configuration from YAML with sane
// defaults. A missing config file is not an error; defaults apply.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StorageConfig configures the profile store.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// EmbedderConfig configures the OpenAI-compatible embedding endpoint.
type EmbedderConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	TokenEnv  string `yaml:"token_env"`
	BatchSize int    `yaml:"batch_size"`
}

// QdrantConfig contains connection details for a Qdrant vector index.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Collection string `yaml:"collection"`
}

// IndexConfig selects and configures the vector index implementation.
type IndexConfig struct {
	Type   string        `yaml:"type"` // "local" or "qdrant"
	Path   string        `yaml:"path"` // local index directory
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// SearchConfig tunes the matching engine.
type SearchConfig struct {
	ChunkSize   int `yaml:"chunk_size"`
	TimeoutSecs int `yaml:"timeout_secs"`
}

// ServerConfig configures the HTTP front door.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the root application configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Index    IndexConfig    `yaml:"index"`
	Search   SearchConfig   `yaml:"search"`
	Server   ServerConfig   `yaml:"server"`
}

// Load reads a config from the given path. If the file does not exist,
// returns defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/profiles"
	}
	if cfg.Embedder.Host == "" {
		cfg.Embedder.Host = "http://localhost:11434/v1"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "embeddinggemma"
	}
	if cfg.Embedder.TokenEnv == "" {
		cfg.Embedder.TokenEnv = "EMBEDDING_API_KEY"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 100
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "local"
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = "data/index"
	}
	if cfg.Index.Type == "qdrant" {
		if cfg.Index.Qdrant == nil {
			cfg.Index.Qdrant = &QdrantConfig{}
		}
		if cfg.Index.Qdrant.URL == "" {
			cfg.Index.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.Index.Qdrant.APIKeyEnv == "" {
			cfg.Index.Qdrant.APIKeyEnv = "QDRANT_API_KEY"
		}
		if cfg.Index.Qdrant.Collection == "" {
			cfg.Index.Qdrant.Collection = "profile_embeddings"
		}
	}
	if cfg.Search.ChunkSize == 0 {
		cfg.Search.ChunkSize = 900
	}
	if cfg.Search.TimeoutSecs == 0 {
		cfg.Search.TimeoutSecs = 30
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
}
