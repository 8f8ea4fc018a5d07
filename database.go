// Copyright 2025 Rishta Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package rishta wires the profile store, the embedder and the vector
// index into one Database handle, and hands out the importer, syncer and
// matching engine built on top of them.
package rishta

import (
	"log/slog"
	"os"
	"time"

	"github.com/rishtahq/rishta/ai"
	"github.com/rishtahq/rishta/ai/openai"
	"github.com/rishtahq/rishta/analyze"
	"github.com/rishtahq/rishta/config"
	"github.com/rishtahq/rishta/ingest"
	"github.com/rishtahq/rishta/search"
	"github.com/rishtahq/rishta/storage"
	badgerstore "github.com/rishtahq/rishta/storage/badger"
	"github.com/rishtahq/rishta/vectorindex"
	"github.com/rishtahq/rishta/vectorindex/local"
	"github.com/rishtahq/rishta/vectorindex/qdrant"
)

// Database bundles the stores and the embedder behind one handle.
type Database struct {
	backend  *badgerstore.Backend
	profiles storage.ProfileRepository
	index    vectorindex.Index
	embedder ai.Embedder
	cfg      *config.Config
	logger   *slog.Logger
}

// Open builds a Database from configuration: the BadgerDB profile store,
// the configured vector index (embedded or Qdrant), and the
// OpenAI-compatible embedder.
func Open(cfg *config.Config) (*Database, error) {
	backend, err := badgerstore.OpenBackend(cfg.Storage.Path, false)
	if err != nil {
		return nil, err
	}

	profiles, err := badgerstore.NewProfileRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	index, err := openIndex(cfg)
	if err != nil {
		profiles.Close()
		backend.Close()
		return nil, err
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(cfg.Embedder.Host),
		ai.WithEmbeddingModel(cfg.Embedder.Model),
		ai.WithToken(os.Getenv(cfg.Embedder.TokenEnv)),
	)
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		index.Close()
		profiles.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:  backend,
		profiles: profiles,
		index:    index,
		embedder: embedder,
		cfg:      cfg,
		logger:   slog.Default(),
	}, nil
}

func openIndex(cfg *config.Config) (vectorindex.Index, error) {
	if cfg.Index.Type == "qdrant" && cfg.Index.Qdrant != nil {
		return qdrant.New(qdrant.Config{
			URL:        cfg.Index.Qdrant.URL,
			APIKey:     os.Getenv(cfg.Index.Qdrant.APIKeyEnv),
			Collection: cfg.Index.Qdrant.Collection,
		}), nil
	}
	return local.Open(cfg.Index.Path)
}

// Close releases the stores. The embedder holds no resources.
func (db *Database) Close() error {
	if err := db.index.Close(); err != nil {
		db.logger.Error("error closing vector index", "err", err)
		return err
	}
	if err := db.profiles.Close(); err != nil {
		db.logger.Error("error closing profile repository", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// ProfileRepository returns the profile store.
func (db *Database) ProfileRepository() storage.ProfileRepository {
	return db.profiles
}

// Index returns the vector index.
func (db *Database) Index() vectorindex.Index {
	return db.index
}

// Embedder returns the configured embedder.
func (db *Database) Embedder() ai.Embedder {
	return db.embedder
}

// NewEngine creates a matching engine over the database, tuned from
// configuration unless overridden by opts.
func (db *Database) NewEngine(opts ...search.Option) (*search.Engine, error) {
	base := []search.Option{
		search.WithChunkSize(db.cfg.Search.ChunkSize),
		search.WithTimeout(time.Duration(db.cfg.Search.TimeoutSecs) * time.Second),
	}
	return search.NewEngine(db.profiles, db.embedder, db.index, append(base, opts...)...)
}

// NewImporter creates a CSV importer over the profile store.
func (db *Database) NewImporter(opts ...ingest.ImporterOption) (*ingest.Importer, error) {
	return ingest.NewImporter(db.profiles, opts...)
}

// NewSyncer creates an embedding syncer over the database.
func (db *Database) NewSyncer(opts ...ingest.SyncerOption) (*ingest.Syncer, error) {
	base := []ingest.SyncerOption{
		ingest.WithSyncBatchSize(db.cfg.Embedder.BatchSize),
	}
	return ingest.NewSyncer(db.profiles, db.embedder, db.index, append(base, opts...)...)
}

// NewAnalyzer creates a dataset analyzer over the profile store.
func (db *Database) NewAnalyzer(opts ...analyze.Option) *analyze.Analyzer {
	return analyze.New(db.profiles, opts...)
}
