// Package local implements vectorindex.Index on an embedded BadgerDB
// store using brute-force cosine similarity. Vectors are expected to be
// unit-normalized, so similarity reduces to a dot product.
package local

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/storage"
	badgerstore "github.com/rishtahq/rishta/storage/badger"
	"github.com/rishtahq/rishta/vectorindex"
)

const entryPrefix = "vecrec"

func makeEntryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", entryPrefix, id))
}

// Index is an embedded vector index. It owns its own BadgerDB store,
// separate from the profile store.
type Index struct {
	backend *badgerstore.Backend
	logger  *slog.Logger
}

var _ vectorindex.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used by the index.
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) {
		idx.logger = logger.With("component", "vectorindex.local")
	}
}

// Open opens (or creates) an index at the given directory.
func Open(path string, opts ...Option) (*Index, error) {
	backend, err := badgerstore.OpenBackend(path, false)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	return newIndex(backend, opts...), nil
}

// OpenInMemory opens an ephemeral index backed by an in-memory store.
func OpenInMemory(opts ...Option) (*Index, error) {
	backend, err := badgerstore.OpenBackend("", true)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	return newIndex(backend, opts...), nil
}

func newIndex(backend *badgerstore.Backend, opts ...Option) *Index {
	idx := &Index{
		backend: backend,
		logger:  slog.Default().With("component", "vectorindex.local"),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Upsert writes entries, replacing existing ones with the same identifier.
func (idx *Index) Upsert(ctx context.Context, entries ...vectorindex.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, entry := range entries {
		if len(entry.Vector) == 0 {
			return fmt.Errorf("%w: entry %d has empty vector", vectorindex.ErrInvalidVector, entry.Id)
		}
	}

	return idx.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			record := &core.EmbeddingRecord{
				Id:          entry.Id,
				Vector:      entry.Vector,
				Text:        entry.Text,
				Fingerprint: entry.Fingerprint,
			}
			if err := tx.Set(makeEntryKey(entry.Id), storage.MarshalEmbeddingRecord(record)); err != nil {
				return fmt.Errorf("failed to write entry %d: %w", entry.Id, err)
			}
		}
		return tx.Commit()
	}, true)
}

// Delete removes entries by identifier. Missing identifiers are ignored.
func (idx *Index) Delete(ctx context.Context, ids ...core.ID) error {
	if len(ids) == 0 {
		return nil
	}
	return idx.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeEntryKey(id)); err != nil {
				return fmt.Errorf("failed to delete entry %d: %w", id, err)
			}
		}
		return tx.Commit()
	}, true)
}

// Search scans all entries, scoring each by dot product against the query
// vector. With a non-nil allow set only those identifiers are considered.
func (idx *Index) Search(ctx context.Context, vector []float32, k int, allow []core.ID) ([]vectorindex.Match, error) {
	if len(vector) == 0 {
		return nil, vectorindex.ErrInvalidVector
	}
	if k <= 0 {
		return nil, vectorindex.ErrInvalidLimit
	}

	var allowed map[core.ID]struct{}
	if allow != nil {
		allowed = make(map[core.ID]struct{}, len(allow))
		for _, id := range allow {
			allowed[id] = struct{}{}
		}
	}

	var matches []vectorindex.Match
	err := idx.scanEntries(func(record *core.EmbeddingRecord) error {
		if allowed != nil {
			if _, ok := allowed[record.Id]; !ok {
				return nil
			}
		}
		matches = append(matches, vectorindex.Match{
			Id:    record.Id,
			Score: dotProduct(vector, record.Vector),
			Text:  record.Text,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending; ties broken by ascending identifier
	// so results are deterministic.
	slices.SortFunc(matches, func(a, b vectorindex.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Id < b.Id {
			return -1
		}
		if a.Id > b.Id {
			return 1
		}
		return 0
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Fingerprint returns the stored fingerprint for an identifier.
func (idx *Index) Fingerprint(ctx context.Context, id core.ID) (core.Fingerprint, bool, error) {
	var (
		fingerprint core.Fingerprint
		found       bool
	)
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntryKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			record, err := storage.UnmarshalEmbeddingRecord(val)
			if err != nil {
				return fmt.Errorf("%w: entry %d: %w", storage.ErrSerializationFailed, id, err)
			}
			fingerprint = record.Fingerprint
			found = true
			return nil
		})
	}, false)
	if err != nil {
		return 0, false, err
	}
	return fingerprint, found, nil
}

// Count returns the number of indexed entries.
func (idx *Index) Count(ctx context.Context) (int, error) {
	count := 0
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Close closes the underlying store.
func (idx *Index) Close() error {
	return idx.backend.Close()
}

func (idx *Index) scanEntries(visit func(record *core.EmbeddingRecord) error) error {
	return idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		keyPrefix := []byte(entryPrefix + ":")
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if !bytes.HasPrefix(item.Key(), keyPrefix) {
				continue
			}
			err := item.Value(func(val []byte) error {
				record, err := storage.UnmarshalEmbeddingRecord(val)
				if err != nil {
					return fmt.Errorf("%w: key %s: %w", storage.ErrSerializationFailed, item.Key(), err)
				}
				return visit(record)
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
