package vectorindex

import (
	"context"

	"github.com/rishtahq/rishta/core"
)

// Entry is one indexed embedding: the profile identifier, its normalized
// vector, the canonical text the vector was derived from, and that text's
// fingerprint.
type Entry struct {
	Id          core.ID
	Vector      []float32
	Text        string
	Fingerprint core.Fingerprint
}

// Match is a single nearest-neighbor hit. Score is cosine similarity;
// higher means closer.
type Match struct {
	Id    core.ID
	Score float32
	Text  string
}

// Index is the vector store contract consumed by the hybrid search engine.
// Implementations must be thread-safe for concurrent use.
type Index interface {
	// Upsert writes entries, overwriting any existing entry with the same
	// identifier. A profile never has more than one entry.
	Upsert(ctx context.Context, entries ...Entry) error

	// Delete removes entries by identifier. Missing identifiers are ignored.
	Delete(ctx context.Context, ids ...core.ID) error

	// Search returns up to k entries nearest to the query vector, ordered by
	// descending similarity with ties broken by ascending identifier.
	// A nil allow slice means no restriction; otherwise results are limited
	// to the given identifiers. Implementations bound the size of a single
	// allow predicate; callers chunk larger sets (see the search package).
	Search(ctx context.Context, vector []float32, k int, allow []core.ID) ([]Match, error)

	// Fingerprint returns the stored content fingerprint for an identifier.
	// The second return value is false when no entry exists.
	Fingerprint(ctx context.Context, id core.ID) (core.Fingerprint, bool, error)

	// Count returns the number of indexed entries.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the index.
	Close() error
}
