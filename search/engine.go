package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/rishtahq/rishta/ai"
	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/storage"
	"github.com/rishtahq/rishta/vectorindex"
)

const (
	// DefaultChunkSize bounds the identifier predicate of a single vector
	// query. Candidate sets larger than this are searched in chunks.
	DefaultChunkSize = 900

	// DefaultTimeout bounds a single match end to end.
	DefaultTimeout = 30 * time.Second
)

// Engine performs hybrid matching over profiles: a scalar filter selects
// the candidate set, then vector similarity against the query ranks it.
type Engine struct {
	profiles  storage.ProfileRepository
	embedder  ai.Embedder
	index     vectorindex.Index
	chunkSize int
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithChunkSize sets the maximum candidate chunk passed to a single
// vector query. Default is DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(e *Engine) error {
		if size <= 0 {
			return ErrInvalidChunkSize
		}
		e.chunkSize = size
		return nil
	}
}

// WithTimeout sets the per-match deadline. Default is DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		e.timeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "search")
		return nil
	}
}

// NewEngine creates a new matching engine.
func NewEngine(
	profiles storage.ProfileRepository,
	embedder ai.Embedder,
	index vectorindex.Index,
	opts ...Option,
) (*Engine, error) {
	if profiles == nil {
		return nil, ErrProfileRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	e := &Engine{
		profiles:  profiles,
		embedder:  embedder,
		index:     index,
		chunkSize: DefaultChunkSize,
		timeout:   DefaultTimeout,
		logger:    slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Match returns up to k profiles satisfying the filter, ranked by semantic
// similarity to the query.
func (e *Engine) Match(ctx context.Context, query string, filter storage.Filter, k int) (*core.MatchSet, error) {
	return e.MatchWithMonitor(ctx, query, filter, k, nil)
}

// MatchWithMonitor performs a match with monitoring. The monitor receives
// callbacks at each stage of the process.
//
// The candidate set is the profiles satisfying the filter, in ascending
// identifier order. It is partitioned into chunks of at most the configured
// chunk size, each chunk is searched independently, and per-profile results
// are merged keeping the best score. Results are ordered by descending
// similarity with ties broken by ascending identifier, so chunk
// partitioning never affects the outcome.
func (e *Engine) MatchWithMonitor(ctx context.Context, query string, filter storage.Filter, k int, monitor Monitor) (*core.MatchSet, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		return nil, ErrInvalidLimit
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	monitor.Start(query)

	// 1. Scalar filter selects the candidate set.
	candidates, err := e.profiles.FindProfileIDs(ctx, filter)
	if err != nil {
		e.logger.Error("error selecting candidates", "err", err)
		return nil, err
	}
	monitor.AfterFilter(candidates)

	// An empty candidate set never reaches the embedder or the index.
	if len(candidates) == 0 {
		set := &core.MatchSet{Results: []*core.MatchResult{}, CandidateCount: 0}
		monitor.Finish(set)
		return set, nil
	}

	// 2. Embed the query once; every chunk reuses the same vector.
	vector, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	vector = core.NormalizeVector(vector)
	monitor.AfterEmbedding(len(vector))

	// 3. Search chunk by chunk, keeping the best score per profile.
	best := make(map[core.ID]vectorindex.Match)
	for chunk := range slices.Chunk(candidates, e.chunkSize) {
		chunkLimit := min(k, len(chunk))
		matches, err := e.index.Search(ctx, vector, chunkLimit, chunk)
		if err != nil {
			e.logger.Error("error searching vector index", "err", err)
			return nil, err
		}
		monitor.AfterChunkSearch(chunk, matches)

		for _, match := range matches {
			if current, ok := best[match.Id]; !ok || match.Score > current.Score {
				best[match.Id] = match
			}
		}
	}

	// 4. Global ranking: descending similarity, ties by ascending identifier.
	ranked := make([]vectorindex.Match, 0, len(best))
	for _, match := range best {
		ranked = append(ranked, match)
	}
	slices.SortFunc(ranked, func(a, b vectorindex.Match) int {
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
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	// 5. Hydrate from the profile store. A ranked identifier with no stored
	// profile is dropped; the index can briefly run ahead of the store.
	ids := make([]core.ID, len(ranked))
	for i, match := range ranked {
		ids[i] = match.Id
	}
	profiles, err := e.profiles.GetProfiles(ctx, ids...)
	if err != nil {
		e.logger.Error("error hydrating results", "err", err)
		return nil, err
	}
	byID := make(map[core.ID]*core.Profile, len(profiles))
	for _, profile := range profiles {
		byID[profile.Id] = profile
	}

	results := make([]*core.MatchResult, 0, len(ranked))
	for _, match := range ranked {
		profile, ok := byID[match.Id]
		if !ok {
			e.logger.Warn("ranked profile missing from store, dropping", "id", match.Id)
			continue
		}
		results = append(results, &core.MatchResult{
			Profile: profile,
			Score:   match.Score,
			Text:    match.Text,
		})
	}

	set := &core.MatchSet{Results: results, CandidateCount: len(candidates)}
	monitor.Finish(set)
	return set, nil
}
