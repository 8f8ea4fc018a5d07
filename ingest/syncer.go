package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/rishtahq/rishta/ai"
	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/storage"
	"github.com/rishtahq/rishta/vectorindex"
)

const (
	defaultSyncBatchSize = 100
	defaultMaxAttempts   = 3
	defaultBaseDelay     = time.Second
)

// Syncer keeps the vector index in sync with the profile store.
// It walks profiles in identifier order, builds each profile's canonical
// text, and embeds and indexes any profile whose text fingerprint differs
// from the one already stored in the index.
type Syncer struct {
	profiles    storage.ProfileRepository
	embedder    ai.Embedder
	index       vectorindex.Index
	pool        *ants.Pool
	batchSize   int
	textFields  []string
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer) error

// WithPoolSize sets the worker pool size for concurrent embedding batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) SyncerOption {
	return func(s *Syncer) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithSyncBatchSize sets how many profiles are embedded per request.
// Default is 100.
func WithSyncBatchSize(size int) SyncerOption {
	return func(s *Syncer) error {
		if size < 1 {
			size = 1
		}
		s.batchSize = size
		return nil
	}
}

// WithTextFields sets the ordered field list for canonical profile text.
// Default is core.DefaultTextFields. The same list must be used when
// embedding queries, or scores become meaningless.
func WithTextFields(fields []string) SyncerOption {
	return func(s *Syncer) error {
		if len(fields) > 0 {
			s.textFields = slices.Clone(fields)
		}
		return nil
	}
}

// WithRetry sets the retry policy for embedding requests.
// Default is 3 attempts with a one second base delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) SyncerOption {
	return func(s *Syncer) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		s.maxAttempts = maxAttempts
		s.baseDelay = baseDelay
		return nil
	}
}

// WithSyncerLogger sets a custom logger.
// Default is slog.Default().
func WithSyncerLogger(logger *slog.Logger) SyncerOption {
	return func(s *Syncer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "ingest.syncer")
		return nil
	}
}

// NewSyncer creates a new embedding syncer.
func NewSyncer(
	profiles storage.ProfileRepository,
	embedder ai.Embedder,
	index vectorindex.Index,
	opts ...SyncerOption,
) (*Syncer, error) {
	if profiles == nil {
		return nil, ErrProfileRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Syncer{
		profiles:    profiles,
		embedder:    embedder,
		index:       index,
		pool:        pool,
		batchSize:   defaultSyncBatchSize,
		textFields:  core.DefaultTextFields,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		logger:      slog.Default().With("component", "ingest.syncer"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}

	return s, nil
}

// Release shuts down the worker pool.
func (s *Syncer) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// SyncStats summarizes one sync run.
type SyncStats struct {
	Total    int // Profiles examined
	Embedded int // Profiles embedded and upserted
	Skipped  int // Profiles whose fingerprint already matched
	Failed   int // Batches that failed after retries, in profiles
}

// Sync walks the whole profile store and brings the index up to date.
// When full is true every profile is re-embedded; otherwise profiles whose
// stored fingerprint matches their current canonical text are skipped.
// Batches are embedded concurrently on the worker pool; a batch that fails
// after retries is counted in Failed and does not abort the run.
func (s *Syncer) Sync(ctx context.Context, full bool) (*SyncStats, error) {
	ids, err := s.profiles.FindProfileIDs(ctx, storage.Filter{})
	if err != nil {
		return nil, err
	}

	stats := &SyncStats{Total: len(ids)}
	if len(ids) == 0 {
		return stats, nil
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	processed := 0
	for chunk := range slices.Chunk(ids, s.batchSize) {
		profiles, err := s.profiles.GetProfiles(ctx, chunk...)
		if err != nil {
			return stats, err
		}

		// Decide per profile whether its embedding is stale.
		pending := make([]vectorindex.Entry, 0, len(profiles))
		for _, profile := range profiles {
			text := core.ProfileText(profile, s.textFields)
			fingerprint := core.FingerprintFromContent(text)

			if !full {
				stored, found, err := s.index.Fingerprint(ctx, profile.Id)
				if err != nil {
					return stats, err
				}
				if found && stored == fingerprint {
					mu.Lock()
					stats.Skipped++
					mu.Unlock()
					continue
				}
			}

			pending = append(pending, vectorindex.Entry{
				Id:          profile.Id,
				Text:        text,
				Fingerprint: fingerprint,
			})
		}

		processed += len(chunk)
		s.logger.Info("sync progress", "processed", processed, "total", len(ids))

		if len(pending) == 0 {
			continue
		}

		wg.Add(1)
		batch := pending
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			if err := s.embedBatch(ctx, batch); err != nil {
				s.logger.Error("embedding batch failed", "size", len(batch), "err", err)
				mu.Lock()
				stats.Failed += len(batch)
				mu.Unlock()
				return
			}
			mu.Lock()
			stats.Embedded += len(batch)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			return stats, submitErr
		}
	}

	wg.Wait()
	s.logger.Info("sync finished",
		"total", stats.Total, "embedded", stats.Embedded,
		"skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

// SyncProfile embeds and indexes a single profile synchronously.
// Used on the insert path so a new profile is searchable immediately.
func (s *Syncer) SyncProfile(ctx context.Context, profile *core.Profile) error {
	text := core.ProfileText(profile, s.textFields)
	entry := vectorindex.Entry{
		Id:          profile.Id,
		Text:        text,
		Fingerprint: core.FingerprintFromContent(text),
	}
	return s.embedBatch(ctx, []vectorindex.Entry{entry})
}

// embedBatch embeds the batch texts with retries, normalizes the vectors
// and upserts the entries.
func (s *Syncer) embedBatch(ctx context.Context, batch []vectorindex.Entry) error {
	texts := make([]string, len(batch))
	for i, entry := range batch {
		texts[i] = entry.Text
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = s.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, s.maxAttempts, s.baseDelay)
	if err != nil {
		return err
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
	}

	for i := range batch {
		batch[i].Vector = core.NormalizeVector(vectors[i])
	}
	return s.index.Upsert(ctx, batch...)
}
