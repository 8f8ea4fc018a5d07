package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishtahq/rishta/ai/mock"
	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/vectorindex/local"
)

func TestSync_Full(t *testing.T) {
	repo := newTestRepository(t)
	idx, err := local.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	embedder := mock.NewMockEmbedder()

	ctx := context.Background()
	_, err = repo.AddProfiles(ctx,
		&core.Profile{Age: 26, Gender: "Male", Caste: "Sheikh"},
		&core.Profile{Age: 24, Gender: "Female", Sect: "Sunni"},
		&core.Profile{Age: 31, Gender: "Male", State: "Punjab"},
	)
	require.NoError(t, err)

	syncer, err := NewSyncer(repo, embedder, idx, WithRetry(1, time.Millisecond))
	require.NoError(t, err)
	defer syncer.Release()

	stats, err := syncer.Sync(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Embedded)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSync_IncrementalSkipsUnchanged(t *testing.T) {
	repo := newTestRepository(t)
	idx, err := local.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	embedder := mock.NewMockEmbedder()

	ctx := context.Background()
	_, err = repo.AddProfiles(ctx,
		&core.Profile{Age: 26, Gender: "Male"},
		&core.Profile{Age: 24, Gender: "Female"},
	)
	require.NoError(t, err)

	syncer, err := NewSyncer(repo, embedder, idx, WithRetry(1, time.Millisecond))
	require.NoError(t, err)
	defer syncer.Release()

	stats, err := syncer.Sync(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Embedded)

	// Nothing changed, so the second pass skips everything.
	embedder.Reset()
	stats, err = syncer.Sync(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Embedded)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 0, embedder.CallCount())
}

func TestSync_EmbedsNewProfiles(t *testing.T) {
	repo := newTestRepository(t)
	idx, err := local.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	embedder := mock.NewMockEmbedder()

	ctx := context.Background()
	_, err = repo.AddProfiles(ctx, &core.Profile{Age: 26, Gender: "Male"})
	require.NoError(t, err)

	syncer, err := NewSyncer(repo, embedder, idx, WithRetry(1, time.Millisecond))
	require.NoError(t, err)
	defer syncer.Release()

	_, err = syncer.Sync(ctx, false)
	require.NoError(t, err)

	_, err = repo.AddProfiles(ctx, &core.Profile{Age: 29, Gender: "Female"})
	require.NoError(t, err)

	stats, err := syncer.Sync(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Embedded)
	assert.Equal(t, 1, stats.Skipped)
}

func TestSync_FailedBatchCounted(t *testing.T) {
	repo := newTestRepository(t)
	idx, err := local.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}

	ctx := context.Background()
	_, err = repo.AddProfiles(ctx, &core.Profile{Age: 26, Gender: "Male"})
	require.NoError(t, err)

	syncer, err := NewSyncer(repo, embedder, idx, WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	defer syncer.Release()

	stats, err := syncer.Sync(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Embedded)
}

func TestSyncProfile(t *testing.T) {
	repo := newTestRepository(t)
	idx, err := local.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	embedder := mock.NewMockEmbedder()

	ctx := context.Background()
	stored, err := repo.AddProfiles(ctx, &core.Profile{Age: 26, Gender: "Male", About: "friendly"})
	require.NoError(t, err)

	syncer, err := NewSyncer(repo, embedder, idx, WithRetry(1, time.Millisecond))
	require.NoError(t, err)
	defer syncer.Release()

	require.NoError(t, syncer.SyncProfile(ctx, stored[0]))

	text := core.ProfileText(stored[0], core.DefaultTextFields)
	fingerprint, found, err := idx.Fingerprint(ctx, stored[0].Id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, core.FingerprintFromContent(text), fingerprint)
}

func TestSync_EmptyStore(t *testing.T) {
	repo := newTestRepository(t)
	idx, err := local.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	embedder := mock.NewMockEmbedder()

	syncer, err := NewSyncer(repo, embedder, idx)
	require.NoError(t, err)
	defer syncer.Release()

	stats, err := syncer.Sync(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, embedder.CallCount())
}

func TestNewSyncer_Validation(t *testing.T) {
	repo := newTestRepository(t)
	idx, err := local.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	embedder := mock.NewMockEmbedder()

	_, err = NewSyncer(nil, embedder, idx)
	assert.ErrorIs(t, err, ErrProfileRepositoryRequired)

	_, err = NewSyncer(repo, nil, idx)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewSyncer(repo, embedder, nil)
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewSyncer(repo, embedder, idx, WithRetry(0, time.Second))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}
