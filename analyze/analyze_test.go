package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/storage"
	badgerstore "github.com/rishtahq/rishta/storage/badger"
)

func newTestRepository(t *testing.T) *badgerstore.ProfileRepository {
	t.Helper()
	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return repo
}

func seedProfiles(t *testing.T, repo storage.ProfileRepository) {
	t.Helper()
	_, err := repo.AddProfiles(context.Background(),
		&core.Profile{Age: 26, Gender: "Male", Caste: "Sheikh"},
		&core.Profile{Age: 24, Gender: "Female", Caste: "Sheikh"},
		&core.Profile{Age: 31, Gender: "Male", Caste: "Rajput"},
		&core.Profile{Age: 28, Gender: "Male"}, // no caste
	)
	require.NoError(t, err)
}

func TestAnalyze(t *testing.T) {
	repo := newTestRepository(t)
	seedProfiles(t, repo)

	analyzer := New(repo)
	report, err := analyzer.Analyze(context.Background(), core.FieldGender, core.FieldCaste)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	require.Len(t, report.Fields, 2)

	gender := report.Fields[0]
	assert.Equal(t, core.FieldGender, gender.Field)
	assert.Equal(t, 2, gender.Distinct)
	assert.Equal(t, 0, gender.Missing)
	require.Len(t, gender.Top, 2)
	assert.Equal(t, ValueCount{Value: "Male", Count: 3}, gender.Top[0])
	assert.Equal(t, ValueCount{Value: "Female", Count: 1}, gender.Top[1])

	caste := report.Fields[1]
	assert.Equal(t, 2, caste.Distinct)
	assert.Equal(t, 1, caste.Missing)
	assert.Equal(t, ValueCount{Value: "Sheikh", Count: 2}, caste.Top[0])
}

func TestAnalyze_DefaultFields(t *testing.T) {
	repo := newTestRepository(t)
	seedProfiles(t, repo)

	report, err := New(repo).Analyze(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Fields, len(DefaultFields))
}

func TestAnalyze_TopN(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.AddProfiles(context.Background(),
		&core.Profile{Gender: "Male", State: "Punjab"},
		&core.Profile{Gender: "Male", State: "Sindh"},
		&core.Profile{Gender: "Male", State: "Balochistan"},
	)
	require.NoError(t, err)

	report, err := New(repo, WithTopN(2)).Analyze(context.Background(), core.FieldState)
	require.NoError(t, err)

	stats := report.Fields[0]
	assert.Equal(t, 3, stats.Distinct)
	assert.Len(t, stats.Top, 2)
}

func TestAnalyze_UnknownField(t *testing.T) {
	repo := newTestRepository(t)
	seedProfiles(t, repo)

	_, err := New(repo).Analyze(context.Background(), "No_Such_Field")
	assert.ErrorIs(t, err, storage.ErrUnknownField)
}

func TestAnalyze_EmptyStore(t *testing.T) {
	repo := newTestRepository(t)

	report, err := New(repo).Analyze(context.Background(), core.FieldGender)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
	assert.Equal(t, 0, report.Fields[0].Distinct)
	assert.Equal(t, 0, report.Fields[0].Missing)
}
