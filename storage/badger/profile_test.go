package badger

import (
	"context"
	"testing"

	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func seedProfiles(t *testing.T, repo *ProfileRepository, profiles ...*core.Profile) []*core.Profile {
	t.Helper()
	added, err := repo.AddProfiles(context.Background(), profiles...)
	require.NoError(t, err)
	return added
}

func TestAddAndGetProfile(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	added := seedProfiles(t, repo, &core.Profile{Age: 26, Gender: "Male", State: "Punjab"})
	require.Len(t, added, 1)
	assert.NotZero(t, added[0].Id)
	assert.False(t, added[0].InsertedAt.IsZero())

	got, err := repo.GetProfile(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, 26, got.Age)
	assert.Equal(t, "Male", got.Gender)
	assert.Equal(t, "Punjab", got.State)
}

func TestGetProfile_NotFound(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	_, err = repo.GetProfile(context.Background(), core.ID(9999))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetProfiles_OmitsMissing(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	added := seedProfiles(t, repo,
		&core.Profile{Age: 26, Gender: "Male"},
		&core.Profile{Age: 30, Gender: "Female"},
	)

	got, err := repo.GetProfiles(ctx, added[0].Id, core.ID(12345), added[1].Id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, added[0].Id, got[0].Id)
	assert.Equal(t, added[1].Id, got[1].Id)
}

func TestDeleteProfiles(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	added := seedProfiles(t, repo, &core.Profile{Age: 26, Gender: "Male"})

	require.NoError(t, repo.DeleteProfiles(ctx, added[0].Id))

	_, err = repo.GetProfile(ctx, added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = repo.DeleteProfiles(ctx, added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteAllProfiles(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	seedProfiles(t, repo,
		&core.Profile{Age: 26, Gender: "Male"},
		&core.Profile{Age: 30, Gender: "Female"},
		&core.Profile{Age: 41, Gender: "Male"},
	)

	require.NoError(t, repo.DeleteAllProfiles(ctx))

	count, err := repo.CountProfiles(ctx, storage.Filter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCountAndFindProfileIDs(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	added := seedProfiles(t, repo,
		&core.Profile{Age: 26, Gender: "Female", Caste: "Syed", State: "Maharashtra"},
		&core.Profile{Age: 31, Gender: "Female", Caste: "Sheikh", State: "Kerala"},
		&core.Profile{Age: 35, Gender: "Male", Caste: "Syed", State: "Maharashtra"},
		&core.Profile{Gender: "Female", Caste: "Syed"}, // unknown age
	)

	t.Run("empty filter matches all", func(t *testing.T) {
		count, err := repo.CountProfiles(ctx, storage.Filter{})
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})

	t.Run("gender equality", func(t *testing.T) {
		ids, err := repo.FindProfileIDs(ctx, storage.Filter{Gender: "Female"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []core.ID{added[0].Id, added[1].Id, added[3].Id}, ids)
	})

	t.Run("gender and age range", func(t *testing.T) {
		ids, err := repo.FindProfileIDs(ctx, storage.Filter{
			Gender: "Female",
			MinAge: intPtr(24),
			MaxAge: intPtr(32),
		})
		require.NoError(t, err)
		// Unknown age fails the range; ids come back sorted ascending.
		assert.Equal(t, []core.ID{added[0].Id, added[1].Id}, ids)
	})

	t.Run("conjunction of equalities", func(t *testing.T) {
		ids, err := repo.FindProfileIDs(ctx, storage.Filter{Gender: "Female", Caste: "Syed"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []core.ID{added[0].Id, added[3].Id}, ids)
	})

	t.Run("no matches", func(t *testing.T) {
		ids, err := repo.FindProfileIDs(ctx, storage.Filter{State: "Goa"})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestFindProfileIDs_Sorted(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	profiles := make([]*core.Profile, 15)
	for i := range profiles {
		profiles[i] = &core.Profile{Age: 20 + i, Gender: "Female"}
	}
	seedProfiles(t, repo, profiles...)

	ids, err := repo.FindProfileIDs(ctx, storage.Filter{Gender: "Female"})
	require.NoError(t, err)
	require.Len(t, ids, 15)
	for i := 0; i < len(ids)-1; i++ {
		assert.Less(t, ids[i], ids[i+1])
	}
}

func TestFieldValues(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	seedProfiles(t, repo,
		&core.Profile{Age: 26, Gender: "Female", Caste: "Syed"},
		&core.Profile{Age: 31, Gender: "Female"},
		&core.Profile{Age: 35, Gender: "Male", Caste: "Syed"},
	)

	counts, err := repo.FieldValues(ctx, core.FieldGender)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Female": 2, "Male": 1}, counts)

	counts, err = repo.FieldValues(ctx, core.FieldCaste)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Syed": 2}, counts)

	_, err = repo.FieldValues(ctx, "Height")
	assert.ErrorIs(t, err, storage.ErrUnknownField)
}
