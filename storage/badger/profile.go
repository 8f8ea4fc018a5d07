package badger

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/storage"
)

// ProfileRepository implements storage.ProfileRepository for BadgerDB.
type ProfileRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(backend *Backend) (*ProfileRepository, error) {
	idSeq, err := backend.GetSequence(profileIDSeq)
	if err != nil {
		return nil, err
	}

	return &ProfileRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ProfileRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ProfileRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddProfiles adds one or more profiles to storage.
func (r *ProfileRepository) AddProfiles(ctx context.Context, profiles ...*core.Profile) ([]*core.Profile, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, profile := range profiles {
			// Always generate new ID from sequence
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			profile.Id = core.ID(nextID)

			profile.InsertedAt = time.Now().UTC()
			profile.UpdatedAt = profile.InsertedAt

			key := makeProfileKey(profile.Id)
			value := storage.MarshalProfile(profile)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return profiles, err
}

// GetProfile retrieves a single profile by ID.
func (r *ProfileRepository) GetProfile(ctx context.Context, id core.ID) (*core.Profile, error) {
	var profile *core.Profile

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		profile, err = r.readProfile(tx, makeProfileKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, storage.ErrNotFound
	}

	return profile, nil
}

// GetProfiles retrieves multiple profiles by their IDs.
// Missing profiles are silently omitted from the result.
func (r *ProfileRepository) GetProfiles(ctx context.Context, ids ...core.ID) ([]*core.Profile, error) {
	profiles := make([]*core.Profile, 0, len(ids))

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			profile, err := r.readProfile(tx, makeProfileKey(id))
			if err != nil {
				return err
			}
			if profile == nil {
				continue
			}
			profiles = append(profiles, profile)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return profiles, nil
}

// DeleteProfiles removes profiles by their IDs.
func (r *ProfileRepository) DeleteProfiles(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeProfileKey(id)
			if _, err := tx.Get(key); err != nil {
				if err == badger.ErrKeyNotFound {
					return storage.ErrNotFound
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteAllProfiles removes every profile from storage.
func (r *ProfileRepository) DeleteAllProfiles(ctx context.Context) error {
	// Collect keys first; deleting while iterating invalidates the iterator.
	var keys [][]byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(profileRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().KeyCopy(nil)
			if bytes.Equal(key, []byte(profileIDSeq)) {
				continue
			}
			keys = append(keys, key)
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// CountProfiles counts the profiles satisfying the filter.
func (r *ProfileRepository) CountProfiles(ctx context.Context, filter storage.Filter) (int, error) {
	count := 0
	err := r.scanProfiles(func(profile *core.Profile) {
		if filter.Matches(profile) {
			count++
		}
	})
	return count, err
}

// FindProfileIDs returns the IDs of all profiles satisfying the filter,
// sorted ascending. Sorting makes the candidate order independent of key
// encoding, so chunk partitions are deterministic.
func (r *ProfileRepository) FindProfileIDs(ctx context.Context, filter storage.Filter) ([]core.ID, error) {
	var ids []core.ID
	err := r.scanProfiles(func(profile *core.Profile) {
		if filter.Matches(profile) {
			ids = append(ids, profile.Id)
		}
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(ids)
	return ids, nil
}

// FieldValues returns the count of each non-empty value of the named field.
func (r *ProfileRepository) FieldValues(ctx context.Context, field string) (map[string]int, error) {
	switch field {
	case core.FieldAge, core.FieldGender, core.FieldMaritalStatus,
		core.FieldCaste, core.FieldSect, core.FieldState,
		core.FieldAbout, core.FieldPartnerPreference:
	default:
		return nil, storage.ErrUnknownField
	}

	counts := make(map[string]int)
	err := r.scanProfiles(func(profile *core.Profile) {
		if value := profile.FieldValue(field); value != "" {
			counts[value]++
		}
	})
	if err != nil {
		return nil, err
	}

	return counts, nil
}

// scanProfiles iterates every stored profile in a read transaction.
func (r *ProfileRepository) scanProfiles(visit func(profile *core.Profile)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(profileRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			// Skip the sequence key
			if bytes.Equal(item.Key(), []byte(profileIDSeq)) {
				continue
			}

			var profile *core.Profile
			err := item.Value(func(val []byte) error {
				var err error
				profile, err = storage.UnmarshalProfile(val)
				return err
			})
			if err != nil {
				return err
			}
			if profile == nil {
				continue
			}
			visit(profile)
		}
		return nil
	}, false)
}

// readProfile reads and decodes a profile by key.
// Returns nil without error when the key is absent.
func (r *ProfileRepository) readProfile(tx *badger.Txn, key []byte) (*core.Profile, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var profile *core.Profile
	err = item.Value(func(val []byte) error {
		var err error
		profile, err = storage.UnmarshalProfile(val)
		return err
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}
