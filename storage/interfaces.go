package storage

import (
	"context"

	"github.com/rishtahq/rishta/core"
)

// Filter is a conjunction of scalar constraints evaluated against profiles.
// Empty string fields are unconstrained; MinAge/MaxAge form an optional closed
// range. A profile with unknown age (Age == 0) fails any age constraint.
type Filter struct {
	Gender        string
	MaritalStatus string
	Caste         string
	Sect          string
	State         string
	MinAge        *int
	MaxAge        *int
}

// Empty reports whether the filter places no constraints at all.
func (f Filter) Empty() bool {
	return f.Gender == "" && f.MaritalStatus == "" && f.Caste == "" &&
		f.Sect == "" && f.State == "" && f.MinAge == nil && f.MaxAge == nil
}

// Matches reports whether the profile satisfies every constraint.
func (f Filter) Matches(p *core.Profile) bool {
	if f.Gender != "" && p.Gender != f.Gender {
		return false
	}
	if f.MaritalStatus != "" && p.MaritalStatus != f.MaritalStatus {
		return false
	}
	if f.Caste != "" && p.Caste != f.Caste {
		return false
	}
	if f.Sect != "" && p.Sect != f.Sect {
		return false
	}
	if f.State != "" && p.State != f.State {
		return false
	}
	if f.MinAge != nil || f.MaxAge != nil {
		if p.Age == 0 {
			return false
		}
		if f.MinAge != nil && p.Age < *f.MinAge {
			return false
		}
		if f.MaxAge != nil && p.Age > *f.MaxAge {
			return false
		}
	}
	return true
}

// ProfileRepository provides operations for managing profiles.
// Implementations must be thread-safe and support concurrent access.
type ProfileRepository interface {
	// AddProfiles adds one or more profiles to storage.
	// Generates new IDs from the store sequence and sets timestamps.
	// Returns the profiles with generated IDs and timestamps populated.
	AddProfiles(ctx context.Context, profiles ...*core.Profile) ([]*core.Profile, error)

	// GetProfile retrieves a single profile by ID.
	// Returns ErrNotFound if the profile doesn't exist.
	GetProfile(ctx context.Context, id core.ID) (*core.Profile, error)

	// GetProfiles retrieves multiple profiles by their IDs.
	// Returns only the profiles that exist (no error for missing profiles).
	GetProfiles(ctx context.Context, ids ...core.ID) ([]*core.Profile, error)

	// DeleteProfiles removes profiles by their IDs.
	// Returns ErrNotFound if any profile doesn't exist.
	DeleteProfiles(ctx context.Context, ids ...core.ID) error

	// DeleteAllProfiles removes every profile from storage.
	DeleteAllProfiles(ctx context.Context) error

	// CountProfiles counts the profiles satisfying the filter.
	CountProfiles(ctx context.Context, filter Filter) (int, error)

	// FindProfileIDs returns the IDs of all profiles satisfying the filter,
	// in ascending ID order. No limit is applied; this is the candidate set
	// for hybrid search and its order is the chunk partition order.
	FindProfileIDs(ctx context.Context, filter Filter) ([]core.ID, error)

	// FieldValues returns the count of each non-empty value of the named
	// canonical field across all profiles.
	FieldValues(ctx context.Context, field string) (map[string]int, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}
