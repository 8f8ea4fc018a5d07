package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored profiles.
// IDs are assigned from a database sequence and are immutable once assigned.
type ID uint64

// Fingerprint is a content hash of a profile's canonical text.
// The vector index stores the fingerprint alongside each embedding so that
// re-syncing can skip profiles whose text has not changed.
type Fingerprint uint64

// FingerprintFromContent computes a deterministic fingerprint from text using
// BLAKE2b hashing. Identical content always produces an identical fingerprint.
func FingerprintFromContent(text string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// Profile represents one person's matrimonial record.
// Profiles are created by import or API insert and never mutated afterwards;
// the zero Age means the age is unknown.
type Profile struct {
	Id                ID
	Age               int
	Gender            string
	MaritalStatus     string
	Caste             string
	Sect              string
	State             string
	About             string
	PartnerPreference string
	InsertedAt        time.Time // When the profile was inserted into the store
	UpdatedAt         time.Time // When the profile was last written
}

// EmbeddingRecord pairs a profile identifier with its embedding vector, the
// canonical text the vector was derived from, and that text's fingerprint.
// A profile has at most one embedding record; re-syncing overwrites it.
type EmbeddingRecord struct {
	Id          ID
	Vector      []float32
	Text        string
	Fingerprint Fingerprint
}

// MatchResult is a single ranked hit from a hybrid search: the hydrated
// profile, its similarity score, and the canonical text the score was
// computed against.
type MatchResult struct {
	Profile *Profile
	Score   float32
	Text    string
}

// MatchSet is the full response of a hybrid search: the ranked results plus
// the size of the candidate set the scalar filter produced.
type MatchSet struct {
	Results        []*MatchResult
	CandidateCount int
}
