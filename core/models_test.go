package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		wantErr error
	}{
		{
			name:    "valid profile",
			profile: &Profile{Age: 26, Gender: "Male"},
		},
		{
			name:    "unknown age allowed",
			profile: &Profile{Gender: "Female"},
		},
		{
			name:    "negative age",
			profile: &Profile{Age: -1, Gender: "Male"},
			wantErr: ErrNegativeAge,
		},
		{
			name:    "missing gender",
			profile: &Profile{Age: 26},
			wantErr: ErrEmptyGender,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidProfile)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProfileMUSRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name    string
		profile Profile
	}{
		{
			name: "full profile",
			profile: Profile{
				Id:                42,
				Age:               26,
				Gender:            "Male",
				MaritalStatus:     "Never Married",
				Caste:             "Sheikh",
				Sect:              "Sunni",
				State:             "Uttar Pradesh",
				About:             "Software engineer",
				PartnerPreference: "Educated and caring",
				InsertedAt:        now,
				UpdatedAt:         now,
			},
		},
		{
			name:    "sparse profile",
			profile: Profile{Id: 1, Gender: "Female", InsertedAt: now, UpdatedAt: now},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs := make([]byte, ProfileMUS.Size(tt.profile))
			n := ProfileMUS.Marshal(tt.profile, bs)
			assert.Equal(t, len(bs), n)

			decoded, n, err := ProfileMUS.Unmarshal(bs)
			require.NoError(t, err)
			assert.Equal(t, len(bs), n)
			assert.Equal(t, tt.profile, decoded)
		})
	}
}

func TestProfileMUSUnmarshalTruncated(t *testing.T) {
	_, _, err := ProfileMUS.Unmarshal([]byte{})
	assert.Error(t, err)
}

func TestEmbeddingRecordMUSRoundTrip(t *testing.T) {
	record := EmbeddingRecord{
		Id:          7,
		Vector:      []float32{0.1, 0.5, -0.3},
		Text:        "Age 26, Gender Male",
		Fingerprint: FingerprintFromContent("Age 26, Gender Male"),
	}

	bs := make([]byte, EmbeddingRecordMUS.Size(record))
	n := EmbeddingRecordMUS.Marshal(record, bs)
	assert.Equal(t, len(bs), n)

	decoded, n, err := EmbeddingRecordMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
	assert.Equal(t, record, decoded)
}
