package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileText(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		fields  []string
		want    string
	}{
		{
			name: "all scalar fields",
			profile: &Profile{
				Age:           26,
				Gender:        "Male",
				MaritalStatus: "Never Married",
				Caste:         "Sheikh",
				Sect:          "Sunni",
				State:         "Uttar Pradesh",
			},
			fields: DefaultTextFields,
			want:   "Age 26, Gender Male, Marital Status Never Married, Caste Sheikh, Sect Sunni, State Uttar Pradesh",
		},
		{
			name: "empty fields skipped",
			profile: &Profile{
				Age:    30,
				Gender: "Female",
				State:  "Kerala",
			},
			fields: DefaultTextFields,
			want:   "Age 30, Gender Female, State Kerala",
		},
		{
			name:    "zero age treated as absent",
			profile: &Profile{Gender: "Male"},
			fields:  DefaultTextFields,
			want:    "Gender Male",
		},
		{
			name: "free text appended",
			profile: &Profile{
				Age:               28,
				Gender:            "Female",
				About:             "Doctor, loves reading",
				PartnerPreference: "Educated and caring",
			},
			fields: []string{FieldAge, FieldGender},
			want:   "Age 28, Gender Female, About: Doctor, loves reading, Seeks: Educated and caring",
		},
		{
			name: "field order follows caller list",
			profile: &Profile{
				Age:    26,
				Gender: "Male",
				State:  "Punjab",
			},
			fields: []string{FieldState, FieldAge},
			want:   "State Punjab, Age 26",
		},
		{
			name:    "no fields no free text",
			profile: &Profile{Gender: "Male"},
			fields:  nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProfileText(tt.profile, tt.fields)
			assert.Equal(t, tt.want, got)

			// Deterministic: a second run yields byte-identical text.
			assert.Equal(t, got, ProfileText(tt.profile, tt.fields))
		})
	}
}

func TestOppositeGender(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Male", "Female"},
		{"male", "Female"},
		{"MALE", "Female"},
		{"Female", "Male"},
		{"female", "Male"},
		{"nonbinary", "nonbinary"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, OppositeGender(tt.in))
		})
	}
}

func TestFingerprintFromContent(t *testing.T) {
	a := FingerprintFromContent("Age 26, Gender Male")
	b := FingerprintFromContent("Age 26, Gender Male")
	c := FingerprintFromContent("Age 27, Gender Male")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
