package core

import "strings"

// Gender values recognized by the opposite-gender matching policy.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// OppositeGender returns the complementary gender for matching: "male" maps
// to "Female" and "female" maps to "Male", case-insensitively. Any other
// value is returned unchanged, which silently turns the default
// opposite-gender match into a same-gender match for unrecognized values.
func OppositeGender(gender string) string {
	switch strings.ToLower(gender) {
	case "male":
		return GenderFemale
	case "female":
		return GenderMale
	}
	return gender
}
