package core

import (
	"strconv"
	"strings"
)

// Canonical field names used when building profile text. The names use
// underscores; the text builder replaces them with spaces.
const (
	FieldAge               = "Age"
	FieldGender            = "Gender"
	FieldMaritalStatus     = "Marital_Status"
	FieldCaste             = "Caste"
	FieldSect              = "Sect"
	FieldState             = "State"
	FieldAbout             = "About"
	FieldPartnerPreference = "Partner_Preference"
)

// DefaultTextFields is the ordered field list used for canonical profile text.
// The same list must be used at index time and at query time; diverging text
// construction between the two is a correctness bug, not a tuning choice.
var DefaultTextFields = []string{
	FieldAge,
	FieldGender,
	FieldMaritalStatus,
	FieldCaste,
	FieldSect,
	FieldState,
}

// FieldValue returns the named scalar field of a profile as a string,
// with "" for absent values. Age 0 is treated as absent.
func (p *Profile) FieldValue(field string) string {
	switch field {
	case FieldAge:
		if p.Age == 0 {
			return ""
		}
		return strconv.Itoa(p.Age)
	case FieldGender:
		return p.Gender
	case FieldMaritalStatus:
		return p.MaritalStatus
	case FieldCaste:
		return p.Caste
	case FieldSect:
		return p.Sect
	case FieldState:
		return p.State
	case FieldAbout:
		return p.About
	case FieldPartnerPreference:
		return p.PartnerPreference
	}
	return ""
}

// ProfileText builds the canonical text representation of a profile.
// Each included field contributes "<field name with spaces> <value>", fields
// with empty values are skipped, and the parts are comma-joined in the order
// of the supplied field list. Free-text fields are appended as "About: ..."
// and "Seeks: ..." when present.
//
// Example: "Age 26, Gender Male, Marital Status Never Married, Caste Sheikh"
func ProfileText(p *Profile, fields []string) string {
	parts := make([]string, 0, len(fields)+2)
	for _, field := range fields {
		value := p.FieldValue(field)
		if value == "" {
			continue
		}
		parts = append(parts, strings.ReplaceAll(field, "_", " ")+" "+value)
	}
	if p.About != "" {
		parts = append(parts, "About: "+p.About)
	}
	if p.PartnerPreference != "" {
		parts = append(parts, "Seeks: "+p.PartnerPreference)
	}
	return strings.Join(parts, ", ")
}
