package valueobjects

import "fmt"

// Gender is a closed two-value enum. A missing or unrecognized gender is
// always an explicit error, never silently defaulted.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender converts a raw string into a Gender
func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	default:
		return "", fmt.Errorf("invalid gender %q: must be %q or %q", s, GenderMale, GenderFemale)
	}
}

// String returns the string representation
func (g Gender) String() string {
	return string(g)
}

// IsValid reports whether the gender is one of the closed set
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Opposite returns the complementary gender, used when deriving a spouse
func (g Gender) Opposite() Gender {
	if g == GenderMale {
		return GenderFemale
	}
	return GenderMale
}
