package core

import "fmt"

// Validate checks a Profile against domain invariants.
// Age must be non-negative (0 means unknown) and Gender must be present.
func (p *Profile) Validate() error {
	if p.Age < 0 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidProfile, ErrNegativeAge, p.Age)
	}
	if p.Gender == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrEmptyGender)
	}
	return nil
}
