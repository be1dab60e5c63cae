package ideology

import (
	"errors"
	"fmt"
	"math"
)

// ErrAppealOutOfBounds is returned when a universal appeal is outside [-1, 1].
var ErrAppealOutOfBounds = errors.New("universal appeal out of bounds")

// Policy is a proposal positioned in the ideological space.
//
// UniversalAppeal is a non-ideological valence in [-1, 1]: positive values
// make a proposal broadly popular regardless of ideology, negative values
// broadly reviled. Zero means no shift.
type Policy struct {
	ID              string  `json:"id,omitempty" yaml:"id,omitempty"`
	Title           string  `json:"title" yaml:"title"`
	Description     string  `json:"description,omitempty" yaml:"description,omitempty"`
	Vector          Vector  `json:"vector" yaml:"vector"`
	UniversalAppeal float64 `json:"universal_appeal,omitempty" yaml:"universal_appeal,omitempty"`
}

// NewPolicy validates the appeal and returns a Policy.
func NewPolicy(title, description string, vector Vector, appeal float64) (Policy, error) {
	p := Policy{
		Title:           title,
		Description:     description,
		Vector:          vector,
		UniversalAppeal: appeal,
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks the fields not already guaranteed by Vector.
func (p Policy) Validate() error {
	if math.IsNaN(p.UniversalAppeal) || p.UniversalAppeal < -1 || p.UniversalAppeal > 1 {
		return fmt.Errorf("%w: %v", ErrAppealOutOfBounds, p.UniversalAppeal)
	}
	return nil
}
