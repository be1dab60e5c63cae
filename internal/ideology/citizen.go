package ideology

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyID is returned when a citizen has no identifier.
var ErrEmptyID = errors.New("citizen id is required")

// ErrDuplicateID is returned when two citizens share an identifier.
var ErrDuplicateID = errors.New("duplicate citizen id")

// Citizen is a simulated individual. Name and Worldview are descriptive
// persona fields supplied by the generator and ignored by the engine.
type Citizen struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Age       int    `json:"age,omitempty" yaml:"age,omitempty"`
	Worldview string `json:"worldview,omitempty" yaml:"worldview,omitempty"`
	Ideology  Vector `json:"ideology" yaml:"ideology"`
}

// ValidateElectorate checks that every citizen has a unique, non-empty ID.
// Ideology bounds are already guaranteed by Vector.
func ValidateElectorate(citizens []Citizen) error {
	seen := make(map[string]struct{}, len(citizens))
	for i, c := range citizens {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return fmt.Errorf("citizen %d: %w", i, ErrEmptyID)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("citizen %d: %w: %s", i, ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Vectors extracts the ideology vectors of citizens in order.
func Vectors(citizens []Citizen) []Vector {
	out := make([]Vector, len(citizens))
	for i, c := range citizens {
		out[i] = c.Ideology
	}
	return out
}
