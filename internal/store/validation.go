package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/polisim/internal/faction"
	"github.com/nvandessel/polisim/internal/ideology"
)

// Validation errors.
var (
	ErrNameRequired    = errors.New("electorate name is required")
	ErrEmptyElectorate = errors.New("electorate has no citizens")
)

// ValidationError describes one rejected field of a record.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// prepareElectorate validates e and fills in ID, Size and CreatedAt.
// Timestamps are kept to microseconds, the coarsest backend precision.
func prepareElectorate(e *Electorate, now time.Time) error {
	if strings.TrimSpace(e.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrNameRequired}
	}
	if len(e.Citizens) == 0 {
		return &ValidationError{Field: "citizens", Err: ErrEmptyElectorate}
	}
	if err := ideology.ValidateElectorate(e.Citizens); err != nil {
		return &ValidationError{Field: "citizens", Err: err}
	}
	if err := validateFactions(e.Factions); err != nil {
		return err
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.CreatedAt = e.CreatedAt.UTC().Truncate(time.Microsecond)
	e.Size = len(e.Citizens)
	return nil
}

// validateFactions rejects negative or duplicate cluster indexes.
func validateFactions(factions []faction.Faction) error {
	seen := make(map[int]bool, len(factions))
	for _, f := range factions {
		if f.ClusterIndex < 0 {
			return &ValidationError{Field: "factions", Err: fmt.Errorf("negative cluster index %d", f.ClusterIndex)}
		}
		if seen[f.ClusterIndex] {
			return &ValidationError{Field: "factions", Err: fmt.Errorf("duplicate cluster index %d", f.ClusterIndex)}
		}
		seen[f.ClusterIndex] = true
	}
	return nil
}

// prepareLog fills in ID and CreatedAt.
func prepareLog(l *SimulationLog, now time.Time) error {
	if l.Ayes < 0 || l.Nays < 0 || l.Abstentions < 0 {
		return &ValidationError{Field: "counts", Err: errors.New("vote counts must be non-negative")}
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.CreatedAt = l.CreatedAt.UTC().Truncate(time.Microsecond)
	return nil
}
