// Package store persists electorates, their factions, and the simulation log.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/polisim/internal/faction"
	"github.com/nvandessel/polisim/internal/ideology"
	"github.com/nvandessel/polisim/internal/simulation"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Electorate is a named, saved set of citizens with any factions discovered
// for it. List results leave Citizens nil.
type Electorate struct {
	ID          string             `json:"id" yaml:"id,omitempty"`
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Size        int                `json:"size" yaml:"size,omitempty"`
	Citizens    []ideology.Citizen `json:"citizens,omitempty" yaml:"citizens"`
	Factions    []faction.Faction  `json:"factions,omitempty" yaml:"factions,omitempty"`
	CreatedAt   time.Time          `json:"created_at" yaml:"created_at,omitempty"`
}

// SimulationLog is one logged simulation run.
type SimulationLog struct {
	ID                string    `json:"id"`
	ElectorateID      string    `json:"electorate_id,omitempty"`
	PolicyTitle       string    `json:"policy_title"`
	Ayes              int       `json:"ayes"`
	Nays              int       `json:"nays"`
	Abstentions       int       `json:"abstentions"`
	TurnoutPercentage float64   `json:"turnout_percentage"`
	Passed            bool      `json:"passed"`
	Polarization      float64   `json:"polarization"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewSimulationLog builds a log entry from a simulation result.
func NewSimulationLog(electorateID string, res simulation.Result) SimulationLog {
	return SimulationLog{
		ElectorateID:      electorateID,
		PolicyTitle:       res.Policy.Title,
		Ayes:              res.SupportCount,
		Nays:              res.OpposeCount,
		Abstentions:       res.Abstentions,
		TurnoutPercentage: res.TurnoutRate * 100,
		Passed:            res.Passed,
		Polarization:      res.PolarizationIndex,
	}
}

// Stats aggregates the simulation log.
type Stats struct {
	TotalSimulations int             `json:"total_simulations"`
	Passed           int             `json:"passed"`
	Failed           int             `json:"failed"`
	AverageTurnout   float64         `json:"average_turnout"`
	Recent           []SimulationLog `json:"recent"`
}

// Store is the persistence boundary for electorates and simulation logs.
type Store interface {
	// SaveElectorate validates and inserts e, assigning ID, Size and
	// CreatedAt when unset. An existing ID is replaced.
	SaveElectorate(ctx context.Context, e *Electorate) error

	// GetElectorate returns the electorate with citizens and factions,
	// or ErrNotFound.
	GetElectorate(ctx context.Context, id string) (*Electorate, error)

	// ListElectorates returns all electorates newest first, without citizens.
	ListElectorates(ctx context.Context) ([]Electorate, error)

	// DeleteElectorate removes an electorate and its factions, or returns ErrNotFound.
	DeleteElectorate(ctx context.Context, id string) error

	// SaveFactions replaces the factions stored for an electorate.
	SaveFactions(ctx context.Context, electorateID string, factions []faction.Faction) error

	// LogSimulation appends a run to the simulation log, assigning ID and
	// CreatedAt when unset.
	LogSimulation(ctx context.Context, log *SimulationLog) error

	// Stats summarizes the simulation log.
	Stats(ctx context.Context) (Stats, error)

	Close() error
}
