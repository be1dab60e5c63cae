package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nvandessel/polisim/internal/constants"
	"github.com/nvandessel/polisim/internal/faction"
)

// InMemoryStore implements Store for tests and ephemeral sessions.
type InMemoryStore struct {
	mu          sync.RWMutex
	electorates map[string]memElectorate
	logs        []SimulationLog
	seq         int
	now         func() time.Time
}

type memElectorate struct {
	e   Electorate
	seq int
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		electorates: make(map[string]memElectorate),
		now:         time.Now,
	}
}

// SaveElectorate stores a copy of e.
func (s *InMemoryStore) SaveElectorate(ctx context.Context, e *Electorate) error {
	if err := prepareElectorate(e, s.now()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.electorates[e.ID] = memElectorate{e: copyElectorate(*e), seq: s.seq}
	return nil
}

// GetElectorate returns a copy of the stored electorate.
func (s *InMemoryStore) GetElectorate(ctx context.Context, id string) (*Electorate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.electorates[id]
	if !ok {
		return nil, fmt.Errorf("electorate %s: %w", id, ErrNotFound)
	}
	e := copyElectorate(m.e)
	return &e, nil
}

// ListElectorates returns electorates newest first, without citizens.
func (s *InMemoryStore) ListElectorates(ctx context.Context) ([]Electorate, error) {
	s.mu.RLock()
	entries := make([]memElectorate, 0, len(s.electorates))
	for _, m := range s.electorates {
		entries = append(entries, m)
	}
	s.mu.RUnlock()

	slices.SortFunc(entries, func(a, b memElectorate) int {
		if c := b.e.CreatedAt.Compare(a.e.CreatedAt); c != 0 {
			return c
		}
		return b.seq - a.seq
	})

	out := make([]Electorate, len(entries))
	for i, m := range entries {
		e := copyElectorate(m.e)
		e.Citizens = nil
		out[i] = e
	}
	return out, nil
}

// DeleteElectorate removes an electorate.
func (s *InMemoryStore) DeleteElectorate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.electorates[id]; !ok {
		return fmt.Errorf("electorate %s: %w", id, ErrNotFound)
	}
	delete(s.electorates, id)
	return nil
}

// SaveFactions replaces the factions of an electorate.
func (s *InMemoryStore) SaveFactions(ctx context.Context, electorateID string, factions []faction.Faction) error {
	if err := validateFactions(factions); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.electorates[electorateID]
	if !ok {
		return fmt.Errorf("electorate %s: %w", electorateID, ErrNotFound)
	}
	m.e.Factions = slices.Clone(factions)
	s.electorates[electorateID] = m
	return nil
}

// LogSimulation appends a run to the log.
func (s *InMemoryStore) LogSimulation(ctx context.Context, l *SimulationLog) error {
	if err := prepareLog(l, s.now()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, *l)
	return nil
}

// Stats summarizes the log.
func (s *InMemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	logs := slices.Clone(s.logs)
	s.mu.RUnlock()

	var stats Stats
	var turnoutSum float64
	for _, l := range logs {
		stats.TotalSimulations++
		if l.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
		turnoutSum += l.TurnoutPercentage
	}
	if stats.TotalSimulations > 0 {
		stats.AverageTurnout = turnoutSum / float64(stats.TotalSimulations)
	}

	// Appended in order, so reverse is newest first among equal timestamps.
	slices.Reverse(logs)
	slices.SortStableFunc(logs, func(a, b SimulationLog) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	stats.Recent = logs[:min(len(logs), constants.RecentSimulationLimit)]
	if stats.Recent == nil {
		stats.Recent = []SimulationLog{}
	}
	return stats, nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error {
	return nil
}

func copyElectorate(e Electorate) Electorate {
	e.Citizens = slices.Clone(e.Citizens)
	e.Factions = slices.Clone(e.Factions)
	return e
}

