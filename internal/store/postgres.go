package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nvandessel/polisim/internal/constants"
	"github.com/nvandessel/polisim/internal/faction"
	"github.com/nvandessel/polisim/internal/ideology"
)

// PostgresStore implements Store on a PostgreSQL database.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	s := &PostgresStore{pool: pool, now: time.Now}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the tables if they do not exist. The DDL is
// idempotent and runs as one implicit transaction.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS electorates (
    seq         BIGINT GENERATED ALWAYS AS IDENTITY,
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    size        INTEGER NOT NULL,
    citizens    JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS factions (
    electorate_id TEXT NOT NULL REFERENCES electorates(id) ON DELETE CASCADE,
    cluster_index INTEGER NOT NULL,
    name          TEXT NOT NULL DEFAULT '',
    description   TEXT NOT NULL DEFAULT '',
    centroid      JSONB NOT NULL,
    size          INTEGER NOT NULL,
    polarization  DOUBLE PRECISION NOT NULL DEFAULT 0,
    PRIMARY KEY (electorate_id, cluster_index)
);

CREATE TABLE IF NOT EXISTS simulation_logs (
    seq                BIGINT GENERATED ALWAYS AS IDENTITY,
    id                 TEXT PRIMARY KEY,
    electorate_id      TEXT,
    policy_title       TEXT NOT NULL,
    ayes               INTEGER NOT NULL,
    nays               INTEGER NOT NULL,
    abstentions        INTEGER NOT NULL,
    turnout_percentage DOUBLE PRECISION NOT NULL,
    passed             BOOLEAN NOT NULL,
    polarization       DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_electorates_created ON electorates (created_at);
CREATE INDEX IF NOT EXISTS idx_simulation_logs_created ON simulation_logs (created_at);
`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

// SaveElectorate inserts or replaces an electorate and its factions.
func (s *PostgresStore) SaveElectorate(ctx context.Context, e *Electorate) error {
	if err := prepareElectorate(e, s.now()); err != nil {
		return err
	}
	citizens, err := json.Marshal(e.Citizens)
	if err != nil {
		return fmt.Errorf("marshaling citizens: %w", err)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO electorates (id, name, description, size, citizens, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    size = EXCLUDED.size,
    citizens = EXCLUDED.citizens
`, e.ID, e.Name, e.Description, e.Size, citizens, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("saving electorate: %w", err)
		}
		return pgReplaceFactions(ctx, tx, e.ID, e.Factions)
	})
}

// GetElectorate loads an electorate with citizens and factions.
func (s *PostgresStore) GetElectorate(ctx context.Context, id string) (*Electorate, error) {
	var e Electorate
	var citizens []byte
	err := s.pool.QueryRow(ctx, `
SELECT id, name, description, size, citizens, created_at
FROM electorates WHERE id = $1`, id).
		Scan(&e.ID, &e.Name, &e.Description, &e.Size, &citizens, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("electorate %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting electorate: %w", err)
	}
	if err := json.Unmarshal(citizens, &e.Citizens); err != nil {
		return nil, fmt.Errorf("decoding citizens of %s: %w", id, err)
	}
	e.CreatedAt = e.CreatedAt.UTC()

	if e.Factions, err = s.loadFactions(ctx, id); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListElectorates returns all electorates newest first, without citizens.
func (s *PostgresStore) ListElectorates(ctx context.Context) ([]Electorate, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, name, description, size, created_at
FROM electorates ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing electorates: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Electorate, error) {
		var e Electorate
		err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Size, &e.CreatedAt)
		e.CreatedAt = e.CreatedAt.UTC()
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning electorates: %w", err)
	}

	for i := range out {
		if out[i].Factions, err = s.loadFactions(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DeleteElectorate removes an electorate; factions cascade.
func (s *PostgresStore) DeleteElectorate(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM electorates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting electorate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("electorate %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveFactions replaces the factions of an electorate.
func (s *PostgresStore) SaveFactions(ctx context.Context, electorateID string, factions []faction.Faction) error {
	if err := validateFactions(factions); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM electorates WHERE id = $1)`, electorateID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking electorate: %w", err)
		}
		if !exists {
			return fmt.Errorf("electorate %s: %w", electorateID, ErrNotFound)
		}
		return pgReplaceFactions(ctx, tx, electorateID, factions)
	})
}

func pgReplaceFactions(ctx context.Context, tx pgx.Tx, electorateID string, factions []faction.Faction) error {
	if _, err := tx.Exec(ctx, `DELETE FROM factions WHERE electorate_id = $1`, electorateID); err != nil {
		return fmt.Errorf("clearing factions: %w", err)
	}
	if len(factions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range factions {
		centroid, err := json.Marshal(f.Centroid)
		if err != nil {
			return fmt.Errorf("marshaling centroid: %w", err)
		}
		batch.Queue(`
INSERT INTO factions (electorate_id, cluster_index, name, description, centroid, size, polarization)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			electorateID, f.ClusterIndex, f.Name, f.Description, centroid, f.Size, f.Polarization)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving factions: %w", err)
	}
	return nil
}

func (s *PostgresStore) loadFactions(ctx context.Context, electorateID string) ([]faction.Faction, error) {
	rows, err := s.pool.Query(ctx, `
SELECT cluster_index, name, description, centroid, size, polarization
FROM factions WHERE electorate_id = $1 ORDER BY cluster_index`, electorateID)
	if err != nil {
		return nil, fmt.Errorf("loading factions: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (faction.Faction, error) {
		var f faction.Faction
		var centroid []byte
		if err := row.Scan(&f.ClusterIndex, &f.Name, &f.Description, &centroid, &f.Size, &f.Polarization); err != nil {
			return f, err
		}
		var v ideology.Vector
		if err := json.Unmarshal(centroid, &v); err != nil {
			return f, fmt.Errorf("decoding centroid of faction %d: %w", f.ClusterIndex, err)
		}
		f.Centroid = v
		return f, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning factions: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// LogSimulation appends a run to the simulation log.
func (s *PostgresStore) LogSimulation(ctx context.Context, l *SimulationLog) error {
	if err := prepareLog(l, s.now()); err != nil {
		return err
	}
	var electorateID *string
	if l.ElectorateID != "" {
		electorateID = &l.ElectorateID
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO simulation_logs
    (id, electorate_id, policy_title, ayes, nays, abstentions, turnout_percentage, passed, polarization, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		l.ID, electorateID, l.PolicyTitle, l.Ayes, l.Nays, l.Abstentions,
		l.TurnoutPercentage, l.Passed, l.Polarization, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("logging simulation: %w", err)
	}
	return nil
}

// Stats summarizes the simulation log.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.pool.QueryRow(ctx, `
SELECT COUNT(*),
    COUNT(*) FILTER (WHERE passed),
    COUNT(*) FILTER (WHERE NOT passed),
    COALESCE(AVG(turnout_percentage), 0)
FROM simulation_logs`).Scan(&stats.TotalSimulations, &stats.Passed, &stats.Failed, &stats.AverageTurnout)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregating simulation logs: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
SELECT id, COALESCE(electorate_id, ''), policy_title, ayes, nays, abstentions,
    turnout_percentage, passed, polarization, created_at
FROM simulation_logs ORDER BY created_at DESC, seq DESC LIMIT $1`, constants.RecentSimulationLimit)
	if err != nil {
		return Stats{}, fmt.Errorf("listing recent simulations: %w", err)
	}
	stats.Recent, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (SimulationLog, error) {
		var l SimulationLog
		err := row.Scan(&l.ID, &l.ElectorateID, &l.PolicyTitle, &l.Ayes, &l.Nays, &l.Abstentions,
			&l.TurnoutPercentage, &l.Passed, &l.Polarization, &l.CreatedAt)
		l.CreatedAt = l.CreatedAt.UTC()
		return l, err
	})
	if err != nil {
		return Stats{}, fmt.Errorf("scanning simulation logs: %w", err)
	}
	return stats, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
