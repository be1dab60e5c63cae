package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/polisim/internal/constants"
	"github.com/nvandessel/polisim/internal/faction"
	"github.com/nvandessel/polisim/internal/ideology"

	_ "modernc.org/sqlite" // SQLite driver
)

// DBFile is the SQLite database file name inside the data directory.
const DBFile = "polisim.db"

// timeFormat is a fixed-width UTC timestamp so text ordering matches time ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) dir/polisim.db.
func NewSQLiteStore(ctx context.Context, dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dir, DBFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath, now: time.Now}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// SaveElectorate inserts or replaces an electorate and its factions.
func (s *SQLiteStore) SaveElectorate(ctx context.Context, e *Electorate) error {
	if err := prepareElectorate(e, s.now()); err != nil {
		return err
	}

	citizens, err := json.Marshal(e.Citizens)
	if err != nil {
		return fmt.Errorf("marshaling citizens: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO electorates (id, name, description, size, citizens, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			size = excluded.size,
			citizens = excluded.citizens`,
		e.ID, e.Name, e.Description, e.Size, string(citizens), e.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("saving electorate: %w", err)
	}

	if err := replaceFactions(ctx, tx, e.ID, e.Factions); err != nil {
		return err
	}

	return tx.Commit()
}

// GetElectorate loads an electorate with citizens and factions.
func (s *SQLiteStore) GetElectorate(ctx context.Context, id string) (*Electorate, error) {
	var (
		e         Electorate
		citizens  string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, size, citizens, created_at
		FROM electorates WHERE id = ?`, id).
		Scan(&e.ID, &e.Name, &e.Description, &e.Size, &citizens, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("electorate %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting electorate: %w", err)
	}

	if err := json.Unmarshal([]byte(citizens), &e.Citizens); err != nil {
		return nil, fmt.Errorf("decoding citizens of %s: %w", id, err)
	}
	if e.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at of %s: %w", id, err)
	}

	e.Factions, err = s.loadFactions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListElectorates returns all electorates newest first, without citizens.
func (s *SQLiteStore) ListElectorates(ctx context.Context) ([]Electorate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, size, created_at
		FROM electorates ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing electorates: %w", err)
	}
	defer rows.Close()

	out := []Electorate{}
	for rows.Next() {
		var e Electorate
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Size, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning electorate: %w", err)
		}
		if e.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at of %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range out {
		if out[i].Factions, err = s.loadFactions(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DeleteElectorate removes an electorate; factions cascade.
func (s *SQLiteStore) DeleteElectorate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM electorates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting electorate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting electorate: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("electorate %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveFactions replaces the factions of an electorate.
func (s *SQLiteStore) SaveFactions(ctx context.Context, electorateID string, factions []faction.Faction) error {
	if err := validateFactions(factions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM electorates WHERE id = ?`, electorateID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("electorate %s: %w", electorateID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking electorate: %w", err)
	}

	if err := replaceFactions(ctx, tx, electorateID, factions); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceFactions(ctx context.Context, tx *sql.Tx, electorateID string, factions []faction.Faction) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM factions WHERE electorate_id = ?`, electorateID); err != nil {
		return fmt.Errorf("clearing factions: %w", err)
	}
	for _, f := range factions {
		centroid, err := json.Marshal(f.Centroid)
		if err != nil {
			return fmt.Errorf("marshaling centroid: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO factions (electorate_id, cluster_index, name, description, centroid, size, polarization)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			electorateID, f.ClusterIndex, f.Name, f.Description, string(centroid), f.Size, f.Polarization)
		if err != nil {
			return fmt.Errorf("saving faction %d: %w", f.ClusterIndex, err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadFactions(ctx context.Context, electorateID string) ([]faction.Faction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cluster_index, name, description, centroid, size, polarization
		FROM factions WHERE electorate_id = ? ORDER BY cluster_index`, electorateID)
	if err != nil {
		return nil, fmt.Errorf("loading factions: %w", err)
	}
	defer rows.Close()

	var out []faction.Faction
	for rows.Next() {
		var f faction.Faction
		var centroid string
		if err := rows.Scan(&f.ClusterIndex, &f.Name, &f.Description, &centroid, &f.Size, &f.Polarization); err != nil {
			return nil, fmt.Errorf("scanning faction: %w", err)
		}
		var v ideology.Vector
		if err := json.Unmarshal([]byte(centroid), &v); err != nil {
			return nil, fmt.Errorf("decoding centroid of faction %d: %w", f.ClusterIndex, err)
		}
		f.Centroid = v
		out = append(out, f)
	}
	return out, rows.Err()
}

// LogSimulation appends a run to the simulation log.
func (s *SQLiteStore) LogSimulation(ctx context.Context, l *SimulationLog) error {
	if err := prepareLog(l, s.now()); err != nil {
		return err
	}
	var electorateID sql.NullString
	if l.ElectorateID != "" {
		electorateID = sql.NullString{String: l.ElectorateID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO simulation_logs
			(id, electorate_id, policy_title, ayes, nays, abstentions, turnout_percentage, passed, polarization, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, electorateID, l.PolicyTitle, l.Ayes, l.Nays, l.Abstentions,
		l.TurnoutPercentage, l.Passed, l.Polarization, l.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("logging simulation: %w", err)
	}
	return nil
}

// Stats summarizes the simulation log.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var passed, failed sql.NullInt64
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			SUM(CASE WHEN passed THEN 1 ELSE 0 END),
			SUM(CASE WHEN passed THEN 0 ELSE 1 END),
			AVG(turnout_percentage)
		FROM simulation_logs`).Scan(&stats.TotalSimulations, &passed, &failed, &avg)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregating simulation logs: %w", err)
	}
	stats.Passed = int(passed.Int64)
	stats.Failed = int(failed.Int64)
	stats.AverageTurnout = avg.Float64

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, electorate_id, policy_title, ayes, nays, abstentions, turnout_percentage, passed, polarization, created_at
		FROM simulation_logs ORDER BY created_at DESC, rowid DESC LIMIT ?`, constants.RecentSimulationLimit)
	if err != nil {
		return Stats{}, fmt.Errorf("listing recent simulations: %w", err)
	}
	defer rows.Close()

	stats.Recent = []SimulationLog{}
	for rows.Next() {
		var l SimulationLog
		var electorateID sql.NullString
		var createdAt string
		if err := rows.Scan(&l.ID, &electorateID, &l.PolicyTitle, &l.Ayes, &l.Nays, &l.Abstentions,
			&l.TurnoutPercentage, &l.Passed, &l.Polarization, &createdAt); err != nil {
			return Stats{}, fmt.Errorf("scanning simulation log: %w", err)
		}
		l.ElectorateID = electorateID.String
		if l.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return Stats{}, fmt.Errorf("parsing created_at of %s: %w", l.ID, err)
		}
		stats.Recent = append(stats.Recent, l)
	}
	return stats, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
