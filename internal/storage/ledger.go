package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/san-kum/pollinet/internal/experiment"
	_ "modernc.org/sqlite"
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	network    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	knockout   TEXT NOT NULL,
	seed       INTEGER NOT NULL,
	dispersal  REAL NOT NULL,
	dt         REAL NOT NULL,
	area       REAL NOT NULL,
	plants     INTEGER NOT NULL,
	insects    INTEGER NOT NULL,
	patches    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS knockout_rows (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	removed      INTEGER NOT NULL,
	species      INTEGER NOT NULL,
	robustness   REAL NOT NULL,
	surv_plants  INTEGER NOT NULL,
	surv_insects INTEGER NOT NULL,
	service      REAL NOT NULL,
	div_plants   REAL NOT NULL,
	div_insects  REAL NOT NULL,
	PRIMARY KEY (run_id, removed)
);
`

// Ledger is an SQLite history of runs, kept alongside the run directories
// so results from many runs can be queried together.
type Ledger struct {
	db *sql.DB
}

// OpenLedger creates or opens the ledger database at path.
func OpenLedger(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000", ledgerSchema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to prepare ledger: %w", err)
		}
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record stores a run and its rows in one transaction. Recording the same
// id again replaces it.
func (l *Ledger) Record(ctx context.Context, meta RunMetadata, rows []experiment.Row) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{`DELETE FROM knockout_rows WHERE run_id = ?`, `DELETE FROM runs WHERE id = ?`} {
		if _, err := tx.ExecContext(ctx, q, meta.ID); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, kind, network, created_at, knockout, seed, dispersal, dt, area, plants, insects, patches)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Kind, meta.Network, meta.Timestamp.UTC().Format(time.RFC3339Nano), meta.Order,
		meta.Seed, meta.Params.Dispersal, meta.Dt, meta.Area, meta.Plants, meta.Insects, meta.Patches)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", meta.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO knockout_rows (run_id, removed, species, robustness, surv_plants, surv_insects, service, div_plants, div_insects)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, meta.ID, r.Removed, r.Species, r.Robustness,
			r.SurvivingPlants, r.SurvivingInsects, r.PollinationService, r.PlantDiversity, r.InsectDiversity); err != nil {
			return fmt.Errorf("insert row %d of %s: %w", r.Removed, meta.ID, err)
		}
	}

	return tx.Commit()
}

// LedgerEntry is the summary line of one recorded run.
type LedgerEntry struct {
	ID        string
	Kind      string
	Network   string
	CreatedAt time.Time
	Order     string
	Seed      int64
	Dispersal float64
	Area      float64
	Rows      int
}

// Runs lists recorded runs, oldest first.
func (l *Ledger) Runs(ctx context.Context) ([]LedgerEntry, error) {
	rs, err := l.db.QueryContext(ctx, `
		SELECT r.id, r.kind, r.network, r.created_at, r.knockout, r.seed, r.dispersal, r.area,
		       (SELECT COUNT(*) FROM knockout_rows w WHERE w.run_id = r.id)
		FROM runs r ORDER BY r.created_at, r.id`)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	entries := make([]LedgerEntry, 0)
	for rs.Next() {
		var e LedgerEntry
		var created string
		if err := rs.Scan(&e.ID, &e.Kind, &e.Network, &created, &e.Order, &e.Seed, &e.Dispersal, &e.Area, &e.Rows); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rs.Err()
}

// Rows returns the stored rows of a run ordered by knockout count.
func (l *Ledger) Rows(ctx context.Context, runID string) ([]experiment.Row, error) {
	rs, err := l.db.QueryContext(ctx, `
		SELECT removed, species, robustness, surv_plants, surv_insects, service, div_plants, div_insects
		FROM knockout_rows WHERE run_id = ? ORDER BY removed`, runID)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	rows := make([]experiment.Row, 0)
	for rs.Next() {
		var r experiment.Row
		if err := rs.Scan(&r.Removed, &r.Species, &r.Robustness, &r.SurvivingPlants, &r.SurvivingInsects,
			&r.PollinationService, &r.PlantDiversity, &r.InsectDiversity); err != nil {
			return nil, err
		}
		r.InsectBiomass = r.PollinationService
		rows = append(rows, r)
	}
	return rows, rs.Err()
}
