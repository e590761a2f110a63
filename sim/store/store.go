package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/polykmc/polykmc/sim"
	"github.com/polykmc/polykmc/sim/registry"
)

// Run statuses recorded in the runs table.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store writes snapshots of one or more runs to SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and initializes its schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun inserts a run row in the running state.
func (s *Store) CreateRun(ctx context.Context, runID, modelName string, seed int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, model, seed, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, modelName, seed, StatusRunning, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create run %s: %w", runID, err)
	}
	return nil
}

// FinishRun records the final status of a run.
func (s *Store) FinishRun(ctx context.Context, runID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// RecordState stores one snapshot with its unit and polymer-container counts.
// Names come from reg, in the order SystemState uses.
func (s *Store) RecordState(ctx context.Context, runID string, reg *registry.Registry, st *sim.SystemState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	k, a := st.KMC, st.Analysis
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshots (
			run_id, iteration, kmc_step, kmc_time, simulation_time, nav, monomer_conversion,
			n_avg_cl, w_avg_cl, disp_cl, n_avg_mw, w_avg_mw, disp_mw
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, int64(k.Iteration), int64(k.KMCStep), k.KMCTime, k.SimulationTime, k.NAV,
		st.Species.MonomerConversion,
		a.NAvgCL, a.WAvgCL, a.DispCL, a.NAvgMW, a.WAvgMW, a.DispMW,
	); err != nil {
		return fmt.Errorf("failed to insert snapshot %d: %w", k.Iteration, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO unit_counts (run_id, iteration, species, count, conversion) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare count insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, name := range reg.UnitNames() {
		if _, err := stmt.ExecContext(ctx, runID, int64(k.Iteration), name,
			int64(st.Species.UnitCounts[i]), st.Species.UnitConversions[i]); err != nil {
			return fmt.Errorf("failed to insert count of %s: %w", name, err)
		}
	}
	for i, name := range reg.PolymerNames() {
		if _, err := stmt.ExecContext(ctx, runID, int64(k.Iteration), name,
			int64(st.Species.PolymerCounts[i]), nil); err != nil {
			return fmt.Errorf("failed to insert count of %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// Observer returns a sim.StateObserver recording every snapshot under runID.
func (s *Store) Observer(ctx context.Context, runID string, reg *registry.Registry) sim.StateObserver {
	return sim.StateObserverFunc(func(st *sim.SystemState) error {
		return s.RecordState(ctx, runID, reg, st)
	})
}

// SnapshotRow is one row of the snapshots table.
type SnapshotRow struct {
	Iteration         uint64
	KMCTime           float64
	MonomerConversion float64
	NAvgCL            float64
	DispCL            float64
}

// Snapshots returns the snapshots of runID ordered by iteration.
func (s *Store) Snapshots(ctx context.Context, runID string) ([]SnapshotRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT iteration, kmc_time, monomer_conversion, n_avg_cl, disp_cl
		FROM snapshots WHERE run_id = ? ORDER BY iteration`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SnapshotRow
	for rows.Next() {
		var r SnapshotRow
		var iteration int64
		if err := rows.Scan(&iteration, &r.KMCTime, &r.MonomerConversion, &r.NAvgCL, &r.DispCL); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		r.Iteration = uint64(iteration)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SpeciesCounts returns the count of species at every snapshot of runID,
// ordered by iteration.
func (s *Store) SpeciesCounts(ctx context.Context, runID, species string) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT count FROM unit_counts WHERE run_id = ? AND species = ? ORDER BY iteration`, runID, species)
	if err != nil {
		return nil, fmt.Errorf("failed to query counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []uint64
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		out = append(out, uint64(n))
	}
	return out, rows.Err()
}

// RunStatus returns the status recorded for runID.
func (s *Store) RunStatus(ctx context.Context, runID string) (string, error) {
	var status string
	if err := s.db.QueryRowContext(ctx, `SELECT status FROM runs WHERE id = ?`, runID).Scan(&status); err != nil {
		return "", fmt.Errorf("failed to read run %s: %w", runID, err)
	}
	return status, nil
}
