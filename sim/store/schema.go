// Package store persists run snapshots to a SQLite database so results of many
// runs can be queried together.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    model TEXT NOT NULL,
    seed INTEGER NOT NULL,
    status TEXT NOT NULL DEFAULT 'running',  -- 'running', 'completed', 'failed'
    created_at TEXT NOT NULL,
    finished_at TEXT
);

CREATE TABLE IF NOT EXISTS snapshots (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    iteration INTEGER NOT NULL,
    kmc_step INTEGER NOT NULL,
    kmc_time REAL NOT NULL,
    simulation_time REAL NOT NULL,
    nav REAL NOT NULL,
    monomer_conversion REAL NOT NULL,
    n_avg_cl REAL NOT NULL,
    w_avg_cl REAL NOT NULL,
    disp_cl REAL NOT NULL,
    n_avg_mw REAL NOT NULL,
    w_avg_mw REAL NOT NULL,
    disp_mw REAL NOT NULL,
    PRIMARY KEY (run_id, iteration)
);

-- Unit and polymer-container counts per snapshot
CREATE TABLE IF NOT EXISTS unit_counts (
    run_id TEXT NOT NULL,
    iteration INTEGER NOT NULL,
    species TEXT NOT NULL,
    count INTEGER NOT NULL,
    conversion REAL,  -- NULL for polymer containers
    PRIMARY KEY (run_id, iteration, species),
    FOREIGN KEY (run_id, iteration) REFERENCES snapshots(run_id, iteration) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_unit_counts_species ON unit_counts(species);
`

// InitSchema creates the tables of a fresh database and leaves an existing
// one untouched.
func InitSchema(ctx context.Context, db *sql.DB) error {
	var version int
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err == nil {
		if version > SchemaVersion {
			return fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion)
		}
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}
