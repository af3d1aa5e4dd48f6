package migration

import (
	"context"

	"embsurvey/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the survey store schema. Statements use the
// subset of DDL shared by SQLite and Postgres.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create survey_runs table")
	}

	if err := r.createRespondentsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create respondents table")
	}

	if err := r.createPilotCandidatesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create pilot_candidates table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS survey_runs (
			fingerprint TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			input TEXT NOT NULL,
			total_responses INTEGER NOT NULL,
			complete_responses INTEGER NOT NULL,
			completion_threshold DOUBLE PRECISION NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createRespondentsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS respondents (
			fingerprint TEXT NOT NULL REFERENCES survey_runs(fingerprint) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			respondent_id TEXT NOT NULL,
			country TEXT,
			region TEXT,
			completion_score DOUBLE PRECISION,
			is_complete BOOLEAN NOT NULL,
			infrastructure_score DOUBLE PRECISION,
			fields_json TEXT NOT NULL,
			PRIMARY KEY (fingerprint, row_index)
		)
	`)
	return err
}

func (r *MigrationRunner) createPilotCandidatesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pilot_candidates (
			fingerprint TEXT NOT NULL REFERENCES survey_runs(fingerprint) ON DELETE CASCADE,
			candidate_rank INTEGER NOT NULL,
			respondent_id TEXT NOT NULL,
			country TEXT NOT NULL,
			region TEXT,
			composite_score DOUBLE PRECISION NOT NULL,
			need_score DOUBLE PRECISION NOT NULL,
			capability_score DOUBLE PRECISION NOT NULL,
			willingness_score DOUBLE PRECISION NOT NULL,
			suitability TEXT NOT NULL,
			PRIMARY KEY (fingerprint, candidate_rank)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_respondents_country ON respondents(country)`,
		`CREATE INDEX IF NOT EXISTS idx_respondents_region ON respondents(region)`,
		`CREATE INDEX IF NOT EXISTS idx_pilot_candidates_suitability ON pilot_candidates(suitability)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
