package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"embsurvey/domain/core"
	"embsurvey/domain/survey"
	"embsurvey/internal/errors"
	"embsurvey/internal/metrics"
	"embsurvey/internal/migration"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/lib/pq"  // driver: postgres
	_ "modernc.org/sqlite" // driver: sqlite
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// migrations creates the schema on every Open
var migrations migration.Migrator = migration.NewRunner()

// SchemaVersion reports the schema version Open applies
func SchemaVersion() string { return migrations.Version() }

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the database and applies the schema
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, errors.ConfigInvalid("unsupported database driver: " + driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	if driver == DriverSQLite {
		// an in-memory database lives and dies with its connection
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, errors.DatabaseError("failed to enable foreign keys", err)
		}
	}

	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.DatabaseError("failed to migrate database", err)
	}
	return db, nil
}

// Run describes one stored pipeline run
type Run struct {
	Fingerprint         core.Fingerprint `db:"fingerprint"`
	RunID               core.RunID       `db:"run_id"`
	Input               string           `db:"input"`
	TotalResponses      int              `db:"total_responses"`
	CompleteResponses   int              `db:"complete_responses"`
	CompletionThreshold float64          `db:"completion_threshold"`
}

// RespondentRow is one stored respondent
type RespondentRow struct {
	Fingerprint         string          `db:"fingerprint"`
	RowIndex            int             `db:"row_index"`
	RespondentID        string          `db:"respondent_id"`
	Country             sql.NullString  `db:"country"`
	Region              sql.NullString  `db:"region"`
	CompletionScore     sql.NullFloat64 `db:"completion_score"`
	IsComplete          bool            `db:"is_complete"`
	InfrastructureScore sql.NullFloat64 `db:"infrastructure_score"`
	FieldsJSON          string          `db:"fields_json"`
}

// CandidateRow is one stored pilot candidate
type CandidateRow struct {
	Fingerprint      string         `db:"fingerprint"`
	Rank             int            `db:"candidate_rank"`
	RespondentID     string         `db:"respondent_id"`
	Country          string         `db:"country"`
	Region           sql.NullString `db:"region"`
	CompositeScore   float64        `db:"composite_score"`
	NeedScore        float64        `db:"need_score"`
	CapabilityScore  float64        `db:"capability_score"`
	WillingnessScore float64        `db:"willingness_score"`
	Suitability      string         `db:"suitability"`
}

// Store persists processed respondents and pilot rankings
type Store struct {
	db  *sqlx.DB
	log *zap.Logger
}

// NewStore wraps an open database
func NewStore(db *sqlx.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log.Named("sqlstore")}
}

// SaveRun replaces everything stored for the run's fingerprint. all holds
// every respondent; complete marks those that passed the completion filter.
func (s *Store) SaveRun(ctx context.Context, run Run, all *survey.Dataset, complete *survey.Dataset, candidates []metrics.Candidate) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"pilot_candidates", "respondents", "survey_runs"} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+table+` WHERE fingerprint = ?`), run.Fingerprint); err != nil {
			return errors.DatabaseError("failed to clear "+table, err)
		}
	}

	if _, err := tx.NamedExecContext(ctx, `INSERT INTO survey_runs (
		fingerprint, run_id, input, total_responses, complete_responses, completion_threshold
	) VALUES (
		:fingerprint, :run_id, :input, :total_responses, :complete_responses, :completion_threshold
	)`, run); err != nil {
		return errors.DatabaseError("failed to insert run", err)
	}

	// complete holds clones, so the scored copy of a respondent is looked up by raw row
	scored := make(map[int]*survey.Respondent, complete.Len())
	for _, r := range complete.Respondents {
		scored[r.Row] = r
	}

	for _, r := range all.Respondents {
		row, err := respondentRow(run.Fingerprint, r, scored[r.Row])
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO respondents (
			fingerprint, row_index, respondent_id, country, region, completion_score,
			is_complete, infrastructure_score, fields_json
		) VALUES (
			:fingerprint, :row_index, :respondent_id, :country, :region, :completion_score,
			:is_complete, :infrastructure_score, :fields_json
		)`, row); err != nil {
			return errors.DatabaseError("failed to insert respondent "+r.ID, err)
		}
	}

	for i, c := range candidates {
		row := CandidateRow{
			Fingerprint:      run.Fingerprint.String(),
			Rank:             i + 1,
			RespondentID:     c.RespondentID,
			Country:          c.Country,
			Region:           nullString(c.Region),
			CompositeScore:   c.CompositeScore,
			NeedScore:        c.NeedScore,
			CapabilityScore:  c.CapabilityScore,
			WillingnessScore: c.WillingnessScore,
			Suitability:      string(c.Suitability),
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO pilot_candidates (
			fingerprint, candidate_rank, respondent_id, country, region, composite_score,
			need_score, capability_score, willingness_score, suitability
		) VALUES (
			:fingerprint, :candidate_rank, :respondent_id, :country, :region, :composite_score,
			:need_score, :capability_score, :willingness_score, :suitability
		)`, row); err != nil {
			return errors.DatabaseError("failed to insert pilot candidate "+c.RespondentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit run", err)
	}
	s.log.Info("stored run",
		zap.String("fingerprint", run.Fingerprint.String()),
		zap.Int("respondents", all.Len()),
		zap.Int("candidates", len(candidates)))
	return nil
}

// GetRun loads the run stored for a fingerprint
func (s *Store) GetRun(ctx context.Context, fp core.Fingerprint) (*Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, s.db.Rebind(`SELECT
		fingerprint, run_id, input, total_responses, complete_responses, completion_threshold
	FROM survey_runs WHERE fingerprint = ?`), fp)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.CodeDatabaseError, "run not found: "+fp.String())
		}
		return nil, errors.DatabaseError("failed to get run", err)
	}
	return &run, nil
}

// Respondents loads stored respondents in raw row order
func (s *Store) Respondents(ctx context.Context, fp core.Fingerprint) ([]RespondentRow, error) {
	var rows []RespondentRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT
		fingerprint, row_index, respondent_id, country, region, completion_score,
		is_complete, infrastructure_score, fields_json
	FROM respondents WHERE fingerprint = ? ORDER BY row_index`), fp)
	if err != nil {
		return nil, errors.DatabaseError("failed to query respondents", err)
	}
	return rows, nil
}

// Candidates loads stored pilot candidates in rank order
func (s *Store) Candidates(ctx context.Context, fp core.Fingerprint) ([]CandidateRow, error) {
	var rows []CandidateRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT
		fingerprint, candidate_rank, respondent_id, country, region, composite_score,
		need_score, capability_score, willingness_score, suitability
	FROM pilot_candidates WHERE fingerprint = ? ORDER BY candidate_rank`), fp)
	if err != nil {
		return nil, errors.DatabaseError("failed to query pilot candidates", err)
	}
	return rows, nil
}

func respondentRow(fp core.Fingerprint, r, scored *survey.Respondent) (RespondentRow, error) {
	source := r
	if scored != nil {
		source = scored
	}
	fields, err := json.Marshal(source)
	if err != nil {
		return RespondentRow{}, errors.Wrapf(err, "failed to encode respondent %s", r.ID)
	}
	return RespondentRow{
		Fingerprint:         fp.String(),
		RowIndex:            r.Row,
		RespondentID:        r.ID,
		Country:             nullString(source.Get(survey.FieldCountry)),
		Region:              nullString(source.Get(survey.FieldRegion)),
		CompletionScore:     nullFloat(source.Get(survey.FieldCompletion)),
		IsComplete:          scored != nil,
		InfrastructureScore: nullFloat(source.Get(survey.FieldInfrastructureScore)),
		FieldsJSON:          string(fields),
	}, nil
}

func nullString(v survey.Value) sql.NullString {
	if s, ok := v.Text(); ok {
		return sql.NullString{String: s, Valid: true}
	}
	return sql.NullString{}
}

func nullFloat(v survey.Value) sql.NullFloat64 {
	if f, ok := v.Number(); ok {
		return sql.NullFloat64{Float64: f, Valid: true}
	}
	return sql.NullFloat64{}
}
