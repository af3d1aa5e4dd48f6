package sqlstore

import (
	"context"
	"encoding/json"
	"testing"

	"embsurvey/domain/core"
	"embsurvey/domain/survey"
	"embsurvey/internal/errors"
	"embsurvey/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, zap.NewNop())
}

func fixtureRun(t *testing.T) (Run, *survey.Dataset, *survey.Dataset, []metrics.Candidate) {
	t.Helper()
	r1 := survey.NewRespondent("r1", 0)
	r1.Set(survey.FieldRespondentID, survey.TextValue("r1"))
	r1.Set(survey.FieldCountry, survey.TextValue("Kenya"))
	r1.Set(survey.FieldRegion, survey.TextValue("Africa"))
	require.NoError(t, r1.Append(survey.FieldCompletion, survey.FloatValue(80)))
	r2 := survey.NewRespondent("r2", 1)
	r2.Set(survey.FieldRespondentID, survey.TextValue("r2"))
	require.NoError(t, r2.Append(survey.FieldCompletion, survey.FloatValue(5)))
	all := survey.NewDataset([]*survey.Respondent{r1, r2})

	complete := all.Filter(func(r *survey.Respondent) bool { return r.ID == "r1" })
	require.NoError(t, complete.Respondents[0].Append(survey.FieldInfrastructureScore, survey.FloatValue(6.5)))
	complete.RefreshColumns()

	candidates := []metrics.Candidate{{
		RespondentID:     "r1",
		Country:          "Kenya",
		Region:           survey.TextValue("Africa"),
		CompositeScore:   6.5,
		NeedScore:        6,
		CapabilityScore:  6,
		WillingnessScore: 8,
		Suitability:      metrics.BandMedium,
	}}

	fp := core.ComputeFingerprint([]string{"Respondent ID"}, []string{""})
	run := Run{
		Fingerprint:         fp,
		RunID:               core.NewRunID(fp),
		Input:               "survey.csv",
		TotalResponses:      2,
		CompleteResponses:   1,
		CompletionThreshold: 15,
	}
	return run, all, complete, candidates
}

func TestSaveRun(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	run, all, complete, candidates := fixtureRun(t)

	require.NoError(t, store.SaveRun(ctx, run, all, complete, candidates))

	got, err := store.GetRun(ctx, run.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, run, *got)

	rows, err := store.Respondents(ctx, run.Fingerprint)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "r1", rows[0].RespondentID)
	assert.True(t, rows[0].IsComplete)
	assert.Equal(t, "Kenya", rows[0].Country.String)
	assert.Equal(t, 6.5, rows[0].InfrastructureScore.Float64)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(rows[0].FieldsJSON), &fields))
	assert.Equal(t, 6.5, fields[survey.FieldInfrastructureScore])

	assert.Equal(t, "r2", rows[1].RespondentID)
	assert.False(t, rows[1].IsComplete)
	assert.False(t, rows[1].Country.Valid)
	assert.False(t, rows[1].InfrastructureScore.Valid)

	cands, err := store.Candidates(ctx, run.Fingerprint)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, 1, cands[0].Rank)
	assert.Equal(t, string(metrics.BandMedium), cands[0].Suitability)
	assert.Equal(t, "Africa", cands[0].Region.String)
}

func TestSaveRunReplacesSameFingerprint(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	run, all, complete, candidates := fixtureRun(t)

	require.NoError(t, store.SaveRun(ctx, run, all, complete, candidates))
	require.NoError(t, store.SaveRun(ctx, run, all, complete, nil))

	rows, err := store.Respondents(ctx, run.Fingerprint)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	cands, err := store.Candidates(ctx, run.Fingerprint)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestGetRunNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetRun(context.Background(), core.Fingerprint("missing"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestOpenAppliesSchema(t *testing.T) {
	db, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var tables []string
	require.NoError(t, db.Select(&tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`))
	assert.Equal(t, []string{"pilot_candidates", "respondents", "survey_runs"}, tables)
	assert.Equal(t, "1.0.0", SchemaVersion())
}
