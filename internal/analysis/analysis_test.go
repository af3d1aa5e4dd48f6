package analysis

import (
	"encoding/json"
	"testing"

	"embsurvey/domain/survey"
	"embsurvey/internal/instrument"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type field struct {
	name  string
	value survey.Value
}

func record(id string, fields ...field) *survey.Respondent {
	r := survey.NewRespondent(id, 0)
	for _, f := range fields {
		r.Set(f.name, f.value)
	}
	return r
}

func text(s string) survey.Value          { return survey.TextValue(s) }
func num(i int) survey.Value              { return survey.IntValue(i) }
func list(s ...string) survey.Value       { return survey.ListValue(s) }
func f(name string, v survey.Value) field { return field{name: name, value: v} }

func TestCountLabelsOrdersByCountThenFirstSeen(t *testing.T) {
	counts := CountLabels([]string{"b", "a", "c", "a", "c", "d"})
	assert.Equal(t, Counts{
		{Label: "a", Count: 2},
		{Label: "c", Count: 2},
		{Label: "b", Count: 1},
		{Label: "d", Count: 1},
	}, counts)
	assert.Equal(t, 6, counts.Total())
	assert.Len(t, counts.Top(2), 2)
	assert.Len(t, counts.Top(10), 4)
}

func TestDescribeNumeric(t *testing.T) {
	values := []survey.Value{num(1), num(2), num(2), survey.Null, text("not a number")}

	summary := DescribeNumeric(values, map[int]string{1: "Rarely", 2: "Sometimes"})

	assert.Equal(t, 3, summary.N)
	assert.Equal(t, 2, summary.Missing)
	assert.Equal(t, 40.0, summary.MissingPct)
	require.NotNil(t, summary.Mean)
	assert.Equal(t, 1.67, *summary.Mean)
	assert.Equal(t, 2.0, *summary.Median)
	assert.Equal(t, 0.58, *summary.Std)
	assert.Equal(t, 1.0, *summary.Min)
	assert.Equal(t, 2.0, *summary.Max)
	assert.Equal(t, Counts{{Label: "Rarely", Count: 1}, {Label: "Sometimes", Count: 2}}, summary.Distribution)
}

func TestDescribeNumericEdgeCases(t *testing.T) {
	t.Run("no numeric values", func(t *testing.T) {
		summary := DescribeNumeric([]survey.Value{survey.Null, text("n/a")}, nil)
		assert.Equal(t, 0, summary.N)
		assert.Equal(t, 2, summary.Missing)
		assert.Nil(t, summary.Mean)
		assert.Nil(t, summary.Distribution)
	})

	t.Run("single value has zero deviation", func(t *testing.T) {
		summary := DescribeNumeric([]survey.Value{num(3)}, nil)
		require.NotNil(t, summary.Std)
		assert.Equal(t, 0.0, *summary.Std)
		assert.Equal(t, Counts{{Label: "3", Count: 1}}, summary.Distribution)
	})

	t.Run("empty input", func(t *testing.T) {
		summary := DescribeNumeric(nil, nil)
		assert.Equal(t, 0.0, summary.MissingPct)
	})
}

func TestDescribeMultiselect(t *testing.T) {
	values := []survey.Value{list("a", "b"), survey.Null, list("b"), text("c")}

	summary := DescribeMultiselect(values)

	assert.Equal(t, 3, summary.N)
	assert.Equal(t, 1, summary.Missing)
	assert.Equal(t, 25.0, summary.MissingPct)
	assert.Equal(t, 4, summary.TotalSelections)
	assert.Equal(t, 1.33, summary.AvgSelectionsPerResponse)
	assert.Equal(t, Counts{{"b", 2}, {"a", 1}, {"c", 1}}, summary.OptionCounts)
}

func TestMissingData(t *testing.T) {
	ds := survey.NewDataset([]*survey.Respondent{
		record("1", f(survey.FieldRespondentID, survey.Null), f("x", survey.Null), f("y", num(1)), f("z", survey.Null), f("w", num(1))),
		record("2", f(survey.FieldRespondentID, survey.Null), f("x", survey.Null), f("y", num(1)), f("z", survey.Null), f("w", num(1))),
		record("3", f(survey.FieldRespondentID, survey.Null), f("x", survey.Null), f("y", survey.Null), f("z", num(1)), f("w", num(1))),
		record("4", f(survey.FieldRespondentID, survey.Null), f("x", num(1)), f("y", num(1)), f("z", num(1)), f("w", num(1))),
	})

	report := MissingData(ds)

	require.Len(t, report.ByColumn, 3)
	assert.Equal(t, ColumnMissing{Column: "x", MissingCount: 3, MissingPct: 75}, report.ByColumn[0])
	assert.Equal(t, "z", report.ByColumn[1].Column)
	assert.Equal(t, "y", report.ByColumn[2].Column)
	assert.Equal(t, []string{"x"}, report.HighMissingColumns)
	assert.Equal(t, []string{"z"}, report.ModerateMissingColumns, "25% is not above the moderate threshold")
}

func TestCompletionByRegion(t *testing.T) {
	ds := survey.NewDataset([]*survey.Respondent{
		record("1", f(survey.FieldRegion, text("Europe")), f(survey.FieldCompletion, survey.FloatValue(40))),
		record("2", f(survey.FieldRegion, text("Africa")), f(survey.FieldCompletion, survey.FloatValue(20))),
		record("3", f(survey.FieldRegion, text("Europe")), f(survey.FieldCompletion, survey.FloatValue(61))),
		record("4", f(survey.FieldCompletion, survey.FloatValue(99))),
	})

	analysis := Completion(ds)

	assert.Equal(t, []RegionMean{{Region: "Africa", Mean: 20}, {Region: "Europe", Mean: 50.5}}, analysis.CompletionByRegion)
	require.NotNil(t, analysis.CompletionStats.Max)
	assert.Equal(t, 99.0, *analysis.CompletionStats.Max)
}

func TestRegionalComparison(t *testing.T) {
	ds := survey.NewDataset([]*survey.Respondent{
		record("1",
			f(survey.FieldCountry, text("Serbia")), f(survey.FieldRegion, text("Europe")),
			f(survey.FieldFraudIncidents, num(1)), f(survey.FieldFollowupWilling, text("Yes")),
			f(survey.FieldInfraLimitations, list("Budget constraints", "Open-Ended Response"))),
		record("2",
			f(survey.FieldCountry, text("Kenya")), f(survey.FieldRegion, text("Africa")),
			f(survey.FieldFraudIncidents, num(4))),
		record("3",
			f(survey.FieldCountry, text("Albania")), f(survey.FieldRegion, text("Europe")),
			f(survey.FieldFraudIncidents, num(2)), f(survey.FieldFollowupWilling, text("No")),
			f(survey.FieldCredentialChallenges, list("Less than 1%", "Other", "Forged documents")),
			f(survey.FieldTechnologiesExplored, list("None of the above"))),
		record("4", f(survey.FieldFraudIncidents, num(4))),
	})

	comparison := RegionalComparison(ds)

	require.Len(t, comparison, 2)
	europe := comparison[0]
	assert.Equal(t, "Europe", europe.Region)
	assert.Equal(t, 2, europe.ResponseCount)
	assert.Equal(t, []string{"Serbia", "Albania"}, europe.Countries)
	require.NotNil(t, europe.FraudIncidentsMean)
	assert.Equal(t, 1.5, *europe.FraudIncidentsMean)
	assert.Nil(t, europe.SyncConfidenceMean)
	assert.Equal(t, 1, europe.FollowupWillingCount)
	assert.Equal(t, 50.0, europe.FollowupWillingPct)
	assert.Equal(t, Counts{{"Budget constraints", 1}}, europe.TopInfraLimitations)
	assert.Equal(t, Counts{{"Forged documents", 1}}, europe.TopCredentialChallenges)
	assert.Empty(t, europe.TechnologiesExplored)

	assert.Equal(t, "Africa", comparison[1].Region)
}

func TestSegmentByInfrastructure(t *testing.T) {
	severe := list("Unreliable electricity", "Limited internet connectivity", "Lack of computers/devices", "Insufficient IT support")
	ds := survey.NewDataset([]*survey.Respondent{
		record("1", f(survey.FieldCountry, text("Taiwan")), f(survey.FieldRegion, text("Asia-Pacific")), f(survey.FieldTechRecruitment, num(3))),
		record("2", f(survey.FieldCountry, text("Kenya")), f(survey.FieldRegion, text("Africa")), f(survey.FieldTechRecruitment, num(1))),
		record("3", f(survey.FieldCountry, text("Uganda")), f(survey.FieldRegion, text("Africa")), f(survey.FieldTechRecruitment, num(0)), f(survey.FieldInfraLimitations, severe)),
		record("4", f(survey.FieldTechRecruitment, num(3))),
		record("5", f(survey.FieldCountry, text("Serbia"))),
	})

	seg := SegmentByInfrastructure(ds)

	require.Len(t, seg.Segments, 3)
	advanced, moderate, basic := seg.Segments[0], seg.Segments[1], seg.Segments[2]
	assert.Equal(t, "advanced", advanced.Name)
	assert.Equal(t, 1, advanced.Count)
	assert.Equal(t, []string{"Taiwan"}, advanced.Countries)
	assert.Equal(t, 10.0, *advanced.AvgScore)
	assert.Equal(t, 1, moderate.Count)
	assert.Equal(t, 6.0, moderate.Respondents[0].Score)
	assert.Equal(t, 1, basic.Count)
	assert.Equal(t, Counts{{"Africa", 1}}, basic.Regions)

	require.NotNil(t, seg.ScoreDistribution.Mean)
	assert.Equal(t, 6.5, *seg.ScoreDistribution.Mean)
	assert.Equal(t, 8.0, *seg.ScoreDistribution.Median)
	assert.Equal(t, 0.0, *seg.ScoreDistribution.Min)
	assert.Equal(t, 10.0, *seg.ScoreDistribution.Max)
}

func TestSegmentName(t *testing.T) {
	assert.Equal(t, "advanced", SegmentName(7))
	assert.Equal(t, "moderate", SegmentName(6.99))
	assert.Equal(t, "moderate", SegmentName(4))
	assert.Equal(t, "basic", SegmentName(3.99))
	assert.Equal(t, "basic", SegmentName(0))
}

func TestOpenResponses(t *testing.T) {
	ds := survey.NewDataset([]*survey.Respondent{
		record("1", f(survey.FieldRespondentID, text("1")), f(survey.FieldCountry, text("Kenya")), f("implementation_concerns_text", text("Cost")), f("priority_1", survey.Null)),
		record("2", f(survey.FieldRespondentID, text("2")), f(survey.FieldCountry, text("Serbia")), f("implementation_concerns_text", survey.Null), f("priority_1", survey.Null)),
		record("3", f(survey.FieldRespondentID, text("3")), f(survey.FieldCountry, survey.Null), f("implementation_concerns_text", survey.Null), f("priority_1", text("Training"))),
	})

	out := OpenResponses(ds)

	require.Len(t, out, 2)
	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"respondent_id": "1", "country": "Kenya", "implementation_concerns_text": "Cost"},
		{"respondent_id": "3", "priority_1": "Training"}
	]`, string(b))
}

func TestOpenResponsesKeepsBlankIdentifier(t *testing.T) {
	ds := survey.NewDataset([]*survey.Respondent{
		record("row-1", f(survey.FieldRespondentID, survey.Null), f("implementation_concerns_text", text("Cost"))),
	})

	b, err := json.Marshal(OpenResponses(ds))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"respondent_id": null, "implementation_concerns_text": "Cost"}]`, string(b))
}

func TestSummarizeUsesScaleLabels(t *testing.T) {
	reg := instrument.NewRegistry(map[string]*instrument.Scale{
		"fraud_incidents": {Name: "fraud_incidents", Labels: map[int]string{0: "None", 4: "20+"}},
	}, []string{"fraud_incidents"}, nil, nil)

	complete := survey.NewDataset([]*survey.Respondent{
		record("1", f(survey.FieldCountry, text("Kenya")), f(survey.FieldFraudIncidents, num(0))),
		record("2", f(survey.FieldCountry, text("Kenya")), f(survey.FieldFraudIncidents, num(4))),
	})
	all := survey.NewDataset(append(complete.Respondents, record("3")))

	stats := NewAnalyzer(reg).Summarize(complete, all)

	assert.Equal(t, 3, stats.ResponseOverview.TotalRawResponses)
	assert.Equal(t, 2, stats.ResponseOverview.TotalResponses)
	assert.Equal(t, 1, stats.ResponseOverview.Countries.UniqueCount)
	assert.Equal(t, Counts{{"None", 1}, {"20+", 1}}, stats.CredentialVerification.FraudIncidents.Distribution)
	assert.Nil(t, stats.ResponseOverview.DateRange.Earliest)
}

func TestFindings(t *testing.T) {
	ds := survey.NewDataset([]*survey.Respondent{
		record("1", f(survey.FieldCountry, text("Kenya")), f(survey.FieldRegion, text("Africa")),
			f(survey.FieldFraudIncidents, num(0)), f(survey.FieldTempWorkforcePct, num(4)), f(survey.FieldWorkerInterest, num(3))),
		record("2", f(survey.FieldCountry, text("Kenya")), f(survey.FieldRegion, text("Africa")),
			f(survey.FieldFraudIncidents, num(2)), f(survey.FieldWorkerInterest, num(1))),
	})

	findings := Findings(ds)

	assert.Equal(t, 2, findings.TotalResponses)
	assert.Equal(t, 1, findings.CountryCount)
	assert.Equal(t, []string{"Africa"}, findings.Regions)
	assert.Equal(t, 1, findings.ZeroFraudCount)
	assert.Equal(t, 1, findings.SomeFraudCount)
	assert.Equal(t, 1, findings.HighTempWorkforce)
	assert.Equal(t, 1, findings.WorkerInterestCount)
	assert.Nil(t, findings.TrainingConfidence)
}
