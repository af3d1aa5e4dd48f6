package metrics

import (
	"encoding/json"
	"testing"

	"embsurvey/domain/survey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respondent(id string, fields map[string]survey.Value) *survey.Respondent {
	r := survey.NewRespondent(id, 0)
	// deterministic field order for the tests that marshal
	for _, name := range append(append([]string{}, survey.TechLevelFields...),
		survey.FieldCountry, survey.FieldRegion,
		survey.FieldFraudIncidents, survey.FieldVerificationHours, survey.FieldCredentialChallenges,
		survey.FieldTempWorkforcePct, survey.FieldWorkerReturnRate, survey.FieldWorkforceChallenges,
		survey.FieldTrainingFrequency, survey.FieldHoursResolving, survey.FieldTrainingConfidence,
		survey.FieldConflictingInfo, survey.FieldSyncConfidence, survey.FieldSyncTime,
		survey.FieldInfraLimitations, survey.FieldTechnologiesExplored, survey.FieldWorkerInterest,
		survey.FieldFollowupWilling, survey.FieldTempWorkersCount, survey.FieldElectionsAnnually,
	) {
		if v, ok := fields[name]; ok {
			r.Set(name, v)
		}
	}
	return r
}

func list(labels ...string) survey.Value { return survey.ListValue(labels) }

func TestInfrastructureScore(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]survey.Value
		expected survey.Value
	}{
		{
			name:     "no tech levels is null",
			fields:   map[string]survey.Value{survey.FieldInfraLimitations: list("Unreliable electricity")},
			expected: survey.Null,
		},
		{
			name: "all advanced and no limitations",
			fields: map[string]survey.Value{
				survey.FieldTechRecruitment:   survey.IntValue(3),
				survey.FieldTechTraining:      survey.IntValue(3),
				survey.FieldTechPerformance:   survey.IntValue(3),
				survey.FieldTechCommunication: survey.IntValue(3),
			},
			expected: survey.FloatValue(10),
		},
		{
			name: "null levels are skipped not zeroed",
			fields: map[string]survey.Value{
				survey.FieldTechRecruitment: survey.IntValue(2),
				survey.FieldTechTraining:    survey.Null,
			},
			expected: survey.FloatValue(8),
		},
		{
			name: "every severe limitation removes the offset",
			fields: map[string]survey.Value{
				survey.FieldTechRecruitment: survey.IntValue(0),
				survey.FieldInfraLimitations: list(
					"Unreliable electricity",
					"Limited internet connectivity",
					"Lack of computers/devices",
					"Insufficient IT support",
					"Budget constraints",
				),
			},
			expected: survey.FloatValue(0),
		},
		{
			name: "mixed levels round to two decimals",
			fields: map[string]survey.Value{
				survey.FieldTechRecruitment:  survey.IntValue(1),
				survey.FieldTechTraining:     survey.IntValue(2),
				survey.FieldTechPerformance:  survey.IntValue(2),
				survey.FieldInfraLimitations: list("Unreliable electricity"),
			},
			expected: survey.FloatValue(6.33),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InfrastructureScore(respondent("r1", tt.fields))
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestInfrastructureScoreBounds(t *testing.T) {
	limitationSets := [][]string{
		nil,
		{"Unreliable electricity"},
		{"Unreliable electricity", "Limited internet connectivity", "Lack of computers/devices", "Insufficient IT support"},
	}
	// out-of-scale raw integers must not push the score past the bounds
	for _, level := range []int{-2, 0, 1, 2, 3, 7} {
		for _, lims := range limitationSets {
			r := respondent("r", map[string]survey.Value{
				survey.FieldTechRecruitment:  survey.IntValue(level),
				survey.FieldInfraLimitations: survey.ListValue(lims),
			})
			score, ok := InfrastructureScore(r).Number()
			require.True(t, ok)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 10.0)
		}
	}
}

func TestPainPointScores(t *testing.T) {
	r := respondent("r1", map[string]survey.Value{
		survey.FieldFraudIncidents:       survey.IntValue(2),
		survey.FieldVerificationHours:    survey.IntValue(3),
		survey.FieldCredentialChallenges: list("Fraudulent documents", "No significant challenges", "Less than 1% issues"),
		survey.FieldSyncTime:             survey.TextValue("We don't have a centralised system"),
		survey.FieldTechRecruitment:      survey.IntValue(1),
		survey.FieldInfraLimitations:     list("Budget constraints", "Other"),
	})

	scores := PainPointScores(r)

	// 2*2 + (3-1)*1.5 + 1
	assert.Equal(t, 8.0, scores[DomainCredentialVerification])
	// not instant and no system
	assert.Equal(t, 5.0, scores[DomainDataSynchronization])
	// budget constraints + (3-1)*0.5
	assert.Equal(t, 3.0, scores[DomainInfrastructure])

	_, hasWorkforce := scores[DomainTemporaryWorkforce]
	assert.False(t, hasWorkforce, "no workforce signal answered")
	_, hasTraining := scores[DomainTrainingSystems]
	assert.False(t, hasTraining, "no training signal answered")
}

func TestPainPointScoresHoldOutOfRangeIntegers(t *testing.T) {
	r := respondent("r1", map[string]survey.Value{
		survey.FieldTechRecruitment:      survey.IntValue(9),
		survey.FieldTechTraining:         survey.IntValue(-2),
		survey.FieldTrainingConfidence:   survey.IntValue(8),
		survey.FieldSyncConfidence:       survey.IntValue(12),
		survey.FieldWorkerReturnRate:     survey.IntValue(7),
		survey.FieldVerificationHours:    survey.IntValue(0),
		survey.FieldTrainingFrequency:    survey.IntValue(-3),
		survey.FieldInfraLimitations:     list("Other"),
		survey.FieldCredentialChallenges: list("No significant challenges"),
	})

	scores := PainPointScores(r)
	require.Len(t, scores, len(Domains))
	for domain, score := range scores {
		assert.GreaterOrEqual(t, score, 0.0, domain)
	}

	// 9 is held to 3 and -2 to 0
	assert.Equal(t, 1.5, scores[DomainInfrastructure])
	// frequency held to 0, confidence held to 5
	assert.Equal(t, 0.0, scores[DomainTrainingSystems])
	// return rate held to 4
	assert.Equal(t, 1.5, scores[DomainTemporaryWorkforce])
	// verification hours held to 1
	assert.Equal(t, 0.0, scores[DomainCredentialVerification])

	infra, ok := InfrastructureScore(r).Number()
	require.True(t, ok)
	assert.Equal(t, 7.0, infra)
}

func TestComputePainPointsRanking(t *testing.T) {
	ds := survey.NewDataset([]*survey.Respondent{
		respondent("a", map[string]survey.Value{
			survey.FieldCountry:           survey.TextValue("Kenya"),
			survey.FieldTrainingFrequency: survey.IntValue(1),
		}),
		respondent("b", map[string]survey.Value{
			survey.FieldCountry:           survey.TextValue("Albania"),
			survey.FieldTrainingFrequency: survey.IntValue(4),
			survey.FieldFraudIncidents:    survey.IntValue(0),
		}),
		respondent("c", map[string]survey.Value{
			survey.FieldTrainingFrequency: survey.IntValue(1),
		}),
	})

	report := ComputePainPoints(ds)

	training := report.Domains[DomainTrainingSystems]
	require.Len(t, training.Scores, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{
		training.Scores[0].RespondentID, training.Scores[1].RespondentID, training.Scores[2].RespondentID,
	}, "descending with ties in respondent order")
	assert.Equal(t, 8.0, training.MaxScore)
	assert.Equal(t, 4.0, training.AvgScore)
	assert.Nil(t, training.Scores[2].Country)

	cred := report.Domains[DomainCredentialVerification]
	require.Len(t, cred.Scores, 1, "a zero score still counts once a signal is present")
	assert.Equal(t, 0.0, cred.Scores[0].Score)

	assert.Empty(t, report.Domains[DomainTemporaryWorkforce].Scores)
	require.Len(t, report.AreaRanking, len(Domains))
	assert.Equal(t, DomainTrainingSystems, report.AreaRanking[0].Area)
}

func TestSuitabilityBandPrecedence(t *testing.T) {
	tests := []struct {
		name                          string
		need, capability, willingness float64
		expected                      Band
	}{
		{"qualifies for high", 6, 6, 4, BandHigh},
		{"qualifies for medium", 3.5, 4, 2, BandMedium},
		{"capability blocker overrides need", 6, 2, 4, BandLowInfrastructure},
		{"limited need", 1, 4, 0, BandLowLimitedNeed},
		{"plain low", 4, 3.5, 1, BandLow},
		{"high thresholds are inclusive", 5, 5, 3, BandHigh},
		{"medium missing willingness falls through", 4, 4, 1, BandLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Suitability(tt.need, tt.capability, tt.willingness))
		})
	}
}

func TestComposite(t *testing.T) {
	assert.Equal(t, 6.5, Composite(6, 6, 4))
	assert.Equal(t, 10.0, Composite(10, 10, 5))
	assert.Equal(t, 0.0, Composite(0, 0, 0))
	assert.Equal(t, 3.2, Composite(3.5, 3, 1.5))
}

func TestNeedScoreCaps(t *testing.T) {
	r := respondent("r1", map[string]survey.Value{
		survey.FieldFraudIncidents:    survey.IntValue(4),
		survey.FieldVerificationHours: survey.IntValue(5),
		survey.FieldCredentialChallenges: list(
			"Lack of centralised database",
			"Difficulty verifying remote workers",
			"Document fraud",
			"Manual verification is slow",
		),
		survey.FieldTrainingFrequency:  survey.IntValue(4),
		survey.FieldTrainingConfidence: survey.IntValue(0),
		survey.FieldWorkerInterest:     survey.IntValue(4),
	})

	need, components := NeedScore(r)

	// 3 + 1.5 + 1.5 + 1.5 + 1.5 + 1
	assert.Equal(t, 10.0, need)
	assert.Equal(t, []string{
		"fraud_incidents:4",
		"verification_hours:5",
		"challenges:4",
		"training_freq:4",
		"low_train_conf:0",
		"worker_interest:4",
	}, components)
}

func TestCapabilityScore(t *testing.T) {
	t.Run("defaults without tech levels", func(t *testing.T) {
		score, components := CapabilityScore(respondent("r", nil))
		assert.Equal(t, 5.0, score)
		assert.Empty(t, components)
	})

	t.Run("exploration bonuses are capped", func(t *testing.T) {
		r := respondent("r", map[string]survey.Value{
			survey.FieldTechRecruitment:      survey.IntValue(3),
			survey.FieldInfraLimitations:     list("Unreliable electricity"),
			survey.FieldTechnologiesExplored: list(techBlockchain, techBiometric),
		})
		score, components := CapabilityScore(r)
		// 6 + 3, then +1, then +0.5 capped at 10
		assert.Equal(t, 10.0, score)
		assert.Equal(t, []string{"blockers:1", "blockchain_explored", "biometric_explored"}, components)
	})
}

func TestWillingnessScore(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]survey.Value
		expected float64
	}{
		{"nothing", nil, 0},
		{"follow-up yes", map[string]survey.Value{survey.FieldFollowupWilling: survey.TextValue("Yes")}, 3},
		{"contact me", map[string]survey.Value{survey.FieldFollowupWilling: survey.TextValue("Contact me with more information")}, 2},
		{"none of the above is not exploration", map[string]survey.Value{
			survey.FieldTechnologiesExplored: list(techNone),
		}, 0},
		{"everything is capped", map[string]survey.Value{
			survey.FieldFollowupWilling:      survey.TextValue("Yes"),
			survey.FieldTechnologiesExplored: list(techBlockchain),
			survey.FieldWorkerInterest:       survey.IntValue(3),
		}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _ := WillingnessScore(respondent("r", tt.fields))
			assert.Equal(t, tt.expected, score)
		})
	}
}

func pilotDataset() *survey.Dataset {
	return survey.NewDataset([]*survey.Respondent{
		respondent("low", map[string]survey.Value{
			survey.FieldCountry:         survey.TextValue("Kenya"),
			survey.FieldRegion:          survey.TextValue("Africa"),
			survey.FieldTechRecruitment: survey.IntValue(0),
			survey.FieldInfraLimitations: list(
				"Unreliable electricity", "Limited internet connectivity",
				"Lack of computers/devices", "Insufficient IT support",
			),
		}),
		respondent("tie-first", map[string]survey.Value{
			survey.FieldCountry: survey.TextValue("Albania"),
			survey.FieldRegion:  survey.TextValue("Europe"),
		}),
		respondent("no-country", map[string]survey.Value{
			survey.FieldFraudIncidents: survey.IntValue(4),
		}),
		respondent("tie-second", map[string]survey.Value{
			survey.FieldCountry: survey.TextValue("Serbia"),
			survey.FieldRegion:  survey.TextValue("Europe"),
		}),
		respondent("high", map[string]survey.Value{
			survey.FieldCountry:              survey.TextValue("Taiwan"),
			survey.FieldRegion:               survey.TextValue("Asia-Pacific"),
			survey.FieldFraudIncidents:       survey.IntValue(3),
			survey.FieldVerificationHours:    survey.IntValue(4),
			survey.FieldTrainingFrequency:    survey.IntValue(3),
			survey.FieldTechRecruitment:      survey.IntValue(2),
			survey.FieldFollowupWilling:      survey.TextValue("Yes"),
			survey.FieldTechnologiesExplored: list(techBlockchain),
			survey.FieldTempWorkersCount:     survey.TextValue("5000"),
		}),
	})
}

func TestRankCandidates(t *testing.T) {
	report := RankCandidates(pilotDataset())

	require.Len(t, report.AllCandidates, 4, "respondents without a country are not assessed")
	ids := make([]string, len(report.AllCandidates))
	for i, c := range report.AllCandidates {
		ids[i] = c.RespondentID
	}
	assert.Equal(t, []string{"high", "tie-first", "tie-second", "low"}, ids)

	high := report.AllCandidates[0]
	assert.Equal(t, BandHigh, high.Suitability)
	assert.Equal(t, "5000", high.Scale.TempWorkersCount.String())
	assert.Equal(t, BandLowInfrastructure, report.AllCandidates[3].Suitability)

	assert.Equal(t, 4, report.Summary.TotalAssessed)
	assert.Equal(t, 1, report.Summary.HighCount)
	assert.Equal(t, 3, report.Summary.LowCount)
	assert.Len(t, report.Summary.TopCandidates, 4)
	assert.Len(t, report.LowPotential, 3)
}

func TestRankCandidatesIsDeterministic(t *testing.T) {
	first, err := json.Marshal(RankCandidates(pilotDataset()))
	require.NoError(t, err)
	second, err := json.Marshal(RankCandidates(pilotDataset()))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestAnnotateScores(t *testing.T) {
	ds := pilotDataset()
	require.NoError(t, AnnotateScores(ds))

	high := ds.Respondents[4]
	assert.True(t, high.Has(survey.FieldCompositeScore))
	suitability, _ := high.Get(survey.FieldSuitability).Text()
	assert.Equal(t, string(BandHigh), suitability)

	noCountry := ds.Respondents[2]
	assert.True(t, noCountry.Has(survey.FieldInfrastructureScore))
	assert.True(t, noCountry.Get(survey.FieldInfrastructureScore).IsNull())
	assert.False(t, noCountry.Has(survey.FieldNeedScore))
	assert.True(t, ds.HasColumn(survey.FieldSuitability))

	// a second pass would rewrite existing fields
	assert.Error(t, AnnotateScores(ds))
}
