package analysis

import (
	"strings"

	"embsurvey/domain/survey"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

const topRegionalItems = 5

// RegionStats compares one region against the others
type RegionStats struct {
	Region                  string   `json:"region"`
	ResponseCount           int      `json:"response_count"`
	Countries               []string `json:"countries"`
	FraudIncidentsMean      *float64 `json:"fraud_incidents_mean"`
	VerificationHoursMean   *float64 `json:"verification_hours_mean"`
	TempWorkforcePctMean    *float64 `json:"temp_workforce_pct_mean"`
	WorkerReturnRateMean    *float64 `json:"worker_return_rate_mean"`
	TrainingConfidenceMean  *float64 `json:"training_confidence_mean"`
	SyncConfidenceMean      *float64 `json:"sync_confidence_mean"`
	TechRecruitmentMean     *float64 `json:"tech_recruitment_mean"`
	TechTrainingMean        *float64 `json:"tech_training_mean"`
	TechPerformanceMean     *float64 `json:"tech_performance_mean"`
	TechCommunicationMean   *float64 `json:"tech_communication_mean"`
	AvgCompletionScore      *float64 `json:"avg_completion_score"`
	FollowupWillingCount    int      `json:"followup_willing_count"`
	FollowupWillingPct      float64  `json:"followup_willing_pct"`
	TopInfraLimitations     Counts   `json:"top_infrastructure_limitations"`
	TopCredentialChallenges Counts   `json:"top_credential_challenges"`
	TechnologiesExplored    Counts   `json:"technologies_explored"`
}

// RegionalComparison groups respondents by region, regions in first-seen order.
// Respondents without a region are left out.
func RegionalComparison(ds *survey.Dataset) []RegionStats {
	var order []string
	groups := make(map[string][]*survey.Respondent)
	for _, r := range ds.Respondents {
		region, ok := r.Get(survey.FieldRegion).Text()
		if !ok {
			continue
		}
		if _, seen := groups[region]; !seen {
			order = append(order, region)
		}
		groups[region] = append(groups[region], r)
	}

	out := make([]RegionStats, 0, len(order))
	for _, region := range order {
		out = append(out, regionStats(region, survey.NewDataset(groups[region])))
	}
	return out
}

func regionStats(region string, ds *survey.Dataset) RegionStats {
	n := ds.Len()
	var countries []string
	for _, v := range ds.Values(survey.FieldCountry) {
		if s, ok := v.Text(); ok {
			countries = append(countries, s)
		}
	}

	willing := lo.CountBy(ds.Values(survey.FieldFollowupWilling), func(v survey.Value) bool {
		s, ok := v.Text()
		return ok && s == "Yes"
	})

	return RegionStats{
		Region:                  region,
		ResponseCount:           n,
		Countries:               lo.Uniq(countries),
		FraudIncidentsMean:      mean(ds, survey.FieldFraudIncidents),
		VerificationHoursMean:   mean(ds, survey.FieldVerificationHours),
		TempWorkforcePctMean:    mean(ds, survey.FieldTempWorkforcePct),
		WorkerReturnRateMean:    mean(ds, survey.FieldWorkerReturnRate),
		TrainingConfidenceMean:  mean(ds, survey.FieldTrainingConfidence),
		SyncConfidenceMean:      mean(ds, survey.FieldSyncConfidence),
		TechRecruitmentMean:     mean(ds, survey.FieldTechRecruitment),
		TechTrainingMean:        mean(ds, survey.FieldTechTraining),
		TechPerformanceMean:     mean(ds, survey.FieldTechPerformance),
		TechCommunicationMean:   mean(ds, survey.FieldTechCommunication),
		AvgCompletionScore:      mean(ds, survey.FieldCompletion),
		FollowupWillingCount:    willing,
		FollowupWillingPct:      percent(willing, n, 2),
		TopInfraLimitations:     selections(ds, survey.FieldInfraLimitations, func(s string) bool { return s != "Open-Ended Response" }).Top(topRegionalItems),
		TopCredentialChallenges: selections(ds, survey.FieldCredentialChallenges, func(s string) bool { return !strings.Contains(s, "Less than") && s != "Other" }).Top(topRegionalItems),
		TechnologiesExplored:    selections(ds, survey.FieldTechnologiesExplored, func(s string) bool { return s != "None of the above" && s != "Other" }),
	}
}

// mean averages the numeric values of a field; nil when none are numeric
func mean(ds *survey.Dataset, field string) *float64 {
	values := numbers(ds.Values(field))
	if len(values) == 0 {
		return nil
	}
	return ptr(round(stat.Mean(values, nil), 2))
}

func selections(ds *survey.Dataset, field string, keep func(string) bool) Counts {
	var all []string
	for _, v := range ds.Values(field) {
		for _, l := range v.Labels() {
			if l != "" && keep(l) {
				all = append(all, l)
			}
		}
	}
	return CountLabels(all)
}
