package analysis

import (
	"embsurvey/domain/survey"

	"github.com/samber/lo"
)

const topFindingItems = 3

// KeyFindings are the headline numbers of a run
type KeyFindings struct {
	TotalResponses      int         `json:"total_responses"`
	CountryCount        int         `json:"country_count"`
	Regions             []string    `json:"regions"`
	ZeroFraudCount      int         `json:"zero_fraud_count"`
	SomeFraudCount      int         `json:"some_fraud_count"`
	HighTempWorkforce   int         `json:"high_temp_workforce_count"`
	TrainingConfidence  *float64    `json:"training_confidence_mean"`
	SyncConfidence      *float64    `json:"sync_confidence_mean"`
	TechLevels          []NamedMean `json:"tech_levels"`
	TopLimitations      Counts      `json:"top_limitations"`
	WorkerInterestCount int         `json:"worker_interest_count"`
	TopSupportNeeds     Counts      `json:"top_support_needs"`
}

// NamedMean is a labelled average
type NamedMean struct {
	Name string   `json:"name"`
	Mean *float64 `json:"mean"`
}

// highest temporary-workforce bucket (75% and above)
const highTempWorkforceCode = 4

// Findings extracts the headline numbers from the complete respondents
func Findings(ds *survey.Dataset) KeyFindings {
	fraud := numbers(ds.Values(survey.FieldFraudIncidents))
	temp := numbers(ds.Values(survey.FieldTempWorkforcePct))
	interest := numbers(ds.Values(survey.FieldWorkerInterest))

	var countries, regions []string
	for _, r := range ds.Respondents {
		if c, ok := r.Get(survey.FieldCountry).Text(); ok {
			countries = append(countries, c)
		}
		if reg, ok := r.Get(survey.FieldRegion).Text(); ok {
			regions = append(regions, reg)
		}
	}

	return KeyFindings{
		TotalResponses:     ds.Len(),
		CountryCount:       len(lo.Uniq(countries)),
		Regions:            lo.Uniq(regions),
		ZeroFraudCount:     lo.CountBy(fraud, func(f float64) bool { return f == 0 }),
		SomeFraudCount:     lo.CountBy(fraud, func(f float64) bool { return f > 0 }),
		HighTempWorkforce:  lo.CountBy(temp, func(f float64) bool { return f >= highTempWorkforceCode }),
		TrainingConfidence: mean(ds, survey.FieldTrainingConfidence),
		SyncConfidence:     mean(ds, survey.FieldSyncConfidence),
		TechLevels: []NamedMean{
			{Name: "Recruitment", Mean: mean(ds, survey.FieldTechRecruitment)},
			{Name: "Training", Mean: mean(ds, survey.FieldTechTraining)},
			{Name: "Performance", Mean: mean(ds, survey.FieldTechPerformance)},
		},
		TopLimitations:      DescribeMultiselect(ds.Values(survey.FieldInfraLimitations)).OptionCounts.Top(topFindingItems),
		WorkerInterestCount: lo.CountBy(interest, func(f float64) bool { return f == 3 || f == 4 }),
		TopSupportNeeds:     DescribeMultiselect(ds.Values(survey.FieldExternalSupport)).OptionCounts.Top(topFindingItems),
	}
}
