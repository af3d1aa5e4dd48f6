package analysis

import (
	"sort"
	"strings"
	"time"

	"embsurvey/domain/survey"
	"embsurvey/internal/instrument"

	"github.com/samber/lo"
)

// Analyzer computes descriptive statistics over normalized respondents.
// Scale labels come from the registry; a nil registry yields bare codes.
type Analyzer struct {
	registry *instrument.Registry
}

// NewAnalyzer creates an analyzer that labels distributions with the registry's scales
func NewAnalyzer(registry *instrument.Registry) *Analyzer {
	return &Analyzer{registry: registry}
}

func (a *Analyzer) labels(scale string) map[int]string {
	if a.registry == nil {
		return nil
	}
	if s, ok := a.registry.Scale(scale); ok {
		return s.Labels
	}
	return nil
}

func (a *Analyzer) numeric(ds *survey.Dataset, field, scale string) NumericSummary {
	return DescribeNumeric(ds.Values(field), a.labels(scale))
}

// NamedSummary pairs a matrix sub-item with its summary
type NamedSummary struct {
	Item    string         `json:"item"`
	Summary NumericSummary `json:"summary"`
}

// DateRange is the span of response timestamps
type DateRange struct {
	Earliest *string `json:"earliest"`
	Latest   *string `json:"latest"`
}

// Stats is a five-number style summary rounded to one decimal
type Stats struct {
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
}

// CountryList lists the distinct countries in first-seen order
type CountryList struct {
	UniqueCount int      `json:"unique_count"`
	List        []string `json:"list"`
}

// ResponseOverview describes the response set as a whole
type ResponseOverview struct {
	TotalRawResponses int         `json:"total_raw_responses"`
	TotalResponses    int         `json:"total_responses"`
	DateRange         DateRange   `json:"date_range"`
	Completion        Stats       `json:"completion"`
	Countries         CountryList `json:"countries"`
	Regions           Counts      `json:"regions"`
	FollowupWilling   Counts      `json:"followup_willing"`
}

// CredentialVerification summarizes the credential section
type CredentialVerification struct {
	FraudIncidents    NumericSummary     `json:"fraud_incidents"`
	VerificationHours NumericSummary     `json:"verification_hours"`
	Challenges        MultiselectSummary `json:"challenges"`
}

// TemporaryWorkforce summarizes the workforce section
type TemporaryWorkforce struct {
	WorkforcePercentage NumericSummary     `json:"workforce_percentage"`
	Challenges          MultiselectSummary `json:"challenges"`
}

// TrainingSystems summarizes the training section
type TrainingSystems struct {
	VerificationFrequency NumericSummary `json:"verification_frequency"`
	HoursResolving        NumericSummary `json:"hours_resolving"`
	SystemConfidence      NumericSummary `json:"system_confidence"`
	LostRecordHandling    Counts         `json:"lost_record_handling"`
}

// Documentation summarizes documentation methods and confidence
type Documentation struct {
	Methods    MultiselectSummary `json:"methods"`
	Confidence []NamedSummary     `json:"confidence"`
}

// DataSynchronization summarizes the sync section
type DataSynchronization struct {
	ConflictingInfoFrequency  NumericSummary `json:"conflicting_info_frequency"`
	ProvisionalBallotTracking Counts         `json:"provisional_ballot_tracking"`
	SyncTime                  Counts         `json:"sync_time"`
	SyncConfidence            NumericSummary `json:"sync_confidence"`
}

// TechnologyInfrastructure summarizes tech levels and limitations
type TechnologyInfrastructure struct {
	Levels      []NamedSummary     `json:"levels"`
	Limitations MultiselectSummary `json:"limitations"`
}

// WorkforceRetention summarizes return rates and retention drivers
type WorkforceRetention struct {
	ReturnRate           NumericSummary     `json:"return_rate"`
	TechnologiesExplored MultiselectSummary `json:"technologies_explored"`
	RetentionImpact      []NamedSummary     `json:"retention_impact"`
	WorkerInterest       NumericSummary     `json:"worker_interest"`
}

// ExternalSupport summarizes requested support
type ExternalSupport struct {
	SupportNeeded MultiselectSummary `json:"support_needed"`
}

// SummaryStats is the full descriptive summary of the complete response set
type SummaryStats struct {
	ResponseOverview         ResponseOverview         `json:"response_overview"`
	CredentialVerification   CredentialVerification   `json:"credential_verification"`
	TemporaryWorkforce       TemporaryWorkforce       `json:"temporary_workforce"`
	TrainingSystems          TrainingSystems          `json:"training_systems"`
	Documentation            Documentation            `json:"documentation"`
	DataSynchronization      DataSynchronization      `json:"data_synchronization"`
	TechnologyInfrastructure TechnologyInfrastructure `json:"technology_infrastructure"`
	WorkforceRetention       WorkforceRetention       `json:"workforce_retention"`
	ExternalSupport          ExternalSupport          `json:"external_support"`
}

// retention matrix columns that belong to the interest question
var retentionExclusions = []string{"requested", "mentioned", "discussed"}

// Summarize describes the complete respondents; all carries the unfiltered
// count for the overview
func (a *Analyzer) Summarize(complete, all *survey.Dataset) SummaryStats {
	return SummaryStats{
		ResponseOverview: a.Overview(complete, all),
		CredentialVerification: CredentialVerification{
			FraudIncidents:    a.numeric(complete, survey.FieldFraudIncidents, "fraud_incidents"),
			VerificationHours: a.numeric(complete, survey.FieldVerificationHours, "staff_time"),
			Challenges:        DescribeMultiselect(complete.Values(survey.FieldCredentialChallenges)),
		},
		TemporaryWorkforce: TemporaryWorkforce{
			WorkforcePercentage: a.numeric(complete, survey.FieldTempWorkforcePct, "workforce_percentage"),
			Challenges:          DescribeMultiselect(complete.Values(survey.FieldWorkforceChallenges)),
		},
		TrainingSystems: TrainingSystems{
			VerificationFrequency: a.numeric(complete, survey.FieldTrainingFrequency, "frequency"),
			HoursResolving:        a.numeric(complete, survey.FieldHoursResolving, "hours_resolving"),
			SystemConfidence:      a.numeric(complete, survey.FieldTrainingConfidence, "likert_confidence"),
			LostRecordHandling:    CountValues(complete.Values(survey.FieldLostRecordHandling)),
		},
		Documentation: Documentation{
			Methods:    DescribeMultiselect(complete.Values(survey.FieldDocumentationMethods)),
			Confidence: a.matrix(complete, survey.FieldDocConfidencePrefix, "likert_confidence", nil),
		},
		DataSynchronization: DataSynchronization{
			ConflictingInfoFrequency:  a.numeric(complete, survey.FieldConflictingInfo, "frequency_incidents"),
			ProvisionalBallotTracking: CountValues(complete.Values(survey.FieldProvisionalBallots)),
			SyncTime:                  CountValues(complete.Values(survey.FieldSyncTime)),
			SyncConfidence:            a.numeric(complete, survey.FieldSyncConfidence, "likert_confidence"),
		},
		TechnologyInfrastructure: TechnologyInfrastructure{
			Levels:      a.techLevels(complete),
			Limitations: DescribeMultiselect(complete.Values(survey.FieldInfraLimitations)),
		},
		WorkforceRetention: WorkforceRetention{
			ReturnRate:           a.numeric(complete, survey.FieldWorkerReturnRate, "return_rate"),
			TechnologiesExplored: DescribeMultiselect(complete.Values(survey.FieldTechnologiesExplored)),
			RetentionImpact:      a.matrix(complete, survey.FieldRetentionImpactPrefix, "likert_impact", retentionExclusions),
			WorkerInterest:       a.numeric(complete, survey.FieldWorkerInterest, "worker_interest"),
		},
		ExternalSupport: ExternalSupport{
			SupportNeeded: DescribeMultiselect(complete.Values(survey.FieldExternalSupport)),
		},
	}
}

func (a *Analyzer) techLevels(ds *survey.Dataset) []NamedSummary {
	out := []NamedSummary{}
	for _, f := range survey.TechLevelFields {
		if !ds.HasColumn(f) {
			continue
		}
		out = append(out, NamedSummary{
			Item:    strings.TrimPrefix(f, "tech_level_"),
			Summary: a.numeric(ds, f, "tech_level"),
		})
	}
	return out
}

// matrix summarizes every column carrying the prefix, in column order
func (a *Analyzer) matrix(ds *survey.Dataset, prefix, scale string, exclude []string) []NamedSummary {
	out := []NamedSummary{}
	for _, col := range ds.Columns {
		if !strings.HasPrefix(col, prefix) {
			continue
		}
		if lo.SomeBy(exclude, func(x string) bool { return strings.Contains(col, x) }) {
			continue
		}
		out = append(out, NamedSummary{
			Item:    strings.TrimPrefix(col, prefix),
			Summary: a.numeric(ds, col, scale),
		})
	}
	return out
}

// Overview counts responses, countries and regions and spans the dates
func (a *Analyzer) Overview(complete, all *survey.Dataset) ResponseOverview {
	var countries []string
	for _, v := range complete.Values(survey.FieldCountry) {
		if s, ok := v.Text(); ok {
			countries = append(countries, s)
		}
	}
	countries = lo.Uniq(countries)

	return ResponseOverview{
		TotalRawResponses: all.Len(),
		TotalResponses:    complete.Len(),
		DateRange:         dateRange(complete),
		Completion:        DescribeStats(numbers(complete.Values(survey.FieldCompletion)), 1),
		Countries:         CountryList{UniqueCount: len(countries), List: countries},
		Regions:           CountValues(complete.Values(survey.FieldRegion)),
		FollowupWilling:   CountValues(complete.Values(survey.FieldFollowupWilling)),
	}
}

func dateRange(ds *survey.Dataset) DateRange {
	var starts, ends []time.Time
	for _, r := range ds.Respondents {
		if t, ok := r.Get(survey.FieldStartDate).Time(); ok {
			starts = append(starts, t)
		}
		if t, ok := r.Get(survey.FieldEndDate).Time(); ok {
			ends = append(ends, t)
		}
	}

	var dr DateRange
	if len(starts) > 0 {
		sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
		s := starts[0].Format(time.RFC3339)
		dr.Earliest = &s
	}
	if len(ends) > 0 {
		sort.Slice(ends, func(i, j int) bool { return ends[i].Before(ends[j]) })
		s := ends[len(ends)-1].Format(time.RFC3339)
		dr.Latest = &s
	}
	return dr
}

func numbers(values []survey.Value) []float64 {
	var out []float64
	for _, v := range values {
		if n, ok := v.Number(); ok {
			out = append(out, n)
		}
	}
	return out
}
