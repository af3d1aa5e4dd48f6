package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"embsurvey/domain/survey"
	"embsurvey/internal/errors"

	"github.com/samber/lo"
)

// Band is a pilot suitability band
type Band string

const (
	BandHigh              Band = "HIGH"
	BandMedium            Band = "MEDIUM"
	BandLowInfrastructure Band = "LOW - Infrastructure"
	BandLowLimitedNeed    Band = "LOW - Limited Need"
	BandLow               Band = "LOW"
)

const (
	defaultCapabilityScore = 5.0
	maxNeedScore           = 10.0
	maxCapabilityScore     = 10.0
	maxWillingnessScore    = 5.0
	topCandidates          = 5
)

// IsLow reports whether the band is one of the LOW variants
func (b Band) IsLow() bool { return strings.HasPrefix(string(b), string(BandLow)) }

// Composite weights
const (
	NeedWeight        = 0.4
	CapabilityWeight  = 0.35
	WillingnessWeight = 0.25
)

const (
	techBlockchain = "Blockchain/Distributed Ledger Technology"
	techBiometric  = "Biometric systems/Digital identity solutions"
	techNone       = "None of the above"

	followupYes   = "Yes"
	followupMaybe = "Contact me with more information"
)

var (
	relevantChallengeTerms = []string{"centralised", "verification", "fraud", "remote"}
	capabilityBlockers     = []string{"Unreliable electricity", "Limited internet connectivity"}
)

// ScaleContext carries the respondent's self-reported size, as answered
type ScaleContext struct {
	TempWorkersCount  survey.Value `json:"temp_workers_count"`
	ElectionsAnnually survey.Value `json:"elections_annually"`
}

// Candidate is one assessed pilot candidate
type Candidate struct {
	RespondentID          string       `json:"respondent_id"`
	Country               string       `json:"country"`
	Region                survey.Value `json:"region"`
	CompositeScore        float64      `json:"composite_score"`
	NeedScore             float64      `json:"need_score"`
	CapabilityScore       float64      `json:"capability_score"`
	WillingnessScore      float64      `json:"willingness_score"`
	Suitability           Band         `json:"suitability"`
	NeedComponents        []string     `json:"need_components"`
	CapabilityComponents  []string     `json:"capability_components"`
	WillingnessComponents []string     `json:"willingness_components"`
	Scale                 ScaleContext `json:"scale"`
}

// CandidateSummary is the short form used in the top list
type CandidateSummary struct {
	Country        string       `json:"country"`
	Region         survey.Value `json:"region"`
	CompositeScore float64      `json:"composite_score"`
	Suitability    Band         `json:"suitability"`
}

// PilotSummary counts candidates per band
type PilotSummary struct {
	TotalAssessed int                `json:"total_assessed"`
	HighCount     int                `json:"high_potential_count"`
	MediumCount   int                `json:"medium_potential_count"`
	LowCount      int                `json:"low_potential_count"`
	TopCandidates []CandidateSummary `json:"top_5_candidates"`
}

// Methodology documents the scoring rules alongside the results
type Methodology struct {
	NeedScore           string            `json:"need_score"`
	CapabilityScore     string            `json:"capability_score"`
	WillingnessScore    string            `json:"willingness_score"`
	CompositeFormula    string            `json:"composite_formula"`
	SuitabilityCriteria map[string]string `json:"suitability_criteria"`
}

// PilotReport is the ranked candidate list and its categorisation
type PilotReport struct {
	AllCandidates   []Candidate  `json:"all_candidates"`
	HighPotential   []Candidate  `json:"high_potential"`
	MediumPotential []Candidate  `json:"medium_potential"`
	LowPotential    []Candidate  `json:"low_potential"`
	Summary         PilotSummary `json:"summary"`
	Methodology     Methodology  `json:"scoring_methodology"`
}

// ScoringMethodology describes the fixed pilot scoring rules
func ScoringMethodology() Methodology {
	return Methodology{
		NeedScore:        "Pain points in credential verification, training records and worker tracking. Scale 0-10.",
		CapabilityScore:  "Infrastructure readiness based on tech levels and limitations. Scale 0-10.",
		WillingnessScore: "Interest indicators (follow-up, tech exploration, worker interest). Scale 0-5.",
		CompositeFormula: "(Need * 0.4) + (Capability * 0.35) + (Willingness_normalized * 0.25)",
		SuitabilityCriteria: map[string]string{
			string(BandHigh):   "Need >= 5, Capability >= 5, Willingness >= 3",
			string(BandMedium): "Need >= 3, Capability >= 4, Willingness >= 2",
			string(BandLow):    "Does not meet MEDIUM criteria or has blocking infrastructure issues",
		},
	}
}

// Suitability assigns the band by first match: HIGH, MEDIUM, then the
// infrastructure blocker, then limited need, then plain LOW
func Suitability(need, capability, willingness float64) Band {
	switch {
	case need >= 5 && capability >= 5 && willingness >= 3:
		return BandHigh
	case need >= 3 && capability >= 4 && willingness >= 2:
		return BandMedium
	case capability < 3:
		return BandLowInfrastructure
	case need < 2:
		return BandLowLimitedNeed
	default:
		return BandLow
	}
}

// Composite combines the sub-scores; willingness is rescaled to 0-10 first
func Composite(need, capability, willingness float64) float64 {
	return round2(need*NeedWeight + capability*CapabilityWeight + (willingness/maxWillingnessScore*10)*WillingnessWeight)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NeedScore sums capped pain signals that credential tracking would address
func NeedScore(r *survey.Respondent) (float64, []string) {
	score := 0.0
	components := []string{}

	if fraud, ok := r.Get(survey.FieldFraudIncidents).Number(); ok && fraud > 0 {
		score += min(fraud, 3)
		components = append(components, "fraud_incidents:"+formatNumber(fraud))
	}

	if hours, ok := r.Get(survey.FieldVerificationHours).Number(); ok && hours > 1 {
		score += min((hours-1)*0.5, 1.5)
		components = append(components, "verification_hours:"+formatNumber(hours))
	}

	relevant := lo.CountBy(r.Get(survey.FieldCredentialChallenges).Labels(), func(c string) bool {
		lower := strings.ToLower(c)
		return lo.SomeBy(relevantChallengeTerms, func(term string) bool {
			return strings.Contains(lower, term)
		})
	})
	score += min(float64(relevant)*0.5, 1.5)
	if relevant > 0 {
		components = append(components, fmt.Sprintf("challenges:%d", relevant))
	}

	if freq, ok := r.Get(survey.FieldTrainingFrequency).Number(); ok && freq > 1 {
		score += min(freq*0.5, 1.5)
		components = append(components, "training_freq:"+formatNumber(freq))
	}

	if conf, ok := r.Get(survey.FieldTrainingConfidence).Number(); ok && conf < 4 {
		score += min((4-conf)*0.5, 1.5)
		components = append(components, "low_train_conf:"+formatNumber(conf))
	}

	if interest, ok := r.Get(survey.FieldWorkerInterest).Number(); ok && interest >= 3 {
		score++
		components = append(components, "worker_interest:"+formatNumber(interest))
	}

	return min(round2(score), maxNeedScore), components
}

// CapabilityScore starts from infrastructure maturity and credits prior
// exploration of ledger and biometric technology
func CapabilityScore(r *survey.Respondent) (float64, []string) {
	score := defaultCapabilityScore
	if v, ok := InfrastructureScore(r).Number(); ok {
		score = v
	}
	components := []string{}

	limitations := r.Get(survey.FieldInfraLimitations).Labels()
	if blockers := lo.CountBy(limitations, func(l string) bool {
		return lo.Contains(capabilityBlockers, l)
	}); blockers > 0 {
		components = append(components, fmt.Sprintf("blockers:%d", blockers))
	}

	explored := r.Get(survey.FieldTechnologiesExplored).Labels()
	if lo.Contains(explored, techBlockchain) {
		score = min(score+1, maxCapabilityScore)
		components = append(components, "blockchain_explored")
	}
	if lo.Contains(explored, techBiometric) {
		score = min(score+0.5, maxCapabilityScore)
		components = append(components, "biometric_explored")
	}

	return round2(score), components
}

// WillingnessScore rates openness to a pilot on 0-5
func WillingnessScore(r *survey.Respondent) (float64, []string) {
	score := 0.0
	components := []string{}

	followup, _ := r.Get(survey.FieldFollowupWilling).Text()
	switch followup {
	case followupYes:
		score += 3
		components = append(components, "followup_yes")
	case followupMaybe:
		score += 2
		components = append(components, "followup_maybe")
	}

	explored := r.Get(survey.FieldTechnologiesExplored).Labels()
	if lo.SomeBy(explored, func(t string) bool { return t != techNone && t != "" }) {
		score++
		components = append(components, fmt.Sprintf("tech_explored:%d", len(explored)))
	}

	if interest, ok := r.Get(survey.FieldWorkerInterest).Number(); ok && interest >= 3 {
		score++
		components = append(components, "worker_interest")
	}

	return min(score, maxWillingnessScore), components
}

// Assess scores one respondent. Respondents without a country are not assessed.
func Assess(r *survey.Respondent) (Candidate, bool) {
	country, ok := r.Get(survey.FieldCountry).Text()
	if !ok {
		return Candidate{}, false
	}

	need, needParts := NeedScore(r)
	capability, capabilityParts := CapabilityScore(r)
	willingness, willingnessParts := WillingnessScore(r)

	return Candidate{
		RespondentID:          r.ID,
		Country:               country,
		Region:                r.Get(survey.FieldRegion),
		CompositeScore:        Composite(need, capability, willingness),
		NeedScore:             need,
		CapabilityScore:       capability,
		WillingnessScore:      willingness,
		Suitability:           Suitability(need, capability, willingness),
		NeedComponents:        needParts,
		CapabilityComponents:  capabilityParts,
		WillingnessComponents: willingnessParts,
		Scale: ScaleContext{
			TempWorkersCount:  r.Get(survey.FieldTempWorkersCount),
			ElectionsAnnually: r.Get(survey.FieldElectionsAnnually),
		},
	}, true
}

// RankCandidates assesses every respondent and ranks them by composite score.
// Ties keep respondent order.
func RankCandidates(ds *survey.Dataset) PilotReport {
	all := []Candidate{}
	for _, r := range ds.Respondents {
		if c, ok := Assess(r); ok {
			all = append(all, c)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CompositeScore > all[j].CompositeScore })

	report := PilotReport{
		AllCandidates:   all,
		HighPotential:   lo.Filter(all, func(c Candidate, _ int) bool { return c.Suitability == BandHigh }),
		MediumPotential: lo.Filter(all, func(c Candidate, _ int) bool { return c.Suitability == BandMedium }),
		LowPotential:    lo.Filter(all, func(c Candidate, _ int) bool { return c.Suitability.IsLow() }),
		Methodology:     ScoringMethodology(),
	}

	top := all
	if len(top) > topCandidates {
		top = top[:topCandidates]
	}
	report.Summary = PilotSummary{
		TotalAssessed: len(all),
		HighCount:     len(report.HighPotential),
		MediumCount:   len(report.MediumPotential),
		LowCount:      len(report.LowPotential),
		TopCandidates: lo.Map(top, func(c Candidate, _ int) CandidateSummary {
			return CandidateSummary{
				Country:        c.Country,
				Region:         c.Region,
				CompositeScore: c.CompositeScore,
				Suitability:    c.Suitability,
			}
		}),
	}
	return report
}

// AnnotateScores appends the maturity score to every respondent and the pilot
// sub-scores to every assessed respondent. Existing fields are never rewritten.
func AnnotateScores(ds *survey.Dataset) error {
	for _, r := range ds.Respondents {
		if err := r.Append(survey.FieldInfrastructureScore, InfrastructureScore(r)); err != nil {
			return errors.Wrap(err, "annotate infrastructure score")
		}

		c, ok := Assess(r)
		if !ok {
			continue
		}
		for _, f := range []struct {
			name string
			v    survey.Value
		}{
			{survey.FieldNeedScore, survey.FloatValue(c.NeedScore)},
			{survey.FieldCapabilityScore, survey.FloatValue(c.CapabilityScore)},
			{survey.FieldWillingnessScore, survey.FloatValue(c.WillingnessScore)},
			{survey.FieldCompositeScore, survey.FloatValue(c.CompositeScore)},
			{survey.FieldSuitability, survey.TextValue(string(c.Suitability))},
		} {
			if err := r.Append(f.name, f.v); err != nil {
				return errors.Wrap(err, "annotate pilot scores")
			}
		}
	}
	ds.RefreshColumns()
	return nil
}
