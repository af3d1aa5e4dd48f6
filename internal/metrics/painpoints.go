package metrics

import (
	"math"
	"sort"
	"strings"

	"embsurvey/domain/survey"

	"github.com/samber/lo"
)

// Pain-point domains, in the order they are reported
const (
	DomainCredentialVerification = "credential_verification"
	DomainTemporaryWorkforce     = "temporary_workforce"
	DomainTrainingSystems        = "training_systems"
	DomainDataSynchronization    = "data_synchronization"
	DomainInfrastructure         = "infrastructure"
)

// Domains lists every pain-point domain
var Domains = []string{
	DomainCredentialVerification,
	DomainTemporaryWorkforce,
	DomainTrainingSystems,
	DomainDataSynchronization,
	DomainInfrastructure,
}

// infrastructurePainLimitations adds budget constraints to the severe list
var infrastructurePainLimitations = append(append([]string(nil), SevereLimitations...), "Budget constraints")

const (
	confidenceCeiling = 5.0
	returnRateCeiling = 5.0
)

// ordinalRange is the code span of one answer scale. Integers that fell
// through the scale lookup are held to it before weighting.
type ordinalRange struct{ min, max float64 }

func (o ordinalRange) clamp(n float64) float64 {
	return math.Max(o.min, math.Min(o.max, n))
}

var (
	fraudRange      = ordinalRange{0, 4}
	staffTimeRange  = ordinalRange{1, 5}
	workforceRange  = ordinalRange{1, 4}
	returnRateRange = ordinalRange{1, 4}
	frequencyRange  = ordinalRange{0, 4}
	hoursRange      = ordinalRange{1, 5}
	confidenceRange = ordinalRange{1, 5}
	techLevelRange  = ordinalRange{0, maxTechLevel}
	incidentRange   = ordinalRange{0, 4}
)

// PainPointScore is one respondent's severity in one domain
type PainPointScore struct {
	RespondentID string  `json:"respondent_id"`
	Country      *string `json:"country"`
	Score        float64 `json:"score"`
}

// DomainSeverity aggregates a domain across respondents
type DomainSeverity struct {
	Scores   []PainPointScore `json:"scores"`
	AvgScore float64          `json:"avg_score"`
	MaxScore float64          `json:"max_score"`
}

// AreaRank is one entry of the global severity ordering
type AreaRank struct {
	Area        string  `json:"area"`
	AvgSeverity float64 `json:"avg_severity"`
}

// PainPoints is the full pain-point report
type PainPoints struct {
	Domains     map[string]DomainSeverity `json:"domains"`
	AreaRanking []AreaRank                `json:"area_ranking"`
}

// signalSum accumulates weighted signals and remembers whether any was present
type signalSum struct {
	score     float64
	available bool
}

func (s *signalSum) add(v survey.Value, rng ordinalRange, f func(float64) float64) {
	if n, ok := v.Number(); ok {
		s.score += f(rng.clamp(n))
		s.available = true
	}
}

func (s *signalSum) count(v survey.Value, keep func(string) bool, weight float64) {
	if v.IsNull() {
		return
	}
	s.available = true
	s.score += float64(lo.CountBy(v.Labels(), keep)) * weight
}

// PainPointScores computes every domain score for one respondent. A domain
// is absent from the result when none of its signals were answered. Scores
// are never negative.
func PainPointScores(r *survey.Respondent) map[string]float64 {
	out := make(map[string]float64, len(Domains))

	var cred signalSum
	cred.add(r.Get(survey.FieldFraudIncidents), fraudRange, func(n float64) float64 { return n * 2 })
	cred.add(r.Get(survey.FieldVerificationHours), staffTimeRange, func(n float64) float64 { return (n - 1) * 1.5 })
	cred.count(r.Get(survey.FieldCredentialChallenges), func(c string) bool {
		return c != "" && !strings.Contains(c, "No significant") && !strings.Contains(c, "Less than")
	}, 1)
	if cred.available {
		out[DomainCredentialVerification] = cred.score
	}

	var work signalSum
	work.add(r.Get(survey.FieldTempWorkforcePct), workforceRange, func(n float64) float64 { return n * 1.5 })
	work.add(r.Get(survey.FieldWorkerReturnRate), returnRateRange, func(n float64) float64 { return (returnRateCeiling - n) * 1.5 })
	work.count(r.Get(survey.FieldWorkforceChallenges), func(c string) bool {
		return c != "" && c != "Other" && !strings.Contains(c, "None")
	}, 1)
	if work.available {
		out[DomainTemporaryWorkforce] = work.score
	}

	var train signalSum
	train.add(r.Get(survey.FieldTrainingFrequency), frequencyRange, func(n float64) float64 { return n * 2 })
	train.add(r.Get(survey.FieldHoursResolving), hoursRange, func(n float64) float64 { return n * 1.5 })
	train.add(r.Get(survey.FieldTrainingConfidence), confidenceRange, func(n float64) float64 { return (confidenceCeiling - n) * 1.5 })
	if train.available {
		out[DomainTrainingSystems] = train.score
	}

	var sync signalSum
	sync.add(r.Get(survey.FieldConflictingInfo), incidentRange, func(n float64) float64 { return n * 2 })
	sync.add(r.Get(survey.FieldSyncConfidence), confidenceRange, func(n float64) float64 { return (confidenceCeiling - n) * 1.5 })
	if st := r.Get(survey.FieldSyncTime); !st.IsNull() {
		sync.available = true
		text := st.String()
		if !strings.Contains(text, "Instantly") {
			sync.score += 2
		}
		if strings.Contains(strings.ToLower(text), "don't have") {
			sync.score += 3
		}
	}
	if sync.available {
		out[DomainDataSynchronization] = sync.score
	}

	var infra signalSum
	infra.count(r.Get(survey.FieldInfraLimitations), func(l string) bool {
		return lo.Contains(infrastructurePainLimitations, l)
	}, 2)
	for _, f := range survey.TechLevelFields {
		infra.add(r.Get(f), techLevelRange, func(n float64) float64 { return (maxTechLevel - n) * 0.5 })
	}
	if infra.available {
		out[DomainInfrastructure] = infra.score
	}

	for k, v := range out {
		out[k] = round2(v)
	}
	return out
}

// ComputePainPoints scores every respondent and ranks the domains by mean
// severity. Sorts are stable, so equal scores keep respondent order.
func ComputePainPoints(ds *survey.Dataset) PainPoints {
	perDomain := make(map[string][]PainPointScore, len(Domains))
	for _, r := range ds.Respondents {
		var country *string
		if s, ok := r.Get(survey.FieldCountry).Text(); ok {
			country = &s
		}
		for domain, score := range PainPointScores(r) {
			perDomain[domain] = append(perDomain[domain], PainPointScore{
				RespondentID: r.ID,
				Country:      country,
				Score:        score,
			})
		}
	}

	report := PainPoints{Domains: make(map[string]DomainSeverity, len(Domains))}
	for _, domain := range Domains {
		scores := perDomain[domain]
		sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })

		sev := DomainSeverity{Scores: scores}
		if len(scores) > 0 {
			sum := 0.0
			sev.MaxScore = scores[0].Score
			for _, s := range scores {
				sum += s.Score
			}
			sev.AvgScore = round2(sum / float64(len(scores)))
		}
		if sev.Scores == nil {
			sev.Scores = []PainPointScore{}
		}
		report.Domains[domain] = sev
		report.AreaRanking = append(report.AreaRanking, AreaRank{Area: domain, AvgSeverity: sev.AvgScore})
	}

	sort.SliceStable(report.AreaRanking, func(i, j int) bool {
		return report.AreaRanking[i].AvgSeverity > report.AreaRanking[j].AvgSeverity
	})
	return report
}
