package analysis

import (
	"embsurvey/domain/survey"
	"embsurvey/internal/metrics"

	"github.com/montanaflynn/stats"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Segment bounds on the maturity score
const (
	AdvancedThreshold = 7.0
	ModerateThreshold = 4.0
)

// SegmentMember is one respondent placed in a maturity segment
type SegmentMember struct {
	RespondentID    string       `json:"respondent_id"`
	Country         string       `json:"country"`
	Region          survey.Value `json:"region"`
	Score           float64      `json:"score"`
	TechRecruitment survey.Value `json:"tech_recruitment"`
	TechTraining    survey.Value `json:"tech_training"`
	FollowupWilling survey.Value `json:"followup_willing"`
}

// Segment is one maturity band and its members
type Segment struct {
	Name        string          `json:"name"`
	Min         float64         `json:"min"`
	Max         float64         `json:"max"`
	Respondents []SegmentMember `json:"respondents"`
	Count       int             `json:"count"`
	AvgScore    *float64        `json:"avg_score"`
	Countries   []string        `json:"countries"`
	Regions     Counts          `json:"regions"`
}

// ScoreDistribution summarizes maturity scores across all scored respondents
type ScoreDistribution struct {
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
}

// Segmentation is the infrastructure maturity segmentation
type Segmentation struct {
	Segments          []Segment         `json:"segments"`
	ScoreDistribution ScoreDistribution `json:"score_distribution"`
}

// SegmentName places a maturity score: advanced >=7, moderate [4,7), basic below
func SegmentName(score float64) string {
	switch {
	case score >= AdvancedThreshold:
		return "advanced"
	case score >= ModerateThreshold:
		return "moderate"
	default:
		return "basic"
	}
}

// SegmentByInfrastructure buckets respondents by maturity score. Respondents
// without a score or a country are not placed, but every score counts toward
// the distribution.
func SegmentByInfrastructure(ds *survey.Dataset) Segmentation {
	segments := []Segment{
		{Name: "advanced", Min: AdvancedThreshold, Max: 10},
		{Name: "moderate", Min: ModerateThreshold, Max: AdvancedThreshold},
		{Name: "basic", Min: 0, Max: ModerateThreshold},
	}
	index := map[string]int{"advanced": 0, "moderate": 1, "basic": 2}

	var scores []float64
	for _, r := range ds.Respondents {
		score, ok := metrics.InfrastructureScore(r).Number()
		if !ok {
			continue
		}
		scores = append(scores, score)

		country, ok := r.Get(survey.FieldCountry).Text()
		if !ok {
			continue
		}
		seg := &segments[index[SegmentName(score)]]
		seg.Respondents = append(seg.Respondents, SegmentMember{
			RespondentID:    r.ID,
			Country:         country,
			Region:          r.Get(survey.FieldRegion),
			Score:           score,
			TechRecruitment: r.Get(survey.FieldTechRecruitment),
			TechTraining:    r.Get(survey.FieldTechTraining),
			FollowupWilling: r.Get(survey.FieldFollowupWilling),
		})
	}

	for i := range segments {
		seg := &segments[i]
		seg.Count = len(seg.Respondents)
		seg.Countries = lo.Uniq(lo.Map(seg.Respondents, func(m SegmentMember, _ int) string { return m.Country }))
		var regions []survey.Value
		for _, m := range seg.Respondents {
			regions = append(regions, m.Region)
		}
		seg.Regions = CountValues(regions)
		if seg.Count > 0 {
			avg := stat.Mean(lo.Map(seg.Respondents, func(m SegmentMember, _ int) float64 { return m.Score }), nil)
			seg.AvgScore = ptr(round(avg, 2))
		}
		if seg.Respondents == nil {
			seg.Respondents = []SegmentMember{}
		}
	}

	return Segmentation{Segments: segments, ScoreDistribution: scoreDistribution(scores)}
}

func scoreDistribution(scores []float64) ScoreDistribution {
	var d ScoreDistribution
	if len(scores) == 0 {
		return d
	}
	median, _ := stats.Median(scores)
	lowest, _ := stats.Min(scores)
	highest, _ := stats.Max(scores)
	d.Mean = ptr(round(stat.Mean(scores, nil), 2))
	d.Median = ptr(round(median, 2))
	d.Min = ptr(round(lowest, 2))
	d.Max = ptr(round(highest, 2))
	return d
}
