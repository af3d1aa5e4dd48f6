package metrics

import (
	"math"

	"embsurvey/domain/survey"

	"github.com/samber/lo"
)

// SevereLimitations are the limitations that reduce infrastructure maturity
var SevereLimitations = []string{
	"Unreliable electricity",
	"Limited internet connectivity",
	"Lack of computers/devices",
	"Insufficient IT support",
}

const (
	maxTechLevel       = 3.0
	techComponentScale = 6.0
	limitationOffset   = 4
)

// InfrastructureScore rates maturity on 0-10: the mean technology level
// rescaled to 0-6 plus four points less one per severe limitation. Missing
// technology levels are skipped; with none available the score is Null.
func InfrastructureScore(r *survey.Respondent) survey.Value {
	var levels []float64
	for _, f := range survey.TechLevelFields {
		if v, ok := r.Get(f).Number(); ok {
			levels = append(levels, techLevelRange.clamp(v))
		}
	}
	if len(levels) == 0 {
		return survey.Null
	}

	avg := lo.Sum(levels) / float64(len(levels))
	tech := avg / maxTechLevel * techComponentScale

	limitations := r.Get(survey.FieldInfraLimitations).Labels()
	severe := lo.CountBy(limitations, func(l string) bool {
		return lo.Contains(SevereLimitations, l)
	})
	offset := limitationOffset - severe
	if offset < 0 {
		offset = 0
	}

	return survey.FloatValue(round2(tech + float64(offset)))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
