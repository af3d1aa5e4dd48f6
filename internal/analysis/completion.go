package analysis

import (
	"sort"

	"embsurvey/domain/survey"

	"github.com/montanaflynn/stats"
	"github.com/samber/lo"
)

// Missing-data thresholds, in percent
const (
	HighMissingPct     = 50.0
	ModerateMissingPct = 25.0
)

// metadata fields left out of the missing-data report
var missingReportSkip = []string{
	survey.FieldRespondentID,
	survey.FieldCollectorID,
	survey.FieldStartDate,
	survey.FieldEndDate,
	survey.FieldCountryRaw,
}

// ColumnMissing is the missing share of one column
type ColumnMissing struct {
	Column       string  `json:"column"`
	MissingCount int     `json:"missing_count"`
	MissingPct   float64 `json:"missing_pct"`
}

// MissingDataReport lists columns with any missing answers, most missing first
type MissingDataReport struct {
	ByColumn               []ColumnMissing `json:"by_column"`
	HighMissingColumns     []string        `json:"high_missing_columns"`
	ModerateMissingColumns []string        `json:"moderate_missing_columns"`
}

// RegionMean is a per-region average
type RegionMean struct {
	Region string  `json:"region"`
	Mean   float64 `json:"mean"`
}

// CompletionAnalysis describes how thoroughly the survey was answered
type CompletionAnalysis struct {
	CompletionStats    Stats             `json:"completion_stats"`
	MissingData        MissingDataReport `json:"missing_data"`
	CompletionByRegion []RegionMean      `json:"completion_by_region"`
}

// DescribeStats summarizes values rounded to the given places. Std is the
// sample deviation and is absent for fewer than two values.
func DescribeStats(values []float64, places int) Stats {
	var s Stats
	if len(values) == 0 {
		return s
	}
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	lowest, _ := stats.Min(values)
	highest, _ := stats.Max(values)
	s.Mean = ptr(round(mean, places))
	s.Median = ptr(round(median, places))
	s.Min = ptr(round(lowest, places))
	s.Max = ptr(round(highest, places))
	if len(values) > 1 {
		std, _ := stats.StandardDeviationSample(values)
		s.Std = ptr(round(std, places))
	}
	return s
}

// MissingData reports the share of Null values per column
func MissingData(ds *survey.Dataset) MissingDataReport {
	report := MissingDataReport{
		ByColumn:               []ColumnMissing{},
		HighMissingColumns:     []string{},
		ModerateMissingColumns: []string{},
	}
	if ds.Len() == 0 {
		return report
	}

	for _, col := range ds.Columns {
		if lo.Contains(missingReportSkip, col) {
			continue
		}
		missing := lo.CountBy(ds.Values(col), func(v survey.Value) bool { return v.IsNull() })
		pct := percent(missing, ds.Len(), 1)
		if pct > 0 {
			report.ByColumn = append(report.ByColumn, ColumnMissing{Column: col, MissingCount: missing, MissingPct: pct})
		}
	}
	sort.SliceStable(report.ByColumn, func(i, j int) bool {
		return report.ByColumn[i].MissingPct > report.ByColumn[j].MissingPct
	})

	for _, c := range report.ByColumn {
		switch {
		case c.MissingPct > HighMissingPct:
			report.HighMissingColumns = append(report.HighMissingColumns, c.Column)
		case c.MissingPct > ModerateMissingPct:
			report.ModerateMissingColumns = append(report.ModerateMissingColumns, c.Column)
		}
	}
	return report
}

// Completion builds the completion analysis of the given respondents
func Completion(ds *survey.Dataset) CompletionAnalysis {
	return CompletionAnalysis{
		CompletionStats:    DescribeStats(numbers(ds.Values(survey.FieldCompletion)), 1),
		MissingData:        MissingData(ds),
		CompletionByRegion: completionByRegion(ds),
	}
}

// completionByRegion averages completion per region, regions sorted by name
func completionByRegion(ds *survey.Dataset) []RegionMean {
	byRegion := make(map[string][]float64)
	for _, r := range ds.Respondents {
		region, ok := r.Get(survey.FieldRegion).Text()
		if !ok {
			continue
		}
		if score, ok := r.Get(survey.FieldCompletion).Number(); ok {
			byRegion[region] = append(byRegion[region], score)
		}
	}

	regions := lo.Keys(byRegion)
	sort.Strings(regions)
	out := make([]RegionMean, 0, len(regions))
	for _, region := range regions {
		mean, _ := stats.Mean(byRegion[region])
		out = append(out, RegionMean{Region: region, Mean: round(mean, 1)})
	}
	return out
}
