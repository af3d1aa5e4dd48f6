package analysis

import (
	"math"
	"sort"
	"strconv"

	"embsurvey/domain/survey"

	"github.com/montanaflynn/stats"
)

// Count is one label and how often it occurred
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Counts is an ordered frequency table
type Counts []Count

// Top returns at most n leading entries
func (c Counts) Top(n int) Counts {
	if len(c) <= n {
		return c
	}
	return c[:n]
}

// Total sums all counts
func (c Counts) Total() int {
	total := 0
	for _, e := range c {
		total += e.Count
	}
	return total
}

// CountLabels tallies labels ordered by count descending, then first appearance
func CountLabels(labels []string) Counts {
	index := make(map[string]int)
	out := Counts{}
	for _, l := range labels {
		if i, ok := index[l]; ok {
			out[i].Count++
			continue
		}
		index[l] = len(out)
		out = append(out, Count{Label: l, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// CountValues tallies the rendered form of every answered value
func CountValues(values []survey.Value) Counts {
	var labels []string
	for _, v := range values {
		if !v.IsNull() {
			labels = append(labels, v.String())
		}
	}
	return CountLabels(labels)
}

// NumericSummary describes an ordinal or numeric field. Statistics are omitted
// when no value is numeric.
type NumericSummary struct {
	N            int      `json:"n"`
	Missing      int      `json:"missing"`
	MissingPct   float64  `json:"missing_pct"`
	Mean         *float64 `json:"mean,omitempty"`
	Median       *float64 `json:"median,omitempty"`
	Std          *float64 `json:"std,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Distribution Counts   `json:"distribution,omitempty"`
}

// DescribeNumeric summarizes the numeric values of a field. Non-numeric values
// count as missing. The distribution is keyed by scale label when one exists
// and ordered by value.
func DescribeNumeric(values []survey.Value, labels map[int]string) NumericSummary {
	var valid []float64
	for _, v := range values {
		if n, ok := v.Number(); ok {
			valid = append(valid, n)
		}
	}

	summary := NumericSummary{
		N:          len(valid),
		Missing:    len(values) - len(valid),
		MissingPct: percent(len(values)-len(valid), len(values), 1),
	}
	if len(valid) == 0 {
		return summary
	}

	mean, _ := stats.Mean(valid)
	median, _ := stats.Median(valid)
	lowest, _ := stats.Min(valid)
	highest, _ := stats.Max(valid)
	std := 0.0
	if len(valid) > 1 {
		std, _ = stats.StandardDeviationSample(valid)
	}

	summary.Mean = ptr(round(mean, 2))
	summary.Median = ptr(round(median, 2))
	summary.Std = ptr(round(std, 2))
	summary.Min = ptr(lowest)
	summary.Max = ptr(highest)
	summary.Distribution = distribution(valid, labels)
	return summary
}

func distribution(valid []float64, labels map[int]string) Counts {
	counts := make(map[float64]int)
	var keys []float64
	for _, v := range valid {
		if _, ok := counts[v]; !ok {
			keys = append(keys, v)
		}
		counts[v]++
	}
	sort.Float64s(keys)

	out := make(Counts, 0, len(keys))
	for _, k := range keys {
		label := strconv.FormatFloat(k, 'f', -1, 64)
		if k == math.Trunc(k) {
			if l, ok := labels[int(k)]; ok {
				label = l
			}
		}
		out = append(out, Count{Label: label, Count: counts[k]})
	}
	return out
}

// MultiselectSummary describes a multi-select field
type MultiselectSummary struct {
	N                        int     `json:"n"`
	Missing                  int     `json:"missing"`
	MissingPct               float64 `json:"missing_pct"`
	TotalSelections          int     `json:"total_selections"`
	AvgSelectionsPerResponse float64 `json:"avg_selections_per_response"`
	OptionCounts             Counts  `json:"option_counts"`
}

// DescribeMultiselect tallies selections across respondents. A bare text
// answer counts as a single selection.
func DescribeMultiselect(values []survey.Value) MultiselectSummary {
	var all []string
	answered := 0
	for _, v := range values {
		labels := v.Labels()
		if len(labels) == 0 {
			continue
		}
		answered++
		all = append(all, labels...)
	}

	return MultiselectSummary{
		N:                        answered,
		Missing:                  len(values) - answered,
		MissingPct:               percent(len(values)-answered, len(values), 1),
		TotalSelections:          len(all),
		AvgSelectionsPerResponse: round(float64(len(all))/float64(max(answered, 1)), 2),
		OptionCounts:             CountLabels(all),
	}
}

func percent(part, whole, places int) float64 {
	if whole == 0 {
		return 0
	}
	return round(float64(part)/float64(whole)*100, places)
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func ptr(f float64) *float64 { return &f }
