package header

import (
	"strings"
)

var multiselectMarkers = []string{
	"select all that apply",
	"select up to",
	"select all",
	"rank top",
}

var confidenceTerms = []string{"unconfident", "confident", "neutral"}

// IsMultiselect reports whether the question wording marks a multi-select.
// This is a wording heuristic for one known instrument, not a guarantee.
func IsMultiselect(question string) bool {
	q := strings.ToLower(question)
	for _, m := range multiselectMarkers {
		if strings.Contains(q, m) {
			return true
		}
	}
	return false
}

// IsLikertConfidence reports whether any option uses confidence vocabulary
func IsLikertConfidence(options []string) bool {
	for _, o := range options {
		lo := strings.ToLower(o)
		for _, t := range confidenceTerms {
			if strings.Contains(lo, t) {
				return true
			}
		}
	}
	return false
}

// IsLikertImpact reports whether any option uses impact vocabulary
func IsLikertImpact(options []string) bool {
	for _, o := range options {
		if strings.Contains(strings.ToLower(o), "impact") {
			return true
		}
	}
	return false
}

// SplitMatrixOption splits "<item> - <rating>" on the last separator.
// Options without the separator use the whole text for both parts.
func SplitMatrixOption(option string) (item, rating string) {
	if i := strings.LastIndex(option, " - "); i >= 0 {
		return strings.TrimSpace(option[:i]), strings.TrimSpace(option[i+3:])
	}
	return option, option
}

// NormalizeItemKey turns a sub-item label into a field-name fragment
func NormalizeItemKey(item string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(item)), " ", "_")
}
