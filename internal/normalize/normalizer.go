package normalize

import (
	"strings"

	"embsurvey/domain/survey"
	"embsurvey/internal/errors"
	"embsurvey/internal/instrument"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// DefaultCompletionThreshold is the minimum completion percentage of a "complete" response
const DefaultCompletionThreshold = 15.0

// Normalizer canonicalizes countries, assigns regions and scores completion
type Normalizer struct {
	registry *instrument.Registry
	log      *zap.Logger
}

// NewNormalizer creates a normalizer over the registry's country and region tables
func NewNormalizer(registry *instrument.Registry, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{registry: registry, log: log.Named("normalize")}
}

// CleanCountryName applies the known-typo table; unmapped names pass through
// trimmed and in NFC form
func (n *Normalizer) CleanCountryName(country string) string {
	c := norm.NFC.String(strings.TrimSpace(country))
	if fixed, ok := n.registry.CountryFixes[c]; ok {
		return fixed
	}
	// the raw export also carries untrimmed variants, e.g. "Antigua "
	if fixed, ok := n.registry.CountryFixes[country]; ok {
		return fixed
	}
	return c
}

// Region returns the region of a country: the cleaned name is tried first,
// then the original spelling. Countries in no list fall into the "Other"
// region; a missing country has no region.
func (n *Normalizer) Region(country survey.Value) survey.Value {
	raw, ok := country.Text()
	if !ok {
		return survey.Null
	}
	if r := n.registry.RegionOf(n.CleanCountryName(raw)); r != "" {
		return survey.TextValue(r)
	}
	if r := n.registry.RegionOf(raw); r != "" {
		return survey.TextValue(r)
	}
	return survey.TextValue(n.registry.OtherRegion)
}

// CompletionScore is the percentage of non-blank cells across all raw columns
func CompletionScore(row []string, width int) float64 {
	if width <= 0 {
		return 0
	}
	answered := 0
	for i := 0; i < width && i < len(row); i++ {
		if !survey.IsBlank(row[i]) {
			answered++
		}
	}
	return float64(answered) / float64(width) * 100
}

// Apply appends country, region and completion fields to every respondent.
// country and region are only appended when the extractor produced
// country_raw; a country column lost to schema drift leaves them out.
func (n *Normalizer) Apply(ds *survey.Dataset, table *survey.RawTable) error {
	others := 0
	for _, r := range ds.Respondents {
		var derived []field
		if r.Has(survey.FieldCountryRaw) {
			raw := r.Get(survey.FieldCountryRaw)
			country := survey.Null
			if s, ok := raw.Text(); ok {
				country = survey.TextValue(n.CleanCountryName(s))
			}
			region := n.Region(raw)
			if s, ok := region.Text(); ok && s == n.registry.OtherRegion {
				others++
				n.log.Debug("country matched no region",
					zap.String("respondent", r.ID),
					zap.String("country", country.String()))
			}
			derived = append(derived, field{survey.FieldCountry, country}, field{survey.FieldRegion, region})
		}

		var row []string
		if r.Row < len(table.Rows) {
			row = table.Rows[r.Row]
		}
		derived = append(derived, field{survey.FieldCompletion, survey.FloatValue(CompletionScore(row, table.Width()))})

		for _, f := range derived {
			if err := r.Append(f.name, f.v); err != nil {
				return errors.Wrap(err, "normalize respondent")
			}
		}
	}
	ds.RefreshColumns()

	n.log.Info("respondents normalized",
		zap.Int("respondents", ds.Len()),
		zap.Int("other_region", others))
	return nil
}

type field struct {
	name string
	v    survey.Value
}

// Complete returns a fresh dataset of respondents at or above the threshold
func Complete(ds *survey.Dataset, threshold float64) *survey.Dataset {
	return ds.Filter(func(r *survey.Respondent) bool {
		score, ok := r.Get(survey.FieldCompletion).Number()
		return ok && score >= threshold
	})
}
