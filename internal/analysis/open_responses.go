package analysis

import (
	"strings"

	"embsurvey/domain/survey"
)

// OpenTextSuffix marks free-text fields in the instrument schema
const OpenTextSuffix = "_text"

// OpenResponses extracts identifier, country, free-text and priority answers.
// Only answered fields are kept, and respondents with no free-text or
// priority answer are left out.
func OpenResponses(ds *survey.Dataset) []*survey.Respondent {
	var fields []string
	for _, col := range ds.Columns {
		if strings.HasSuffix(col, OpenTextSuffix) {
			fields = append(fields, col)
		}
	}
	for _, col := range survey.PriorityFields {
		if ds.HasColumn(col) {
			fields = append(fields, col)
		}
	}

	out := []*survey.Respondent{}
	for _, r := range ds.Respondents {
		rec := survey.NewRespondent(r.ID, r.Row)
		rec.Set(survey.FieldRespondentID, r.Get(survey.FieldRespondentID))
		if c := r.Get(survey.FieldCountry); !c.IsNull() {
			rec.Set(survey.FieldCountry, c)
		}

		answered := false
		for _, f := range fields {
			v := r.Get(f)
			if v.IsNull() {
				continue
			}
			rec.Set(f, v)
			answered = true
		}
		if answered {
			out = append(out, rec)
		}
	}
	return out
}
