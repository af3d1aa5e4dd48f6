package export

import (
	"embsurvey/domain/survey"
	"embsurvey/internal/header"
	"embsurvey/internal/instrument"
)

// questionDocLength caps question text in the mapping document
const questionDocLength = 100

// GroupDoc documents one question group
type GroupDoc struct {
	Question      string `json:"question"`
	Columns       []int  `json:"columns"`
	IsMultiselect bool   `json:"is_multiselect"`
}

// ScaleDoc documents one ordinal scale
type ScaleDoc struct {
	Name      string                  `json:"name"`
	Direction string                  `json:"direction,omitempty"`
	Entries   []instrument.ScaleEntry `json:"entries"`
}

// ColumnMapping is the column_mapping.json documentation artifact
type ColumnMapping struct {
	QuestionGroups []GroupDoc             `json:"question_groups"`
	ScaleEncodings []ScaleDoc             `json:"scale_encodings"`
	Regions        []instrument.Region    `json:"regions"`
	CleanedColumns []string               `json:"cleaned_columns"`
	Fields         []instrument.FieldSpec `json:"fields"`
	Drift          instrument.DriftReport `json:"drift"`
}

// NewColumnMapping documents how the export was interpreted
func NewColumnMapping(groups []survey.QuestionGroup, reg *instrument.Registry, fields []instrument.ResolvedField, drift instrument.DriftReport, columns []string) ColumnMapping {
	doc := ColumnMapping{
		QuestionGroups: make([]GroupDoc, 0, len(groups)),
		ScaleEncodings: make([]ScaleDoc, 0, len(reg.Scales)),
		Regions:        reg.Regions,
		CleanedColumns: append([]string{}, columns...),
		Fields:         make([]instrument.FieldSpec, 0, len(fields)),
		Drift:          drift,
	}
	for _, g := range groups {
		doc.QuestionGroups = append(doc.QuestionGroups, GroupDoc{
			Question:      truncate(g.Question, questionDocLength),
			Columns:       g.Columns,
			IsMultiselect: header.IsMultiselect(g.Question),
		})
	}
	for _, name := range reg.ScaleNames() {
		s, _ := reg.Scale(name)
		doc.ScaleEncodings = append(doc.ScaleEncodings, ScaleDoc{Name: name, Direction: s.Direction, Entries: s.Entries})
	}
	for _, f := range fields {
		spec := f.Spec
		spec.Columns = f.Columns
		spec.Range = nil
		doc.Fields = append(doc.Fields, spec)
	}
	if doc.Drift.Issues == nil {
		doc.Drift.Issues = []instrument.DriftIssue{}
	}
	return doc
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
