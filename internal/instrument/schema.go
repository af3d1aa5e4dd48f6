package instrument

import (
	"fmt"
	"strings"

	"embsurvey/domain/survey"
	"embsurvey/internal/errors"
	"embsurvey/internal/header"
)

// Mode selects how a field's columns are extracted
type Mode string

const (
	ModeID        Mode = "id"
	ModeRaw       Mode = "raw"
	ModeText      Mode = "text" // open-ended free text
	ModeTimestamp Mode = "timestamp"
	ModeSingle    Mode = "single"
	ModeMulti     Mode = "multi"
	ModeMatrix    Mode = "matrix" // name is a prefix; one field per sub-item
)

// FieldSpec is one declarative schema entry: {name, column range, mode, scale}
type FieldSpec struct {
	Name     string `yaml:"name" json:"name"`
	Mode     Mode   `yaml:"mode" json:"mode"`
	Columns  []int  `yaml:"columns,omitempty" json:"columns,omitempty"`
	Range    []int  `yaml:"range,omitempty" json:"range,omitempty"` // inclusive [first, last]
	Question string `yaml:"question,omitempty" json:"question,omitempty"`
	Scale    string `yaml:"scale,omitempty" json:"scale,omitempty"`
}

// Declared returns the column indices the entry names, before bounds checks
func (f FieldSpec) Declared() []int {
	if len(f.Range) == 2 {
		var cols []int
		for i := f.Range[0]; i <= f.Range[1]; i++ {
			cols = append(cols, i)
		}
		return cols
	}
	return append([]int(nil), f.Columns...)
}

// Schema is the ordered field layout of the survey instrument
type Schema struct {
	Fields []FieldSpec `yaml:"fields" json:"fields"`
}

// ResolvedField is a schema entry bound to actual in-range columns
type ResolvedField struct {
	Spec    FieldSpec
	Columns []int
}

// DriftIssue records a mismatch between the schema and the header
type DriftIssue struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"` // "clipped", "missing", "unlocated"
	Message string `json:"message"`
}

// DriftReport lists every schema entry that did not fit the header
type DriftReport struct {
	Width  int          `json:"width"`
	Issues []DriftIssue `json:"issues"`
}

// HasIssues reports whether any drift was found
func (d DriftReport) HasIssues() bool { return len(d.Issues) > 0 }

// Validate checks modes, scale references and column declarations
func (s *Schema) Validate(reg *Registry) error {
	seen := make(map[string]bool)
	for i, f := range s.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return errors.ConfigInvalid(fmt.Sprintf("schema field %d has no name", i))
		}
		if seen[f.Name] {
			return errors.ConfigInvalid(fmt.Sprintf("schema field %q declared twice", f.Name))
		}
		seen[f.Name] = true

		switch f.Mode {
		case ModeID, ModeRaw, ModeText, ModeTimestamp, ModeSingle, ModeMulti, ModeMatrix:
		default:
			return errors.ConfigInvalid(fmt.Sprintf("schema field %q has unknown mode %q", f.Name, f.Mode))
		}

		located := f.Question != ""
		if len(f.Range) > 0 {
			if len(f.Range) != 2 || f.Range[0] > f.Range[1] || f.Range[0] < 0 {
				return errors.ConfigInvalid(fmt.Sprintf("schema field %q has invalid range %v", f.Name, f.Range))
			}
			located = true
		}
		for _, c := range f.Columns {
			if c < 0 {
				return errors.ConfigInvalid(fmt.Sprintf("schema field %q has negative column %d", f.Name, c))
			}
			located = true
		}
		if !located {
			return errors.ConfigInvalid(fmt.Sprintf("schema field %q declares neither columns, range nor question", f.Name))
		}

		if f.Scale != "" {
			if _, ok := reg.Scale(f.Scale); !ok {
				return errors.ConfigInvalid(fmt.Sprintf("schema field %q references unknown scale %q", f.Name, f.Scale))
			}
		}
		if f.Mode == ModeMatrix && f.Scale == "" {
			return errors.ConfigInvalid(fmt.Sprintf("matrix field %q needs a scale", f.Name))
		}
	}
	return nil
}

// Resolve binds every entry to in-range columns. Out-of-range columns are
// clipped and fields left with no column are dropped; both are reported.
func (s *Schema) Resolve(groups []survey.QuestionGroup, width int) ([]ResolvedField, DriftReport) {
	report := DriftReport{Width: width}
	var resolved []ResolvedField

	for _, f := range s.Fields {
		var declared []int
		if f.Question != "" && len(f.Columns) == 0 && len(f.Range) == 0 {
			declared = header.FindQuestion(groups, f.Question)
			if len(declared) == 0 {
				report.Issues = append(report.Issues, DriftIssue{
					Field:   f.Name,
					Kind:    "unlocated",
					Message: fmt.Sprintf("no question contains %q", f.Question),
				})
				continue
			}
		} else {
			declared = f.Declared()
		}

		var cols []int
		for _, c := range declared {
			if c < width {
				cols = append(cols, c)
			}
		}

		switch {
		case len(cols) == 0:
			report.Issues = append(report.Issues, DriftIssue{
				Field:   f.Name,
				Kind:    "missing",
				Message: fmt.Sprintf("all declared columns are beyond header width %d", width),
			})
			continue
		case len(cols) < len(declared):
			report.Issues = append(report.Issues, DriftIssue{
				Field:   f.Name,
				Kind:    "clipped",
				Message: fmt.Sprintf("%d of %d declared columns are beyond header width %d", len(declared)-len(cols), len(declared), width),
			})
		}

		resolved = append(resolved, ResolvedField{Spec: f, Columns: cols})
	}

	return resolved, report
}
