package survey

import (
	"encoding/json"
	"fmt"
)

// ColumnInfo describes one raw column after header interpretation
type ColumnInfo struct {
	Index    int    `json:"index"`
	Question string `json:"question"` // propagated from the last non-blank question cell
	Option   string `json:"option"`
}

// QuestionGroup is a question and the raw columns that carry its answers,
// in column order
type QuestionGroup struct {
	Question string `json:"question"`
	Columns  []int  `json:"columns"`
}

// RawTable is the raw two-row-header export
type RawTable struct {
	QuestionRow []string
	OptionRow   []string
	Rows        [][]string // padded to header width
}

// Width returns the header column count
func (t *RawTable) Width() int { return len(t.QuestionRow) }

// Cell returns the raw cell or "" when the index is out of range
func (t *RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Respondent is one normalized survey response. Fields keep insertion order.
type Respondent struct {
	ID     string
	Row    int // index of the raw row this record came from
	fields map[string]Value
	order  []string
}

// NewRespondent creates an empty record for the given raw row
func NewRespondent(id string, row int) *Respondent {
	return &Respondent{ID: id, Row: row, fields: make(map[string]Value)}
}

// Set stores an extracted field. Reserved for the extractor.
func (r *Respondent) Set(name string, v Value) {
	if _, exists := r.fields[name]; !exists {
		r.order = append(r.order, name)
	}
	r.fields[name] = v
}

// Append adds a derived field. It never rewrites a field that is already present.
func (r *Respondent) Append(name string, v Value) error {
	if _, exists := r.fields[name]; exists {
		return fmt.Errorf("field %q already set on respondent %s", name, r.ID)
	}
	r.order = append(r.order, name)
	r.fields[name] = v
	return nil
}

// Get returns a field value; absent fields are Null
func (r *Respondent) Get(name string) Value {
	return r.fields[name]
}

// Has reports whether the field exists on the record
func (r *Respondent) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// Fields returns field names in insertion order
func (r *Respondent) Fields() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Clone returns an independent copy of the record
func (r *Respondent) Clone() *Respondent {
	c := NewRespondent(r.ID, r.Row)
	for _, name := range r.order {
		c.Set(name, r.fields[name])
	}
	return c
}

// MarshalJSON writes the record as an object with keys in field order
func (r *Respondent) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, name := range r.order {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.fields[name])
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// Dataset is an ordered set of respondents with a stable column order
type Dataset struct {
	Columns     []string
	Respondents []*Respondent
}

// NewDataset builds a dataset and derives the column order from the records
func NewDataset(respondents []*Respondent) *Dataset {
	ds := &Dataset{Respondents: respondents}
	ds.RefreshColumns()
	return ds
}

// RefreshColumns recomputes the union of field names in first-seen order
func (d *Dataset) RefreshColumns() {
	seen := make(map[string]bool)
	d.Columns = d.Columns[:0]
	for _, r := range d.Respondents {
		for _, name := range r.order {
			if !seen[name] {
				seen[name] = true
				d.Columns = append(d.Columns, name)
			}
		}
	}
}

// Len returns the respondent count
func (d *Dataset) Len() int { return len(d.Respondents) }

// Values returns one field across all respondents
func (d *Dataset) Values(name string) []Value {
	out := make([]Value, len(d.Respondents))
	for i, r := range d.Respondents {
		out[i] = r.Get(name)
	}
	return out
}

// HasColumn reports whether any respondent carries the field
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Filter returns a fresh dataset holding cloned records that satisfy keep
func (d *Dataset) Filter(keep func(*Respondent) bool) *Dataset {
	var out []*Respondent
	for _, r := range d.Respondents {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	return &Dataset{Columns: append([]string(nil), d.Columns...), Respondents: out}
}
