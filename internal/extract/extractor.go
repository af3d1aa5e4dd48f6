package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"embsurvey/domain/survey"
	"embsurvey/internal/header"
	"embsurvey/internal/instrument"

	"go.uber.org/zap"
)

// Extractor turns raw rows into typed respondent fields, one schema entry at a time
type Extractor struct {
	registry *instrument.Registry
	columns  []survey.ColumnInfo
	log      *zap.Logger
}

// NewExtractor creates an extractor bound to the interpreted header
func NewExtractor(registry *instrument.Registry, columns []survey.ColumnInfo, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{registry: registry, columns: columns, log: log.Named("extract")}
}

// MatrixItem is one sub-item of a Likert matrix and its per-row values
type MatrixItem struct {
	Key    string
	Values []survey.Value
}

// Extract builds one respondent per raw row following the resolved schema
func (e *Extractor) Extract(table *survey.RawTable, fields []instrument.ResolvedField) *survey.Dataset {
	respondents := make([]*survey.Respondent, len(table.Rows))
	for i := range table.Rows {
		respondents[i] = survey.NewRespondent(fmt.Sprintf("row-%d", i+1), i)
	}

	for _, f := range fields {
		switch f.Spec.Mode {
		case instrument.ModeID:
			vals := e.ExtractRaw(table, f.Columns)
			for i, v := range vals {
				if s, ok := v.Text(); ok {
					respondents[i].ID = s
				}
				respondents[i].Set(f.Spec.Name, v)
			}
		case instrument.ModeRaw, instrument.ModeText:
			setColumn(respondents, f.Spec.Name, e.ExtractRaw(table, f.Columns))
		case instrument.ModeTimestamp:
			setColumn(respondents, f.Spec.Name, e.ExtractTimestamp(table, f.Columns))
		case instrument.ModeSingle:
			setColumn(respondents, f.Spec.Name, e.ExtractSingle(table, f.Columns, e.scale(f.Spec.Scale)))
		case instrument.ModeMulti:
			setColumn(respondents, f.Spec.Name, e.ExtractMultiselect(table, f.Columns))
		case instrument.ModeMatrix:
			for _, item := range e.ExtractMatrix(table, f.Columns, e.scale(f.Spec.Scale)) {
				setColumn(respondents, f.Spec.Name+"_"+item.Key, item.Values)
			}
		}
		e.log.Debug("field extracted",
			zap.String("field", f.Spec.Name),
			zap.String("mode", string(f.Spec.Mode)),
			zap.Ints("columns", f.Columns))
	}

	e.log.Info("extraction complete",
		zap.Int("respondents", len(respondents)),
		zap.Int("fields", len(fields)))
	return survey.NewDataset(respondents)
}

func setColumn(respondents []*survey.Respondent, name string, values []survey.Value) {
	for i, v := range values {
		respondents[i].Set(name, v)
	}
}

func (e *Extractor) scale(name string) *instrument.Scale {
	if name == "" || e.registry == nil {
		return nil
	}
	s, _ := e.registry.Scale(name)
	return s
}

func (e *Extractor) option(col int) string {
	if col < 0 || col >= len(e.columns) {
		return ""
	}
	return e.columns[col].Option
}

// ExtractRaw copies the first column of the group as trimmed text
func (e *Extractor) ExtractRaw(table *survey.RawTable, cols []int) []survey.Value {
	out := make([]survey.Value, len(table.Rows))
	if len(cols) == 0 {
		return out
	}
	for i := range table.Rows {
		out[i] = survey.TextValue(table.Cell(i, cols[0]))
	}
	return out
}

// ExtractTimestamp parses the first column as a date; unparseable cells are Null
func (e *Extractor) ExtractTimestamp(table *survey.RawTable, cols []int) []survey.Value {
	out := make([]survey.Value, len(table.Rows))
	if len(cols) == 0 {
		return out
	}
	for i := range table.Rows {
		if t, ok := ParseTimestamp(table.Cell(i, cols[0])); ok {
			out[i] = survey.TimeValue(t)
		}
	}
	return out
}

// ExtractSingle takes the first answered column of each row and maps it
// through the scale when one is given
func (e *Extractor) ExtractSingle(table *survey.RawTable, cols []int, scale *instrument.Scale) []survey.Value {
	out := make([]survey.Value, len(table.Rows))
	for i := range table.Rows {
		for _, c := range cols {
			cell := table.Cell(i, c)
			if survey.IsBlank(cell) {
				continue
			}
			out[i] = MapSingle(strings.TrimSpace(cell), scale)
			break
		}
	}
	return out
}

// ExtractMultiselect collects the option label of every answered column.
// Rows with no selection are Null, not an empty list.
func (e *Extractor) ExtractMultiselect(table *survey.RawTable, cols []int) []survey.Value {
	out := make([]survey.Value, len(table.Rows))
	for i := range table.Rows {
		var selected []string
		for _, c := range cols {
			cell := table.Cell(i, c)
			if survey.IsBlank(cell) {
				continue
			}
			if opt := e.option(c); opt != "" {
				selected = append(selected, opt)
			} else {
				selected = append(selected, strings.TrimSpace(cell))
			}
		}
		out[i] = survey.ListValue(selected)
	}
	return out
}

type matrixColumn struct {
	index  int
	rating string
}

// ExtractMatrix splits the group into sub-items by option text and yields
// one value series per sub-item, in order of first appearance
func (e *Extractor) ExtractMatrix(table *survey.RawTable, cols []int, scale *instrument.Scale) []MatrixItem {
	var keys []string
	items := make(map[string][]matrixColumn)
	for _, c := range cols {
		item, rating := header.SplitMatrixOption(e.option(c))
		key := header.NormalizeItemKey(item)
		if key == "" {
			continue
		}
		if _, ok := items[key]; !ok {
			keys = append(keys, key)
		}
		items[key] = append(items[key], matrixColumn{index: c, rating: rating})
	}

	out := make([]MatrixItem, 0, len(keys))
	for _, key := range keys {
		values := make([]survey.Value, len(table.Rows))
		for i := range table.Rows {
			for _, mc := range items[key] {
				cell := table.Cell(i, mc.index)
				if survey.IsBlank(cell) {
					continue
				}
				values[i] = MapMatrix(mc.rating, cell, scale)
				break
			}
		}
		out = append(out, MatrixItem{Key: key, Values: values})
	}
	return out
}

// MapSingle resolves one answered cell: exact match, substring match, integer
// parse, then the raw text. The result kind may therefore differ between
// respondents of the same field.
func MapSingle(cell string, scale *instrument.Scale) survey.Value {
	if scale == nil {
		return survey.TextValue(cell)
	}
	if entry, ok := scale.Exact(cell); ok {
		return entryValue(entry)
	}
	if entry, ok := scale.Contains(cell); ok {
		return entryValue(entry)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(cell)); err == nil {
		return survey.IntValue(n)
	}
	return survey.TextValue(cell)
}

// MapMatrix resolves a matrix cell using either the column's rating text or
// the cell itself, then integer parse, then the raw cell
func MapMatrix(rating, cell string, scale *instrument.Scale) survey.Value {
	trimmed := strings.TrimSpace(cell)
	if scale != nil {
		if entry, ok := scale.Contains(rating, cell); ok {
			return entryValue(entry)
		}
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		return survey.IntValue(n)
	}
	return survey.TextValue(trimmed)
}

func entryValue(e instrument.ScaleEntry) survey.Value {
	if e.Code == nil {
		return survey.Null
	}
	return survey.IntValue(*e.Code)
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"02 Jan 2006 15:04",
	"Jan 2, 2006",
}

// ParseTimestamp accepts ISO and common locale date formats
func ParseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if survey.IsBlank(s) {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
