package excel

import (
	"embsurvey/domain/survey"
	"embsurvey/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Sheet is one named dataset in a workbook
type Sheet struct {
	Name    string
	Dataset *survey.Dataset
}

// WriteWorkbook writes each dataset to its own sheet: a header row of field
// names followed by one row per respondent. Lists are written as JSON
// arrays and Null cells are left empty.
func WriteWorkbook(path string, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return errors.InvalidInput("workbook needs at least one sheet")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return errors.Wrapf(err, "failed to name sheet %s", sheet.Name)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return errors.Wrapf(err, "failed to add sheet %s", sheet.Name)
		}
		if err := writeSheet(f, sheet); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.IOError(path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	sw, err := f.NewStreamWriter(sheet.Name)
	if err != nil {
		return errors.Wrapf(err, "failed to open sheet %s", sheet.Name)
	}

	header := make([]interface{}, len(sheet.Dataset.Columns))
	for i, col := range sheet.Dataset.Columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return errors.Wrapf(err, "failed to write header of %s", sheet.Name)
	}

	for i, r := range sheet.Dataset.Respondents {
		row := make([]interface{}, len(sheet.Dataset.Columns))
		for j, col := range sheet.Dataset.Columns {
			row[j] = cellValue(r.Get(col))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "invalid cell coordinates")
		}
		if err := sw.SetRow(cell, row); err != nil {
			return errors.Wrapf(err, "failed to write row %d of %s", i+2, sheet.Name)
		}
	}
	return sw.Flush()
}

func cellValue(v survey.Value) interface{} {
	switch v.Kind() {
	case survey.KindNull:
		return nil
	case survey.KindInt:
		i, _ := v.Int()
		return i
	case survey.KindFloat:
		f, _ := v.Number()
		return f
	default:
		return v.String()
	}
}
