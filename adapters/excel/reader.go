package excel

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"embsurvey/domain/survey"
	"embsurvey/internal/errors"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// TableReader loads a two-row-header survey export from CSV or XLSX
type TableReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	log      *zap.Logger
}

// NewTableReader picks the format from the file extension; anything that is
// not .csv is opened as a workbook
func NewTableReader(filePath string, log *zap.Logger) *TableReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &TableReader{filePath: filePath, fileType: fileType, log: log.Named("reader")}
}

// Read returns the raw table together with every row as read, header rows
// included, for fingerprinting
func (r *TableReader) Read() (*survey.RawTable, [][]string, error) {
	r.log.Info("reading survey export", zap.String("type", r.fileType), zap.String("path", r.filePath))

	if _, err := os.Stat(r.filePath); err != nil {
		return nil, nil, errors.IOError(r.filePath, err)
	}

	var rows [][]string
	var err error
	start := time.Now()
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	default:
		rows, err = r.readWorkbook()
	}
	if err != nil {
		return nil, nil, err
	}
	r.log.Debug("export read", zap.Int("rows", len(rows)), zap.Duration("elapsed", time.Since(start)))

	table, err := BuildTable(rows)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s", r.filePath)
	}
	r.log.Info("export parsed", zap.Int("columns", table.Width()), zap.Int("respondents", len(table.Rows)))
	return table, rows, nil
}

func (r *TableReader) readCSV() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.IOError(r.filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to parse CSV"))
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// readWorkbook reads the first sheet. excelize drops trailing blank cells;
// BuildTable restores the header width.
func (r *TableReader) readWorkbook() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to open workbook"))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "failed to read sheet %s", sheets[0]))
	}
	return rows, nil
}

// BuildTable splits raw rows into the two header rows and respondent rows.
// Both header rows are padded to the wider of the two, and respondent rows
// are padded or clipped to that width.
func BuildTable(rows [][]string) (*survey.RawTable, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidInput("export must have a question row and an option row")
	}
	width := max(len(rows[0]), len(rows[1]))
	table := &survey.RawTable{
		QuestionRow: fit(rows[0], width),
		OptionRow:   fit(rows[1], width),
		Rows:        make([][]string, 0, len(rows)-2),
	}
	for _, row := range rows[2:] {
		table.Rows = append(table.Rows, fit(row, width))
	}
	return table, nil
}

func fit(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
