package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"

	"embsurvey/domain/core"
	"embsurvey/domain/survey"
	"embsurvey/internal/errors"

	"go.uber.org/zap"
)

// Artifact is one file written by a run
type Artifact struct {
	Path   string    `json:"path"` // relative to the output root
	SHA256 core.Hash `json:"sha256"`
	Bytes  int       `json:"bytes"`
}

// Writer writes run artifacts below a root directory and records each one
// for the manifest
type Writer struct {
	root      string
	artifacts []Artifact
	log       *zap.Logger
}

// NewWriter creates a writer rooted at dir
func NewWriter(dir string, log *zap.Logger) *Writer {
	return &Writer{root: dir, log: log.Named("export")}
}

// Path resolves a relative artifact path and creates its parent directory
func (w *Writer) Path(rel string) (string, error) {
	full := filepath.Join(w.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.IOError(filepath.Dir(full), err)
	}
	return full, nil
}

// Bytes writes raw content
func (w *Writer) Bytes(rel string, data []byte) error {
	full, err := w.Path(rel)
	if err != nil {
		return err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return errors.IOError(full, err)
	}
	w.record(rel, data)
	return nil
}

// Record registers a file written by another sink, such as a workbook
func (w *Writer) Record(rel string) error {
	full := filepath.Join(w.root, filepath.FromSlash(rel))
	data, err := os.ReadFile(full)
	if err != nil {
		return errors.IOError(full, err)
	}
	w.record(rel, data)
	return nil
}

func (w *Writer) record(rel string, data []byte) {
	w.artifacts = append(w.artifacts, Artifact{Path: rel, SHA256: core.NewHash(data), Bytes: len(data)})
	w.log.Info("wrote artifact", zap.String("path", rel), zap.Int("bytes", len(data)))
}

// JSON writes v indented by two spaces with a trailing newline
func (w *Writer) JSON(rel string, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", rel)
	}
	return w.Bytes(rel, data)
}

// CSV writes a dataset as a table
func (w *Writer) CSV(rel string, ds *survey.Dataset) error {
	data, err := EncodeCSV(ds)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", rel)
	}
	return w.Bytes(rel, data)
}

// Records writes a dataset as a JSON array of records
func (w *Writer) Records(rel string, ds *survey.Dataset) error {
	return w.JSON(rel, Records(ds))
}

// Artifacts returns the files written so far, in write order
func (w *Writer) Artifacts() []Artifact {
	return append([]Artifact(nil), w.artifacts...)
}

// MarshalJSON encodes v with two-space indentation and a trailing newline
func MarshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeCSV renders the header of field names and one row per respondent.
// Null cells are empty and lists are JSON arrays.
func EncodeCSV(ds *survey.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(ds.Columns); err != nil {
		return nil, err
	}
	row := make([]string, len(ds.Columns))
	for _, r := range ds.Respondents {
		for i, col := range ds.Columns {
			row[i] = r.Get(col).String()
		}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

// Record is a respondent projected onto the full column list, so every
// record carries every key and absent fields are null
type Record struct {
	columns    []string
	respondent *survey.Respondent
}

// Records projects every respondent onto the dataset columns
func Records(ds *survey.Dataset) []Record {
	out := make([]Record, len(ds.Respondents))
	for i, r := range ds.Respondents {
		out[i] = Record{columns: ds.Columns, respondent: r}
	}
	return out
}

func (rec Record) MarshalJSON() ([]byte, error) {
	full := survey.NewRespondent(rec.respondent.ID, rec.respondent.Row)
	for _, col := range rec.columns {
		full.Set(col, rec.respondent.Get(col))
	}
	return full.MarshalJSON()
}
