package export

import (
	"embsurvey/domain/core"
	"embsurvey/internal/instrument"
)

// ManifestFile is written last and does not list itself
const ManifestFile = "outputs/manifest.json"

// Manifest identifies a run and the artifacts it produced
type Manifest struct {
	RunID               core.RunID             `json:"run_id"`
	Fingerprint         core.Fingerprint       `json:"fingerprint"`
	Input               string                 `json:"input"`
	TotalResponses      int                    `json:"total_responses"`
	CompleteResponses   int                    `json:"complete_responses"`
	CompletionThreshold float64                `json:"completion_threshold"`
	Drift               instrument.DriftReport `json:"drift"`
	Artifacts           []Artifact             `json:"artifacts"`
}

// WriteManifest records everything written so far
func (w *Writer) WriteManifest(m Manifest) error {
	m.Artifacts = w.Artifacts()
	if m.Drift.Issues == nil {
		m.Drift.Issues = []instrument.DriftIssue{}
	}
	return w.JSON(ManifestFile, m)
}
