package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"embsurvey/adapters/excel"
	"embsurvey/adapters/export"
	"embsurvey/adapters/report"
	"embsurvey/adapters/sqlstore"
	"embsurvey/domain/core"
	"embsurvey/domain/survey"
	"embsurvey/internal/analysis"
	"embsurvey/internal/errors"
	"embsurvey/internal/extract"
	"embsurvey/internal/header"
	"embsurvey/internal/instrument"
	"embsurvey/internal/metrics"
	"embsurvey/internal/normalize"

	"go.uber.org/zap"
)

// Stage selects which artifact families a run writes
type Stage string

const (
	StageClean   Stage = "clean"
	StageExplore Stage = "explore"
	StageSegment Stage = "segment"
	StageAll     Stage = "all"
)

func (s Stage) includes(other Stage) bool {
	return s == StageAll || s == other
}

// Artifact paths relative to the output directory
const (
	FileAllResponses     = "processed/survey_all_responses.csv"
	FileCleanCSV         = "processed/survey_clean.csv"
	FileCleanJSON        = "processed/survey_clean.json"
	FileCleanWorkbook    = "processed/survey_clean.xlsx"
	FileColumnMapping    = "processed/column_mapping.json"
	FileOpenResponses    = "processed/open_responses.json"
	FileSummaryStats     = "outputs/summary_stats.json"
	FileCompletion       = "outputs/completion_analysis.json"
	FileRegional         = "outputs/regional_comparison.json"
	FileSegments         = "outputs/infrastructure_segments.json"
	FilePainPoints       = "outputs/pain_point_rankings.json"
	FilePilotCandidates  = "outputs/pilot_candidates.json"
	FileFindingsMarkdown = "outputs/findings.md"
	FileFindingsHTML     = "outputs/findings.html"
)

// PipelineOptions are the tunables of a run
type PipelineOptions struct {
	CompletionThreshold float64
	StrictSchema        bool
}

// PipelineService turns a raw survey export into cleaned tables and analyses
type PipelineService struct {
	instrument *instrument.Instrument
	opts       PipelineOptions
	store      *sqlstore.Store // optional
	log        *zap.Logger
}

// NewPipelineService creates a pipeline service. store may be nil.
func NewPipelineService(inst *instrument.Instrument, opts PipelineOptions, store *sqlstore.Store, log *zap.Logger) *PipelineService {
	return &PipelineService{
		instrument: inst,
		opts:       opts,
		store:      store,
		log:        log.Named("pipeline"),
	}
}

// Prepared is the cleaned survey: every stage after it reads from here
type Prepared struct {
	Input       string
	Fingerprint core.Fingerprint
	RunID       core.RunID
	Table       *survey.RawTable
	Columns     []survey.ColumnInfo
	Groups      []survey.QuestionGroup
	Fields      []instrument.ResolvedField
	Drift       instrument.DriftReport
	All         *survey.Dataset // every respondent, normalized
	Complete    *survey.Dataset // respondents at or above the completion threshold
}

// Results holds every analysis of one prepared survey
type Results struct {
	Scored        *survey.Dataset // complete respondents with derived scores appended
	Summary       analysis.SummaryStats
	Completion    analysis.CompletionAnalysis
	Regional      []analysis.RegionStats
	Segments      analysis.Segmentation
	PainPoints    metrics.PainPoints
	Pilot         metrics.PilotReport
	Findings      analysis.KeyFindings
	OpenResponses []*survey.Respondent
}

// RunRequest names the input, the output directory and the stage to write
type RunRequest struct {
	Input     string
	OutputDir string
	Stage     Stage
}

// RunResult summarizes a finished run
type RunResult struct {
	RunID             core.RunID             `json:"run_id"`
	Fingerprint       core.Fingerprint       `json:"fingerprint"`
	TotalResponses    int                    `json:"total_responses"`
	CompleteResponses int                    `json:"complete_responses"`
	Drift             instrument.DriftReport `json:"drift"`
	Artifacts         []export.Artifact      `json:"artifacts"`
	RuntimeMs         int64                  `json:"runtime_ms"`
}

// Resolve reads the export header and binds the instrument schema to it
// without extracting any answers
func (s *PipelineService) Resolve(input string) (*Prepared, error) {
	table, rows, err := excel.NewTableReader(input, s.log).Read()
	if err != nil {
		return nil, err
	}

	columns, err := header.BuildColumnMap(table.QuestionRow, table.OptionRow)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to interpret header of %s", input)
	}
	groups := header.QuestionGroups(columns)
	fields, drift := s.instrument.Schema.Resolve(groups, table.Width())

	fp := core.ComputeFingerprint(rows...)
	p := &Prepared{
		Input:       filepath.Base(input),
		Fingerprint: fp,
		RunID:       core.NewRunID(fp),
		Table:       table,
		Columns:     columns,
		Groups:      groups,
		Fields:      fields,
		Drift:       drift,
	}

	for _, issue := range drift.Issues {
		s.log.Warn("schema drift",
			zap.String("field", issue.Field),
			zap.String("kind", issue.Kind),
			zap.String("detail", issue.Message))
	}
	if drift.HasIssues() && s.opts.StrictSchema {
		return p, errors.SchemaDrift(fmt.Sprintf("%d schema fields do not match the %d-column header", len(drift.Issues), drift.Width))
	}
	return p, nil
}

// Prepare resolves the schema, extracts and normalizes every respondent and
// applies the completion filter
func (s *PipelineService) Prepare(input string) (*Prepared, error) {
	p, err := s.Resolve(input)
	if err != nil {
		return nil, err
	}

	all := extract.NewExtractor(s.instrument.Registry, p.Columns, s.log).Extract(p.Table, p.Fields)
	if err := normalize.NewNormalizer(s.instrument.Registry, s.log).Apply(all, p.Table); err != nil {
		return nil, err
	}
	p.All = all
	p.Complete = normalize.Complete(all, s.opts.CompletionThreshold)

	s.log.Info("survey prepared",
		zap.String("run_id", p.RunID.String()),
		zap.Int("total", p.All.Len()),
		zap.Int("complete", p.Complete.Len()),
		zap.Float64("threshold", s.opts.CompletionThreshold))
	return p, nil
}

// Analyze scores the complete respondents and runs every analysis over them
func (s *PipelineService) Analyze(ctx context.Context, p *Prepared) (*Results, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "analysis cancelled")
	}
	scored := p.Complete.Filter(func(*survey.Respondent) bool { return true })
	if err := metrics.AnnotateScores(scored); err != nil {
		return nil, err
	}

	analyzer := analysis.NewAnalyzer(s.instrument.Registry)
	res := &Results{
		Scored:        scored,
		Summary:       analyzer.Summarize(p.Complete, p.All),
		Completion:    analysis.Completion(p.Complete),
		Regional:      analysis.RegionalComparison(p.Complete),
		Segments:      analysis.SegmentByInfrastructure(p.Complete),
		PainPoints:    metrics.ComputePainPoints(p.Complete),
		Pilot:         metrics.RankCandidates(p.Complete),
		Findings:      analysis.Findings(p.Complete),
		OpenResponses: analysis.OpenResponses(p.Complete),
	}

	s.log.Info("analysis complete",
		zap.Int("regions", len(res.Regional)),
		zap.Int("candidates", len(res.Pilot.AllCandidates)),
		zap.Int("open_responses", len(res.OpenResponses)))
	return res, nil
}

// Run executes the pipeline and writes the artifacts of the requested stage
func (s *PipelineService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	start := time.Now()
	stage := req.Stage
	if stage == "" {
		stage = StageAll
	}

	p, err := s.Prepare(req.Input)
	if err != nil {
		return nil, err
	}
	res, err := s.Analyze(ctx, p)
	if err != nil {
		return nil, err
	}

	w := export.NewWriter(req.OutputDir, s.log)
	if stage.includes(StageClean) {
		if err := s.writeClean(w, p, res); err != nil {
			return nil, err
		}
	}
	if stage.includes(StageExplore) {
		if err := s.writeExplore(w, res); err != nil {
			return nil, err
		}
	}
	if stage.includes(StageSegment) {
		if err := s.writeSegment(w, res); err != nil {
			return nil, err
		}
	}
	if stage == StageAll {
		md := report.Markdown(report.Input{
			RunID:        p.RunID,
			Findings:     res.Findings,
			Segmentation: res.Segments,
			PainPoints:   res.PainPoints,
			Pilot:        res.Pilot,
			Drift:        p.Drift,
		})
		if err := w.Bytes(FileFindingsMarkdown, md); err != nil {
			return nil, err
		}
		if err := w.Bytes(FileFindingsHTML, report.HTML(md)); err != nil {
			return nil, err
		}
	}

	if s.store != nil {
		if err := s.store.SaveRun(ctx, sqlstore.Run{
			Fingerprint:         p.Fingerprint,
			RunID:               p.RunID,
			Input:               p.Input,
			TotalResponses:      p.All.Len(),
			CompleteResponses:   p.Complete.Len(),
			CompletionThreshold: s.opts.CompletionThreshold,
		}, p.All, res.Scored, res.Pilot.AllCandidates); err != nil {
			return nil, err
		}
	}

	if err := w.WriteManifest(export.Manifest{
		RunID:               p.RunID,
		Fingerprint:         p.Fingerprint,
		Input:               p.Input,
		TotalResponses:      p.All.Len(),
		CompleteResponses:   p.Complete.Len(),
		CompletionThreshold: s.opts.CompletionThreshold,
		Drift:               p.Drift,
	}); err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:             p.RunID,
		Fingerprint:       p.Fingerprint,
		TotalResponses:    p.All.Len(),
		CompleteResponses: p.Complete.Len(),
		Drift:             p.Drift,
		Artifacts:         w.Artifacts(),
		RuntimeMs:         time.Since(start).Milliseconds(),
	}
	s.log.Info("run complete",
		zap.String("run_id", result.RunID.String()),
		zap.String("stage", string(stage)),
		zap.Int("artifacts", len(result.Artifacts)),
		zap.Int64("runtime_ms", result.RuntimeMs))
	return result, nil
}

func (s *PipelineService) writeClean(w *export.Writer, p *Prepared, res *Results) error {
	if err := w.CSV(FileCleanCSV, p.Complete); err != nil {
		return err
	}
	if err := w.CSV(FileAllResponses, p.All); err != nil {
		return err
	}
	if err := w.Records(FileCleanJSON, p.Complete); err != nil {
		return err
	}

	path, err := w.Path(FileCleanWorkbook)
	if err != nil {
		return err
	}
	if err := excel.WriteWorkbook(path,
		excel.Sheet{Name: "complete", Dataset: p.Complete},
		excel.Sheet{Name: "all", Dataset: p.All},
	); err != nil {
		return err
	}
	if err := w.Record(FileCleanWorkbook); err != nil {
		return err
	}

	mapping := export.NewColumnMapping(p.Groups, s.instrument.Registry, p.Fields, p.Drift, p.All.Columns)
	if err := w.JSON(FileColumnMapping, mapping); err != nil {
		return err
	}
	return w.JSON(FileOpenResponses, res.OpenResponses)
}

func (s *PipelineService) writeExplore(w *export.Writer, res *Results) error {
	if err := w.JSON(FileSummaryStats, res.Summary); err != nil {
		return err
	}
	return w.JSON(FileCompletion, res.Completion)
}

func (s *PipelineService) writeSegment(w *export.Writer, res *Results) error {
	if err := w.JSON(FileRegional, res.Regional); err != nil {
		return err
	}
	if err := w.JSON(FileSegments, res.Segments); err != nil {
		return err
	}
	if err := w.JSON(FilePainPoints, res.PainPoints); err != nil {
		return err
	}
	return w.JSON(FilePilotCandidates, res.Pilot)
}
