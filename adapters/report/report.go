package report

import (
	"fmt"
	"strings"

	"embsurvey/domain/core"
	"embsurvey/internal/analysis"
	"embsurvey/internal/instrument"
	"embsurvey/internal/metrics"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const title = "EMB Workforce Survey: Key Findings"

// Input gathers the results a findings report is built from
type Input struct {
	RunID        core.RunID
	Findings     analysis.KeyFindings
	Segmentation analysis.Segmentation
	PainPoints   metrics.PainPoints
	Pilot        metrics.PilotReport
	Drift        instrument.DriftReport
}

// Markdown renders the findings report
func Markdown(in Input) []byte {
	var b strings.Builder
	f := in.Findings

	b.WriteString(fmt.Sprintf("# %s\n\nRun `%s`\n\n", title, in.RunID))

	b.WriteString("## Responses\n\n")
	b.WriteString(fmt.Sprintf("- Complete responses: %d\n", f.TotalResponses))
	b.WriteString(fmt.Sprintf("- Countries represented: %d\n", f.CountryCount))
	if len(f.Regions) > 0 {
		b.WriteString(fmt.Sprintf("- Regions: %s\n", strings.Join(f.Regions, ", ")))
	}

	b.WriteString("\n## Credential verification and workforce\n\n")
	b.WriteString(fmt.Sprintf("- EMBs reporting zero fraud incidents: %d\n", f.ZeroFraudCount))
	b.WriteString(fmt.Sprintf("- EMBs reporting some fraud incidents: %d\n", f.SomeFraudCount))
	b.WriteString(fmt.Sprintf("- EMBs with 75%%+ temporary workforce: %d\n", f.HighTempWorkforce))
	b.WriteString(fmt.Sprintf("- Training system confidence (mean, 1-5): %s\n", formatMean(f.TrainingConfidence)))
	b.WriteString(fmt.Sprintf("- Sync system confidence (mean, 1-5): %s\n", formatMean(f.SyncConfidence)))

	b.WriteString("\n## Technology infrastructure\n\n")
	b.WriteString("| Area | Mean level (0-3) |\n|---|---|\n")
	for _, t := range f.TechLevels {
		b.WriteString(fmt.Sprintf("| %s | %s |\n", t.Name, formatMean(t.Mean)))
	}
	writeCounts(&b, "Top infrastructure limitations", f.TopLimitations)

	b.WriteString("\n## Infrastructure segments\n\n")
	b.WriteString("| Segment | Respondents | Average score |\n|---|---|---|\n")
	for _, s := range in.Segmentation.Segments {
		b.WriteString(fmt.Sprintf("| %s | %d | %s |\n", s.Name, s.Count, formatMean(s.AvgScore)))
	}

	b.WriteString("\n## Pain points by severity\n\n")
	if len(in.PainPoints.AreaRanking) == 0 {
		b.WriteString("No pain-point signals were reported.\n")
	}
	for i, a := range in.PainPoints.AreaRanking {
		b.WriteString(fmt.Sprintf("%d. %s (%.2f)\n", i+1, humanize(a.Area), a.AvgSeverity))
	}

	b.WriteString("\n## Pilot candidates\n\n")
	s := in.Pilot.Summary
	b.WriteString(fmt.Sprintf("%d assessed: %d high, %d medium, %d low potential.\n\n",
		s.TotalAssessed, s.HighCount, s.MediumCount, s.LowCount))
	if len(s.TopCandidates) > 0 {
		b.WriteString("| Country | Region | Composite | Suitability |\n|---|---|---|---|\n")
		for _, c := range s.TopCandidates {
			b.WriteString(fmt.Sprintf("| %s | %s | %.2f | %s |\n", c.Country, c.Region.String(), c.CompositeScore, c.Suitability))
		}
	}

	b.WriteString("\n## Worker interest and support\n\n")
	b.WriteString(fmt.Sprintf("- EMBs reporting worker interest in portable credentials: %d\n", f.WorkerInterestCount))
	writeCounts(&b, "Most requested external support", f.TopSupportNeeds)

	if in.Drift.HasIssues() {
		b.WriteString("\n## Schema drift\n\n")
		b.WriteString(fmt.Sprintf("The export has %d columns. These fields did not match it:\n\n", in.Drift.Width))
		for _, issue := range in.Drift.Issues {
			b.WriteString(fmt.Sprintf("- `%s` (%s): %s\n", issue.Field, issue.Kind, issue.Message))
		}
	}

	return []byte(b.String())
}

// HTML renders the markdown report as a standalone page
func HTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(md, p, renderer)
}

func writeCounts(b *strings.Builder, heading string, counts analysis.Counts) {
	if len(counts) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("\n%s:\n\n", heading))
	for _, c := range counts {
		b.WriteString(fmt.Sprintf("- %s (%d)\n", c.Label, c.Count))
	}
}

func formatMean(m *float64) string {
	if m == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *m)
}

func humanize(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
