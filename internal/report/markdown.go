package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/user/audit-service/internal/entity"
)

// MarkdownWriter outputs a readable summary of a report.
type MarkdownWriter struct {
	output io.Writer
}

func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

func (w *MarkdownWriter) Write(report *entity.AuditReport) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeRecommendations(md, report)
	w.writeHeuristics(md, report)
	w.writeIntegrity(md, report)

	return md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *entity.AuditReport) {
	md.H1("UX Audit Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", report.Target},
			{"Report ID", "`" + report.ID + "`"},
			{"Created", report.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST")},
			{"Processing Time", strconv.FormatInt(report.ProcessingTimeMS, 10) + " ms"},
			{"Web Score", fmt.Sprintf("%d / 100", report.Recommendations.WebScore)},
			{"Strategy", string(report.Recommendations.Strategy)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, report *entity.AuditReport) {
	rec := report.Recommendations

	md.H2("Summary")
	md.PlainText("")
	md.PlainText(rec.Summary)
	md.PlainText("")

	md.H2("Priorities")
	md.PlainText("")
	if len(rec.Priorities) == 0 {
		md.PlainText("No priorities returned.")
		md.PlainText("")
		return
	}
	items := make([]string, len(rec.Priorities))
	for i, p := range rec.Priorities {
		items[i] = fmt.Sprintf("%d. %s", p.Rank, p.Text)
	}
	md.PlainText(strings.Join(items, "\n"))
	md.PlainText("")
}

func (w *MarkdownWriter) writeHeuristics(md *markdown.Markdown, report *entity.AuditReport) {
	h := report.Heuristics

	md.H2("Accessibility")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Signal", "Value"},
		Rows: [][]string{
			{"Images missing alt", strconv.Itoa(h.Accessibility.ImagesMissingAlt)},
			{"Images with empty alt", strconv.Itoa(h.Accessibility.ImagesEmptyAlt)},
			{"Inputs without labels", strconv.Itoa(h.Accessibility.InputsWithoutLabels)},
			{"ARIA labels", yesNo(h.Accessibility.HasAriaLabels)},
			{"Skip links", yesNo(h.Accessibility.HasSkipLinks)},
			{"Potential contrast issues", strconv.Itoa(h.Accessibility.PotentialContrastIssues)},
		},
	})
	md.PlainText("")

	title := "(missing)"
	if h.SEO.Title != nil {
		title = *h.SEO.Title
	}
	md.H2("SEO")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Signal", "Value"},
		Rows: [][]string{
			{"Title", title},
			{"Meta description", yesNo(h.SEO.MetaDescriptionPresent)},
			{"Viewport meta", yesNo(h.SEO.HasViewportMeta)},
			{"Vague link texts", strconv.Itoa(h.Links.VagueLinkTexts)},
			{"External links", fmt.Sprintf("%d of %d", h.Links.External, h.Links.Total)},
		},
	})
	md.PlainText("")

	md.H2("Structure")
	md.PlainText("")
	rows := make([][]string, 0, len(h.Headings))
	for _, level := range h.Headings {
		rows = append(rows, []string{strings.ToUpper(level.Tag), strconv.Itoa(level.Count)})
	}
	md.Table(markdown.TableSet{Header: []string{"Heading", "Count"}, Rows: rows})
	md.PlainText("")
	md.BulletList(
		fmt.Sprintf("Readability score: %.0f", h.Content.ReadabilityScore),
		fmt.Sprintf("Average paragraph length: %d", h.Content.AvgParagraphLength),
		fmt.Sprintf("Lazy-loaded images: %d", h.Performance.LazyImagesCount),
		fmt.Sprintf("Semantic elements: %d", h.ModernFeatures.SemanticHTML),
	)
	md.PlainText("")
}

func (w *MarkdownWriter) writeIntegrity(md *markdown.Markdown, report *entity.AuditReport) {
	md.H2("Integrity")
	md.PlainText("")
	md.BulletList(
		"Digest: `"+report.IntegrityStamp.Digest+"`",
		"Stamped: "+report.IntegrityStamp.Timestamp,
	)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
