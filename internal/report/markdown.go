package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/kumo/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format, including the
// retained page failures.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	summary := report.Summary
	if summary == nil {
		summary = &model.CrawlSummary{}
	}

	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeFetchErrors(md, summary)
	w.writeSkippedLinks(md, summary)
	w.writeFailures(md, report.Failures)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs only the aggregate counters in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.CrawlSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeFetchErrors(md, summary)
	w.writeSkippedLinks(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H1("Kumo Crawl Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URLs", w.seedsCell(summary)},
			{"Crawl Date", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration.Round(time.Millisecond).String()},
			{"Pages Crawled", strconv.Itoa(summary.TotalPages())},
			{"Status", w.getStatusText(summary)},
		},
	})
	md.PlainText("")
}

// seedsCell renders the seed list as a single backticked table cell.
func (w *MarkdownWriter) seedsCell(summary *model.CrawlSummary) string {
	if len(summary.Seeds) == 0 {
		return "-"
	}
	return "`" + strings.Join(summary.Seeds, "`, `") + "`"
}

// getStatusText returns the status text based on the run state.
func (w *MarkdownWriter) getStatusText(summary *model.CrawlSummary) string {
	if summary.Interrupted {
		return "⚠️ Interrupted (partial results)"
	}
	return "✅ Complete"
}

// writeSummary writes the crawl counter section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H2("Crawl Summary")
	md.PlainText("")

	// Counter table
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages fetched", strconv.Itoa(summary.PagesFetched)},
			{"Pages failed", strconv.Itoa(summary.PagesFailed)},
			{"Unique URLs", strconv.Itoa(summary.UniqueURLs)},
			{"Links found", strconv.Itoa(summary.LinksFound)},
			{"Links queued", strconv.Itoa(summary.LinksQueued)},
			{"Duplicate pages", strconv.Itoa(summary.DuplicatePages)},
			{"**Total attempted**", "**" + strconv.Itoa(summary.TotalPages()) + "**"},
		},
	})
	md.PlainText("")

	// Add alert based on run outcome
	w.writeAlert(md, summary)
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.CrawlSummary) {
	switch {
	case summary.Interrupted:
		md.Warningf(
			"The crawl was interrupted before the frontier drained. Counters cover the %d page(s) attempted before cancellation.",
			summary.TotalPages(),
		)
	case summary.PagesFailed > 0:
		md.Importantf(
			"%d page fetch(es) failed. The error breakdown is listed below.",
			summary.PagesFailed,
		)
	default:
		md.Tip("Every attempted page was fetched successfully.")
	}
	md.PlainText("")
}

// writeFetchErrors writes the fetch error breakdown with a pie chart.
func (w *MarkdownWriter) writeFetchErrors(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H2("Fetch Errors")
	md.PlainText("")

	if len(summary.FetchErrors) == 0 {
		md.PlainText("No fetch errors recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.FetchErrors))
	for _, kind := range sortedKinds(summary.FetchErrors) {
		rows = append(rows, []string{kind, strconv.Itoa(summary.FetchErrors[kind])})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Count"},
		Rows:   rows,
	})

	w.writePieChart(md, summary)
}

// writePieChart writes a mermaid pie chart for the fetch error distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.CrawlSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Fetch Error Distribution"),
		piechart.WithShowData(true),
	)

	for _, kind := range sortedKinds(summary.FetchErrors) {
		if count := summary.FetchErrors[kind]; count > 0 {
			chart.LabelAndIntValue(kind, uint64(count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeSkippedLinks writes the link rejection breakdown.
func (w *MarkdownWriter) writeSkippedLinks(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H2("Skipped Links")
	md.PlainText("")

	if len(summary.LinkErrors) == 0 {
		md.PlainText("No links were rejected during resolution.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.LinkErrors))
	for _, kind := range sortedKinds(summary.LinkErrors) {
		rows = append(rows, []string{kind, strconv.Itoa(summary.LinkErrors[kind])})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the retained failed-page records.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, failures []model.PageFailure) {
	md.H2("Failed Pages")
	md.PlainText("")

	if len(failures) == 0 {
		md.PlainText("No page fetches failed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(failures))
	for i, f := range failures {
		status := "-"
		if f.StatusCode != 0 {
			status = strconv.Itoa(f.StatusCode)
		}
		referrer := f.Referrer
		if referrer == "" {
			referrer = "-"
		}

		rows[i] = []string{
			truncateString(f.URL, 60),
			f.Kind,
			status,
			truncateString(referrer, 40),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Kind", "Status", "Found On"},
		Rows:   rows,
	})
	md.PlainText("")

	// Add full error messages for all failures
	for _, f := range failures {
		if f.Error != "" {
			md.Details(f.URL, f.Error)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [kumo](https://github.com/nao1215/kumo)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
