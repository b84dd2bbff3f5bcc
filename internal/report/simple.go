package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/kumo/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format, including the
// retained page failures.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	summary := report.Summary
	if summary == nil {
		summary = &model.CrawlSummary{}
	}

	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeSummary(&sb, summary)
	w.writeFetchErrors(&sb, summary)
	w.writeSkippedLinks(&sb, summary)
	w.writeFailures(&sb, report.Failures)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteSummary outputs only the aggregate counters in human-readable
// format. The failed-pages section is omitted because the summary does
// not carry per-page records.
func (w *SimpleWriter) WriteSummary(summary *model.CrawlSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeSummary(&sb, summary)
	w.writeFetchErrors(&sb, summary)
	w.writeSkippedLinks(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         KUMO CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed URLs:      %s\n", strings.Join(summary.Seeds, ", ")))
	sb.WriteString(fmt.Sprintf("Crawl Date:     %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:       %s\n", summary.Duration.Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Pages Crawled:  %d\n", summary.TotalPages()))

	if summary.Interrupted {
		sb.WriteString("Status:         INTERRUPTED (partial results)\n")
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the crawl counter section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Pages fetched:    %d\n", summary.PagesFetched))
	sb.WriteString(fmt.Sprintf("  Pages failed:     %d\n", summary.PagesFailed))
	sb.WriteString(fmt.Sprintf("  Unique URLs:      %d\n", summary.UniqueURLs))
	sb.WriteString(fmt.Sprintf("  Links found:      %d\n", summary.LinksFound))
	sb.WriteString(fmt.Sprintf("  Links queued:     %d\n", summary.LinksQueued))
	sb.WriteString(fmt.Sprintf("  Duplicate pages:  %d\n", summary.DuplicatePages))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  TOTAL:            %d pages attempted\n", summary.TotalPages()))
	sb.WriteString("\n")
}

// writeFetchErrors writes the fetch error breakdown by kind.
func (w *SimpleWriter) writeFetchErrors(sb *strings.Builder, summary *model.CrawlSummary) {
	if len(summary.FetchErrors) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FETCH ERRORS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summary.FetchErrors) == 0 {
		sb.WriteString("  No fetch errors recorded\n")
	} else {
		for _, kind := range sortedKinds(summary.FetchErrors) {
			sb.WriteString(fmt.Sprintf("  %-13s %d\n", kind+":", summary.FetchErrors[kind]))
		}
	}
	sb.WriteString("\n")
}

// writeSkippedLinks writes the link rejection breakdown by kind.
func (w *SimpleWriter) writeSkippedLinks(sb *strings.Builder, summary *model.CrawlSummary) {
	if len(summary.LinkErrors) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SKIPPED LINKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summary.LinkErrors) == 0 {
		sb.WriteString("  No links were rejected\n")
	} else {
		for _, kind := range sortedKinds(summary.LinkErrors) {
			sb.WriteString(fmt.Sprintf("  %-13s %d\n", kind+":", summary.LinkErrors[kind]))
		}
	}
	sb.WriteString("\n")
}

// writeFailures writes the retained failed-page records.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, failures []model.PageFailure) {
	if len(failures) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILED PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(failures) == 0 {
		sb.WriteString("  No page fetches failed\n\n")
		return
	}

	for _, failure := range failures {
		sb.WriteString(fmt.Sprintf("  * %s\n", failure.URL))
		sb.WriteString(fmt.Sprintf("    Kind:     %s\n", failure.Kind))
		if failure.StatusCode != 0 {
			sb.WriteString(fmt.Sprintf("    Status:   %d\n", failure.StatusCode))
		}
		if failure.Referrer != "" {
			sb.WriteString(fmt.Sprintf("    Found on: %s\n", failure.Referrer))
		}
		if w.verbose && failure.Error != "" {
			sb.WriteString(fmt.Sprintf("    Error:    %s\n", failure.Error))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by kumo\n")
	sb.WriteString("https://github.com/nao1215/kumo\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
