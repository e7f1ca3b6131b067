package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/politewalk/internal/model"
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

	// showEmpty controls whether the items section is shown when no
	// items were discovered.
	showEmpty bool

	// verbose enables per-item URLs in the output.
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

// WithVerbose enables verbose output with item URLs.
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

// Write outputs the crawl result in human-readable format.
func (w *SimpleWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeItems(&sb, result)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.CrawlResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         POLITEWALK REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed URL:      %s\n", result.Seed))
	sb.WriteString(fmt.Sprintf("Started:       %s\n", result.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:      %s\n", result.Duration().Round(10*time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Pages Fetched: %d\n", result.PagesFetched))
	sb.WriteString(fmt.Sprintf("Items Found:   %d\n", len(result.Items)))
	sb.WriteString(fmt.Sprintf("Status:        %s\n", w.statusText(result)))

	sb.WriteString("\n")
}

// statusText renders the terminal status with its reason, if any.
func (w *SimpleWriter) statusText(result *model.CrawlResult) string {
	switch result.Status {
	case model.StatusCompleted:
		return "Complete"
	case model.StatusBlockedByRobots:
		return "BLOCKED BY ROBOTS.TXT - " + result.Reason
	case model.StatusAborted:
		return "ABORTED (partial results) - " + result.Reason
	default:
		return string(result.Status)
	}
}

// writeItems writes the discovered items section.
func (w *SimpleWriter) writeItems(sb *strings.Builder, result *model.CrawlResult) {
	if len(result.Items) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DISCOVERED ITEMS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(result.Items) == 0 {
		sb.WriteString("  No items discovered\n")
	} else {
		for i, item := range result.Items {
			sb.WriteString(fmt.Sprintf("  %3d. %s\n", i+1, item.Title))
			if w.verbose {
				sb.WriteString(fmt.Sprintf("       %s\n", item.URL))
			}
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by politewalk\n")
	sb.WriteString("https://github.com/nao1215/politewalk\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
