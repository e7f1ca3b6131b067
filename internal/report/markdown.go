package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/politewalk/internal/model"
)

// MarkdownWriter outputs crawl results in Markdown format.
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

// Write outputs the crawl result in Markdown format.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeStatusAlert(md, result)
	w.writeItems(md, result)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.CrawlResult) {
	md.H1("politewalk Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + result.Seed + "`"},
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", result.Duration().String()},
			{"Pages Fetched", strconv.Itoa(result.PagesFetched)},
			{"Items Found", strconv.Itoa(len(result.Items))},
			{"Status", w.statusText(result)},
		},
	})
	md.PlainText("")
}

// statusText returns the status cell text based on how the run ended.
func (w *MarkdownWriter) statusText(result *model.CrawlResult) string {
	switch result.Status {
	case model.StatusCompleted:
		return "✅ Complete"
	case model.StatusBlockedByRobots:
		return "⛔ Blocked by robots.txt"
	case model.StatusAborted:
		return "⚠️ Aborted (partial results)"
	default:
		return string(result.Status)
	}
}

// writeStatusAlert writes a GitHub-flavored alert for abnormal runs.
func (w *MarkdownWriter) writeStatusAlert(md *markdown.Markdown, result *model.CrawlResult) {
	switch result.Status {
	case model.StatusBlockedByRobots:
		md.Cautionf("The crawl was not started: %s.", result.Reason)
	case model.StatusAborted:
		md.Warningf("The crawl stopped early: %s. Items below are partial.", result.Reason)
	default:
		return
	}
	md.PlainText("")
}

// writeItems writes the discovered items table.
func (w *MarkdownWriter) writeItems(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Discovered Items")
	md.PlainText("")

	if len(result.Items) == 0 {
		md.PlainText("No items discovered.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(result.Items))
	for i, item := range result.Items {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			item.Title,
			"[link](" + item.URL + ")",
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Title", "URL"},
		Rows:   rows,
	})
	md.PlainText("")
}
