// Package report renders crawl results in several output formats.
//
// The package provides a Writer interface with text, JSON, and Markdown
// implementations, plus a MultiWriter for writing to several destinations
// at once (typically terminal and file).
package report
