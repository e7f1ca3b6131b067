package model

import "time"

// TerminalStatus describes how a crawl run ended.
type TerminalStatus string

// Terminal statuses for a crawl run.
//
// Design decision: We use a string type rather than iota constants because:
//  1. The status appears verbatim in logs, reports, and JSON output
//  2. String values stay stable across releases, unlike iota ordering
//  3. Callers can still switch on the typed constants
const (
	// StatusCompleted means the pagination chain was walked to its end.
	StatusCompleted TerminalStatus = "completed"

	// StatusBlockedByRobots means robots.txt explicitly disallowed the seed
	// URL and no page fetch was attempted.
	StatusBlockedByRobots TerminalStatus = "blocked_by_robots"

	// StatusAborted means an unrecoverable error stopped the run. Items
	// collected before the failure remain valid in the result.
	StatusAborted TerminalStatus = "aborted"
)

// CrawlResult is the complete outcome of one crawl run.
// It is well-formed on every exit path: an aborted run still carries the
// items discovered up to the last successfully processed page.
type CrawlResult struct {
	// Seed is the URL the crawl started from.
	Seed string `json:"seed"`

	// Items are the discovered listing entries in discovery order: pages in
	// fetch order, items in document order within each page.
	Items []Item `json:"items"`

	// PagesFetched counts listing pages actually retrieved over the network
	// (the robots.txt fetch is not included).
	PagesFetched int `json:"pages_fetched"`

	// Status is the terminal state of the run.
	Status TerminalStatus `json:"status"`

	// Reason is a human-readable explanation for BlockedByRobots and
	// Aborted runs. Empty when the run completed normally.
	Reason string `json:"reason,omitempty"`

	// StartedAt and FinishedAt bound the run for reporting.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns the wall-clock duration of the run.
func (r *CrawlResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Completed reports whether the run walked the full pagination chain.
func (r *CrawlResult) Completed() bool {
	return r.Status == StatusCompleted
}
