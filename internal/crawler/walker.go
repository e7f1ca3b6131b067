package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/politewalk/internal/config"
	"github.com/nao1215/politewalk/internal/fetch"
	"github.com/nao1215/politewalk/internal/model"
	"github.com/nao1215/politewalk/internal/ratelimit"
	"github.com/nao1215/politewalk/internal/robots"
)

// Walker drives one crawl run through its states: resolve the robots
// policy, then for each page pace, authorize, fetch, parse, record items,
// and advance along the next-page chain until it ends or an unrecoverable
// error occurs.
//
// The Walker owns all mutable run state (the visited set, the page
// cursor) exclusively; it is single-use and not safe for concurrent use.
type Walker struct {
	// authorizer answers robots.txt questions, one fetch per host.
	authorizer *robots.Authorizer

	// limiter paces every request and every recorded item.
	limiter *ratelimit.Limiter

	// fetcher performs the retrying HTTP retrieval.
	fetcher *fetch.Fetcher

	// selectors drive listing extraction.
	selectors config.Selectors

	// maxPages caps listing pages per run.
	maxPages int

	// logger records structured progress events.
	logger *slog.Logger

	// visited tracks normalized URLs already processed this run, both
	// listing pages and item URLs.
	visited map[string]bool
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithSelectors sets the CSS selectors for listing extraction.
func WithSelectors(s config.Selectors) WalkerOption {
	return func(w *Walker) {
		w.selectors = s
	}
}

// WithMaxPages caps the number of listing pages walked in one run.
func WithMaxPages(n int) WalkerOption {
	return func(w *Walker) {
		if n > 0 {
			w.maxPages = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		w.logger = logger
	}
}

// NewWalker creates a Walker from its three collaborators.
//
// Design decision: We require the collaborators rather than building them
// internally because:
//  1. The fetcher and authorizer share one HTTP client, wired by the caller
//  2. Tests inject zero-delay limiters and short retry schedules
//  3. Construction stays free of I/O
func NewWalker(authorizer *robots.Authorizer, limiter *ratelimit.Limiter, fetcher *fetch.Fetcher, opts ...WalkerOption) *Walker {
	w := &Walker{
		authorizer: authorizer,
		limiter:    limiter,
		fetcher:    fetcher,
		selectors:  config.DefaultSelectors(),
		maxPages:   config.DefaultMaxPages,
		logger:     slog.Default(),
		visited:    make(map[string]bool),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run walks the pagination chain from seed and returns the run result.
// The result is well-formed on every exit path: items discovered before
// an abort remain in it, and Reason explains non-completed statuses.
func (w *Walker) Run(ctx context.Context, seed string) *model.CrawlResult {
	result := &model.CrawlResult{
		Seed:      seed,
		Items:     make([]model.Item, 0),
		Status:    model.StatusCompleted,
		StartedAt: time.Now(),
	}
	defer func() {
		result.FinishedAt = time.Now()
		w.logger.Info("run finished",
			"status", string(result.Status),
			"reason", result.Reason,
			"items", len(result.Items),
			"pages", result.PagesFetched,
		)
	}()

	// Starting: resolve the robots policy for the seed before anything
	// else. An explicit denial ends the run without a single page fetch.
	switch decision := w.authorizer.Authorize(ctx, seed); decision {
	case robots.Denied:
		w.logger.Error("seed URL disallowed by robots.txt", "url", seed)
		result.Status = model.StatusBlockedByRobots
		result.Reason = "robots.txt disallows the seed URL"
		return result
	case robots.Unknown:
		w.logger.Warn("robots.txt unreadable, proceeding with caution", "url", seed)
	case robots.Allowed:
		w.logger.Info("robots check passed", "url", seed, "decision", decision.String())
	}

	current := seed
	for current != "" {
		if err := ctx.Err(); err != nil {
			return w.abort(result, fmt.Sprintf("run cancelled: %v", err))
		}

		if result.PagesFetched >= w.maxPages {
			w.logger.Warn("page cap reached, stopping", "maxPages", w.maxPages)
			return result
		}

		if w.isVisited(current) {
			// A next link pointing back into the chain would otherwise
			// loop forever.
			w.logger.Warn("pagination cycle detected, stopping", "url", current)
			return result
		}
		w.markVisited(current)

		// FetchingPage: pace, authorize, fetch.
		if err := w.limiter.Wait(ctx); err != nil {
			return w.abort(result, fmt.Sprintf("run cancelled: %v", err))
		}

		switch decision := w.authorizer.Authorize(ctx, current); decision {
		case robots.Denied:
			w.logger.Error("page disallowed by robots.txt", "url", current)
			return w.abort(result, fmt.Sprintf("robots.txt disallows %s", current))
		case robots.Unknown:
			w.logger.Warn("robots.txt unreadable for page host", "url", current)
		case robots.Allowed:
		}

		w.logger.Info("requesting page", "url", current)
		out := w.fetcher.Do(ctx, current)
		if !out.OK() {
			w.logger.Error("page fetch failed",
				"url", current,
				"kind", out.Kind.String(),
				"status", out.StatusCode,
				"error", out.Err,
			)
			return w.abort(result, fmt.Sprintf("fetching %s: %s", current, out.Reason()))
		}
		result.PagesFetched++

		// ParsingPage: hand the body to the listing parser.
		listing, err := w.parsePage(current, out.Page)
		if err != nil {
			w.logger.Error("page parse failed", "url", current, "error", err)
			return w.abort(result, fmt.Sprintf("parsing %s: %v", current, err))
		}

		// ProcessingItems: record unseen items in document order, pacing
		// between them. Item pages themselves are not fetched; that is an
		// extension point for detail scrapers built on top.
		for _, item := range listing.Items {
			if w.isVisited(item.URL) {
				continue
			}
			w.markVisited(item.URL)
			result.Items = append(result.Items, item)
			w.logger.Info("item discovered", "title", item.Title, "url", item.URL)

			if err := w.limiter.Wait(ctx); err != nil {
				return w.abort(result, fmt.Sprintf("run cancelled: %v", err))
			}
		}

		// AdvancingPage: follow the next link or finish.
		if listing.NextURL == "" {
			w.logger.Info("pagination chain exhausted", "pages", result.PagesFetched)
			return result
		}
		current = listing.NextURL
	}

	return result
}

// parsePage runs the listing parser over a fetched page.
func (w *Walker) parsePage(pageURL string, page *model.Page) (*Listing, error) {
	parser, err := NewParser(pageURL, w.selectors)
	if err != nil {
		return nil, err
	}
	return parser.Parse(bytes.NewReader(page.Body))
}

// abort moves the result to the aborted terminal state with a reason.
// Items collected so far stay valid.
func (w *Walker) abort(result *model.CrawlResult, reason string) *model.CrawlResult {
	result.Status = model.StatusAborted
	result.Reason = reason
	return result
}

// isVisited checks whether a URL has been processed this run.
func (w *Walker) isVisited(rawURL string) bool {
	return w.visited[normalizeURL(rawURL)]
}

// markVisited records a URL as processed.
func (w *Walker) markVisited(rawURL string) {
	w.visited[normalizeURL(rawURL)] = true
}

// normalizeURL normalizes a URL for deduplication.
//
// Design decision: We normalize because:
//  1. The same page can appear under different URL spellings
//  2. Fragments (#anchor) don't change content
//  3. An empty path and "/" are the same resource
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}
