// Package crawler walks a paginated listing politely.
//
// # Architecture
//
// Two components cooperate:
//
//   - Parser: extracts (title, link) items and the "next page" link from
//     one listing page, using configurable CSS selectors
//   - Walker: the control loop that decides whether, when, and how each
//     page is visited
//
// The Walker is the heart of the program. For every page it runs the same
// sequence: pace (jittered delay), authorize (robots.txt), fetch (with
// retry and Retry-After handling inside the fetcher), parse, record items,
// advance to the next page. The loop is strictly sequential; all waiting
// is literal blocking sleep so request ordering and politeness limits hold
// by construction.
//
// # Politeness
//
// The walker is designed to be polite:
//   - Respects robots.txt, degrading to a logged warning when unreadable
//   - Jittered delays before every request and every recorded item
//   - Honors Retry-After on 429 responses (inside the fetcher)
//   - Caps pages per run to guard against endless pagination
//
// # Usage
//
//	walker := crawler.NewWalker(authorizer, limiter, fetcher)
//	result := walker.Run(ctx, "http://books.toscrape.com/")
package crawler
