package model

import (
	"net/http"
	"time"
)

// MaxBodySize is the default cap on response body bytes kept in memory.
// Listing pages are small; anything larger is truncated rather than risking
// memory exhaustion from a misbehaving server.
const MaxBodySize = 5 * 1024 * 1024 // 5MB

// Page is the raw result of one successful page fetch.
//
// Design decision: We carry status, headers, and body together because:
//  1. The parser needs the body, the cache needs all three to replay a
//     response faithfully
//  2. Headers such as Content-Type drive parsing decisions downstream
//  3. A single value keeps the fetcher's success path to one return
type Page struct {
	// URL is the absolute URL the page was fetched from, after any
	// normalization performed by the crawl loop.
	URL string `json:"url"`

	// StatusCode is the final HTTP status code (always 2xx for a Page).
	StatusCode int `json:"status_code"`

	// Headers contains the HTTP response headers.
	Headers http.Header `json:"headers"`

	// Body is the response body, truncated to the configured size cap.
	Body []byte `json:"-"`

	// FetchedAt records when the response was received. Cached responses
	// keep their original fetch time so expiry is measured from the real
	// network exchange.
	FetchedAt time.Time `json:"fetched_at"`
}

// TruncateBody enforces the given body size cap in place.
// A cap of zero or less applies MaxBodySize.
func (p *Page) TruncateBody(maxBytes int64) {
	if maxBytes <= 0 {
		maxBytes = MaxBodySize
	}
	if int64(len(p.Body)) > maxBytes {
		p.Body = p.Body[:maxBytes]
	}
}
