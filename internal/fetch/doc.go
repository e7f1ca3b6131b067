// Package fetch performs the HTTP retrieval half of the politeness
// control loop: one logical GET per call, with transient-error retry,
// exponential backoff, and Retry-After compliance handled beneath the
// caller.
//
// # Layering
//
// Two layers cooperate inside Fetcher.Do:
//
//  1. A generic retry layer handles network failures and the transient
//     server statuses (500, 502, 503, 504) with a fixed attempt budget
//     and doubling backoff.
//  2. Above it, a rate-limit layer handles HTTP 429: it honors the
//     Retry-After header (integer seconds, with a fixed fallback for
//     HTTP-date or missing values), sleeps, and reissues the request
//     exactly once outside the generic retry budget.
//
// Callers see only the final tagged Outcome; which attempts happened in
// between is this package's business. The retry policy is an explicit
// small object rather than transport middleware so the exact backoff
// sequence and retryable status set are directly testable.
package fetch
