package fetch

import (
	"fmt"
	"time"

	"github.com/nao1215/politewalk/internal/model"
)

// OutcomeKind tags the result of one logical fetch.
//
// Design decision: We use an explicit tagged result instead of returning
// (resp, err) because:
//  1. "429 with a Retry-After" and "connection refused" demand different
//     handling, and errors.As chains hide that distinction
//  2. The crawl loop matches on the tag explicitly, so no failure mode
//     can slip through a default branch unnoticed
//  3. The tag names appear in logs and abort reasons as-is
type OutcomeKind int

const (
	// KindSuccess means a 2xx response was received.
	KindSuccess OutcomeKind = iota

	// KindRateLimited means the server answered 429 and the rate-limit
	// layer could not resolve it with its single extra attempt.
	KindRateLimited

	// KindTransient means a network failure or retryable server status
	// persisted through the whole retry budget.
	KindTransient

	// KindPermanent means a client error (4xx other than 429) or another
	// unhandled status; retrying would not help.
	KindPermanent
)

// String returns a human-readable representation of the kind.
func (k OutcomeKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient_error"
	case KindPermanent:
		return "permanent_error"
	default:
		return "invalid"
	}
}

// Outcome is the tagged result of one logical fetch, after all retry
// handling has run its course.
type Outcome struct {
	// Kind tags which variant this outcome is.
	Kind OutcomeKind

	// Page holds the response for KindSuccess; nil otherwise.
	Page *model.Page

	// StatusCode is the last HTTP status observed, or 0 when the failure
	// happened below the HTTP layer (DNS, connect, timeout).
	StatusCode int

	// RetryAfter is the server-requested wait for KindRateLimited.
	RetryAfter time.Duration

	// Err carries the underlying error for failed outcomes, wrapped with
	// attempt context. Nil for KindSuccess.
	Err error

	// Attempts counts HTTP requests actually issued for this logical
	// fetch, including the Retry-After reissue.
	Attempts int
}

// OK reports whether the fetch succeeded.
func (o Outcome) OK() bool {
	return o.Kind == KindSuccess
}

// Reason returns a human-readable failure description for logs and abort
// reasons. Empty for successful outcomes.
func (o Outcome) Reason() string {
	switch o.Kind {
	case KindSuccess:
		return ""
	case KindRateLimited:
		return fmt.Sprintf("rate limited (HTTP 429) after %d attempts", o.Attempts)
	case KindTransient:
		if o.StatusCode != 0 {
			return fmt.Sprintf("transient HTTP %d persisted after %d attempts", o.StatusCode, o.Attempts)
		}
		return fmt.Sprintf("network error persisted after %d attempts: %v", o.Attempts, o.Err)
	case KindPermanent:
		return fmt.Sprintf("permanent HTTP %d", o.StatusCode)
	default:
		return "invalid outcome"
	}
}

// success builds a successful outcome.
func success(page *model.Page, attempts int) Outcome {
	return Outcome{
		Kind:       KindSuccess,
		Page:       page,
		StatusCode: page.StatusCode,
		Attempts:   attempts,
	}
}
