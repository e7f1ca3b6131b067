package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
)

// Decision is the answer to "may this URL be fetched?".
//
// Design decision: We use an explicit three-valued type rather than a
// bool-plus-error because:
//  1. "robots.txt unreadable" is not an error condition for a polite
//     crawler, it is a policy state the caller must act on
//  2. Callers are forced to handle Unknown explicitly instead of a
//     default branch swallowing it
//  3. The value appears in logs and reads better than a nil-error check
type Decision int

const (
	// Allowed means the policy permits fetching the URL, or no rule
	// matches its path.
	Allowed Decision = iota

	// Denied means the policy explicitly disallows the URL for the
	// configured user agent.
	Denied

	// Unknown means robots.txt could not be fetched or parsed. The crawl
	// may proceed, but the caller should log a warning.
	Unknown
)

// String returns a human-readable representation of the decision.
func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	case Unknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// policy is the cached outcome of one robots.txt fetch for a host.
// A nil data with fetched=true records an unreachable or unparseable
// robots.txt, so the host is not contacted again during the run.
type policy struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

// Authorizer fetches, caches, and evaluates robots.txt policies.
// It performs exactly one robots.txt request per distinct host per run,
// whether that request succeeds or fails.
//
// The Authorizer is not safe for concurrent use; the crawl loop that owns
// it is strictly sequential, so no locking is needed.
type Authorizer struct {
	// client performs robots.txt fetches. It is shared with the rest of
	// the run so connection reuse and proxy settings apply here too.
	client *http.Client

	// userAgent selects the robots.txt group to evaluate. The "*" group
	// is the fallback when no specific group matches.
	userAgent string

	// policies caches one entry per host, including failed fetches.
	policies map[string]*policy
}

// NewAuthorizer creates an Authorizer using the given HTTP client.
// The userAgent should be the product token the crawler identifies as;
// matching against robots.txt groups is done by the robotstxt library.
func NewAuthorizer(client *http.Client, userAgent string) *Authorizer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Authorizer{
		client:    client,
		userAgent: userAgent,
		policies:  make(map[string]*policy),
	}
}

// Authorize reports whether the given URL may be fetched.
// The first call for a host fetches its robots.txt; subsequent calls for
// the same host evaluate the cached policy without network I/O.
func (a *Authorizer) Authorize(ctx context.Context, rawURL string) Decision {
	target, err := url.Parse(rawURL)
	if err != nil || target.Host == "" {
		// An unparseable target cannot be matched against any rule.
		return Unknown
	}

	host := strings.ToLower(target.Host)
	pol, ok := a.policies[host]
	if !ok {
		pol = a.fetchPolicy(ctx, target.Scheme, target.Host)
		a.policies[host] = pol
	}

	if pol.data == nil {
		return Unknown
	}

	group := pol.data.FindGroup(a.userAgent)
	if group == nil {
		return Allowed
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}

	if group.Test(path) {
		return Allowed
	}
	return Denied
}

// FetchedPolicies returns the hosts whose robots.txt has been requested.
// Used by the crawl loop for run statistics.
func (a *Authorizer) FetchedPolicies() int {
	return len(a.policies)
}

// fetchPolicy retrieves and parses robots.txt for one host.
// Every failure mode produces a policy with nil data, which callers
// observe as Unknown.
func (a *Authorizer) fetchPolicy(ctx context.Context, scheme, host string) *policy {
	pol := &policy{fetchedAt: time.Now()}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return pol
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return pol
	}
	defer resp.Body.Close()

	// FromResponse applies conventional status semantics: 404 yields an
	// allow-all policy, 401/403 a disallow-all policy, and 5xx an error,
	// which we degrade to Unknown.
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return pol
	}

	pol.data = data
	return pol
}
