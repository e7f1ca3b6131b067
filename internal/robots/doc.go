// Package robots answers whether a crawler may fetch a given URL according
// to the target site's robots.txt policy.
//
// The Authorizer fetches and parses robots.txt at most once per host per
// run and caches the outcome, hit or miss. Policy matching follows
// conventional robots.txt semantics (longest matching path rule wins,
// unspecified paths default to allowed) via github.com/temoto/robotstxt.
//
// A robots.txt that cannot be fetched or parsed never blocks the crawl:
// the Authorizer answers Unknown and leaves the politeness judgement to
// the caller, who is expected to log a warning and proceed with caution.
package robots
