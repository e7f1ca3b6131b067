package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoSeed is returned when no seed URL is specified.
	ErrNoSeed = errors.New("no seed specified: provide a seed URL as an argument")

	// ErrInvalidSeed is returned when the seed URL is not an absolute
	// http or https URL.
	ErrInvalidSeed = errors.New("invalid seed: must be an absolute http or https URL")

	// ErrNegativeDelay is returned when either pacing bound is negative.
	// Use 0 for no delay between requests.
	ErrNegativeDelay = errors.New("invalid delay: bounds must be non-negative")

	// ErrDelayBoundsInverted is returned when the maximum delay is smaller
	// than the minimum. A uniform draw from [min, max] requires min <= max.
	ErrDelayBoundsInverted = errors.New("invalid delay: max delay must not be smaller than min delay")

	// ErrInvalidTimeout is returned when the per-request timeout is not
	// positive. A zero timeout would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrNoUserAgents is returned when the User-Agent rotation list is
	// empty. Every request needs a User-Agent header to send.
	ErrNoUserAgents = errors.New("invalid user agents: rotation list must not be empty")

	// ErrInvalidMaxPages is returned when the page cap is not positive.
	// A cap of zero would mean the crawl can never fetch anything.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidMaxBodySize is returned when the body size cap is negative.
	// Use 0 to apply the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidProxy is returned when the proxy URL cannot be parsed or
	// uses a scheme other than http, https, or socks5.
	ErrInvalidProxy = errors.New("invalid proxy: must be an http, https, or socks5 URL")

	// ErrInvalidCacheTTL is returned when caching is enabled with a
	// non-positive expiry.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL: must be positive when caching is enabled")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
