package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The pacing defaults are deliberately conservative: this tool exists to
// crawl politely, and users who want to go faster must say so explicitly.
const (
	// DefaultMinDelay is the minimum pause between consecutive requests.
	// One second keeps request timing comfortably below what most sites
	// consider abusive.
	DefaultMinDelay = 1 * time.Second

	// DefaultMaxDelay is the upper bound of the jittered pause. Spreading
	// delays across [min, max] avoids the metronome-like timing that makes
	// crawler traffic easy to fingerprint and block.
	DefaultMaxDelay = 3 * time.Second

	// DefaultTimeout applies to each individual request attempt, including
	// each retry. 10 seconds is generous for listing pages on the clearnet.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRequestsPerMinute is an advisory budget only. The jittered
	// limiter does not enforce a global request count; see the ratelimit
	// package for the documented limitation.
	DefaultMaxRequestsPerMinute = 30

	// DefaultMaxPages caps the number of listing pages walked in one run.
	// This guards against sites whose "next" link never ends (calendar
	// pages, session-tokenized pagination, and similar traps).
	DefaultMaxPages = 1000

	// DefaultMaxBodySize limits the response body bytes read per page.
	// 5MB is far beyond any sane listing page while bounding memory.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultCacheTTL is how long cached responses stay valid. One hour
	// suits development loops where the same pages are fetched repeatedly.
	DefaultCacheTTL = 1 * time.Hour

	// AppName is the application name used for XDG directory paths.
	AppName = "politewalk"
)

// DefaultUserAgents is the built-in User-Agent rotation list. Each request
// picks one at random so header fingerprints vary across the run. Users can
// replace the list entirely via the config file or --user-agent flags.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114 Safari/537.36",
}

// Default CSS selectors for listing extraction. These match the classic
// catalog shape (an anchor per item carrying the title in an attribute, a
// "next" list element for pagination) and are overridable per host.
const (
	// DefaultItemSelector selects one anchor per listing item.
	DefaultItemSelector = "article.product_pod h3 a"

	// DefaultTitleAttr names the anchor attribute holding the full title.
	// Empty means use the anchor text instead.
	DefaultTitleAttr = "title"

	// DefaultNextSelector selects the anchor pointing at the next page.
	DefaultNextSelector = "li.next a"
)

// Selectors bundles the CSS selectors that drive listing extraction.
type Selectors struct {
	// Item selects one anchor element per listing entry.
	Item string `yaml:"item,omitempty"`

	// TitleAttr is the anchor attribute carrying the item title. When
	// empty, the anchor's text content is used.
	TitleAttr string `yaml:"titleAttr,omitempty"`

	// Next selects the anchor pointing at the next listing page. An empty
	// match means the pagination chain has ended.
	Next string `yaml:"next,omitempty"`
}

// DefaultSelectors returns the built-in selector set.
func DefaultSelectors() Selectors {
	return Selectors{
		Item:      DefaultItemSelector,
		TitleAttr: DefaultTitleAttr,
		Next:      DefaultNextSelector,
	}
}

// Config holds all options for one crawl run.
// It is populated from CLI flags and the optional config file, validated
// once, and passed into components via dependency injection rather than
// global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, CacheConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit. If the configuration grows significantly, consider refactoring
// into sub-structs.
type Config struct {
	// Seed is the absolute http/https URL the crawl starts from.
	Seed string

	// MinDelay and MaxDelay bound the jittered pause before each request
	// and before each discovered item is recorded.
	MinDelay time.Duration
	MaxDelay time.Duration

	// Timeout is the per-attempt HTTP timeout. Each retry gets the full
	// timeout again.
	Timeout time.Duration

	// MaxRequestsPerMinute is an advisory budget recorded in logs and
	// reports. It is not enforced: with short delays a sustained run can
	// exceed it because no global request counter exists.
	MaxRequestsPerMinute int

	// MaxPages caps listing pages per run as a runaway guard.
	MaxPages int

	// MaxBodySize caps response body bytes read per page.
	MaxBodySize int64

	// UserAgents is the rotation list; one entry is chosen at random per
	// request. Must not be empty.
	UserAgents []string

	// Proxy is an optional outbound proxy URL. Supported schemes:
	// http, https, socks5. Empty means direct connections.
	Proxy string

	// CacheEnabled turns on the SQLite response cache. A cache that fails
	// to initialize disables itself with a warning; it never aborts a run.
	CacheEnabled bool

	// CacheTTL is how long cached responses remain valid.
	CacheTTL time.Duration

	// CacheDir is the directory holding the cache database. Empty means
	// the XDG cache directory for politewalk.
	CacheDir string

	// Selectors drive listing extraction for the seed's host unless a
	// site-specific override applies.
	Selectors Selectors

	// Verbose enables slog.LevelDebug output. When false, only info and
	// above are logged.
	Verbose bool

	// ConfigFilePath is an explicit config file path. Empty means search
	// for .politewalk in the current directory and then the home directory.
	ConfigFilePath string

	// SiteConfigs holds per-host overrides loaded from the config file.
	SiteConfigs *File

	// JSONReport and MarkdownReport select the report format. Mutually
	// exclusive; both false means the plain text report.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout when set.
	ReportFile string
}

// NewConfig creates a Config with default values.
// All fields are set to safe, polite defaults. Users override specific
// values after creation via flags or the config file.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (delays, timeout, the
// User-Agent list). The constructor also serves as documentation of what
// the defaults are.
func NewConfig() *Config {
	return &Config{
		MinDelay:             DefaultMinDelay,
		MaxDelay:             DefaultMaxDelay,
		Timeout:              DefaultTimeout,
		MaxRequestsPerMinute: DefaultMaxRequestsPerMinute,
		MaxPages:             DefaultMaxPages,
		MaxBodySize:          DefaultMaxBodySize,
		UserAgents:           append([]string(nil), DefaultUserAgents...),
		CacheTTL:             DefaultCacheTTL,
		Selectors:            DefaultSelectors(),
	}
}

// XDGCacheDir returns the XDG cache directory for politewalk.
// On Linux: ~/.cache/politewalk
// On macOS: ~/Library/Caches/politewalk
// On Windows: %LOCALAPPDATA%\politewalk\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks whether the configuration is usable.
// It returns the first specific sentinel error found rather than
// collecting all errors, because fixing one often makes others irrelevant.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast with a clear message before any network I/O.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return ErrNoSeed
	}

	u, err := url.Parse(c.Seed)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidSeed
	}

	if c.MinDelay < 0 || c.MaxDelay < 0 {
		return ErrNegativeDelay
	}
	if c.MaxDelay < c.MinDelay {
		return ErrDelayBoundsInverted
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if len(c.UserAgents) == 0 {
		return ErrNoUserAgents
	}

	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.Proxy != "" {
		p, err := url.Parse(c.Proxy)
		if err != nil || p.Host == "" {
			return ErrInvalidProxy
		}
		switch p.Scheme {
		case "http", "https", "socks5":
		default:
			return ErrInvalidProxy
		}
	}

	if c.CacheEnabled && c.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// SeedHost returns the host of the seed URL. Validate must have succeeded.
func (c *Config) SeedHost() string {
	u, err := url.Parse(c.Seed)
	if err != nil {
		return ""
	}
	return u.Host
}
