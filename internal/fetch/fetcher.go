package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/nao1215/politewalk/internal/model"
)

// Retry policy defaults, mirroring a conservative browser-adjacent client.
const (
	// DefaultMaxAttempts is the total request budget of the generic retry
	// layer, the first attempt included.
	DefaultMaxAttempts = 5

	// DefaultBackoffBase is the first backoff delay; each subsequent
	// retry doubles it (1s, 2s, 4s, 8s, 16s).
	DefaultBackoffBase = 1 * time.Second

	// DefaultRetryAfterFallback applies when a 429 response has no
	// Retry-After header or carries one we cannot parse (an HTTP-date).
	DefaultRetryAfterFallback = 60 * time.Second
)

// retryableStatuses are the server statuses the generic retry layer
// considers transient. 429 is deliberately absent: the rate-limit layer
// above handles it with Retry-After semantics.
var retryableStatuses = map[int]bool{
	http.StatusInternalServerError: true, // 500
	http.StatusBadGateway:          true, // 502
	http.StatusServiceUnavailable:  true, // 503
	http.StatusGatewayTimeout:      true, // 504
}

// Cache is a transparent GET-response store consulted before the network.
// Implementations replay stored responses keyed by URL and User-Agent.
type Cache interface {
	// Get returns the cached page for the key, if present and fresh.
	Get(ctx context.Context, url, userAgent string) (*model.Page, bool)

	// Put stores a successful response. Failures are the implementation's
	// problem to log; caching must never break a fetch.
	Put(ctx context.Context, url, userAgent string, page *model.Page)
}

// Fetcher performs one logical HTTP GET per Do call, hiding retries,
// backoff, and Retry-After waits beneath the call.
//
// The Fetcher is not safe for concurrent use; the crawl loop that owns it
// is strictly sequential. The underlying http.Client is shared across the
// run for connection reuse.
type Fetcher struct {
	// client performs the actual requests.
	client *http.Client

	// userAgents is the rotation list; one entry is drawn per logical
	// fetch so all attempts of a fetch present the same identity.
	userAgents []string

	// headers are extra request headers (per-site configuration).
	headers map[string]string

	// cookie is an optional Cookie header value.
	cookie string

	// maxAttempts, backoffBase, and retryAfterFallback define the retry
	// policy. They are fields rather than constants so tests can shrink
	// the schedule to milliseconds.
	maxAttempts        int
	backoffBase        time.Duration
	retryAfterFallback time.Duration

	// maxBodySize caps response body bytes read per page.
	maxBodySize int64

	// rng drives User-Agent rotation. Injectable for deterministic tests.
	rng *rand.Rand

	// sleep performs backoff and Retry-After waits. Injectable so tests
	// can record the schedule without real sleeping.
	sleep func(ctx context.Context, d time.Duration) error

	// logger records retry and rate-limit events.
	logger *slog.Logger

	// cache is the optional response cache. Nil disables caching.
	cache Cache
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgents sets the User-Agent rotation list.
func WithUserAgents(agents []string) Option {
	return func(f *Fetcher) {
		if len(agents) > 0 {
			f.userAgents = agents
		}
	}
}

// WithHeaders sets extra request headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithCookie sets the Cookie header value sent with every request.
func WithCookie(cookie string) Option {
	return func(f *Fetcher) {
		f.cookie = cookie
	}
}

// WithMaxAttempts sets the total attempt budget of the retry layer.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithBackoffBase sets the first backoff delay. Tests use milliseconds.
func WithBackoffBase(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.backoffBase = d
		}
	}
}

// WithRetryAfterFallback sets the wait used when a 429 response has no
// parseable Retry-After value.
func WithRetryAfterFallback(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.retryAfterFallback = d
		}
	}
}

// WithMaxBodySize caps response body bytes read per page.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithRand sets the random source used for User-Agent rotation.
func WithRand(rng *rand.Rand) Option {
	return func(f *Fetcher) {
		f.rng = rng
	}
}

// WithSleep replaces the wait function used for backoff and Retry-After.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithCache enables the response cache.
func WithCache(cache Cache) Option {
	return func(f *Fetcher) {
		f.cache = cache
	}
}

// NewFetcher creates a Fetcher using the given shared HTTP client.
//
// Design decision: We require an external client because:
//  1. Proxy and timeout configuration is handled by NewHTTPClient
//  2. The robots authorizer shares the same client, so the whole run
//     reuses one connection pool
//  3. Tests can pass an httptest server's client directly
func NewFetcher(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:             client,
		userAgents:         []string{"politewalk/1.0"},
		maxAttempts:        DefaultMaxAttempts,
		backoffBase:        DefaultBackoffBase,
		retryAfterFallback: DefaultRetryAfterFallback,
		maxBodySize:        model.MaxBodySize,
		rng:                rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // UA rotation needs no cryptographic strength
		sleep:              sleepContext,
		logger:             slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Do performs one logical GET against rawURL and returns the final
// tagged outcome. All retrying happens beneath this call.
func (f *Fetcher) Do(ctx context.Context, rawURL string) Outcome {
	userAgent := f.userAgents[f.rng.Intn(len(f.userAgents))]

	if f.cache != nil {
		if page, ok := f.cache.Get(ctx, rawURL, userAgent); ok {
			f.logger.Debug("cache hit", "url", rawURL)
			return success(page, 0)
		}
	}

	out := f.withRetries(ctx, rawURL, userAgent)

	// 429 is resolved above the generic retry layer: honor the requested
	// wait, then reissue exactly once. A second failure of any kind is
	// surfaced as the final outcome.
	if out.Kind == KindRateLimited {
		f.logger.Warn("received 429, honoring Retry-After",
			"url", rawURL,
			"wait", out.RetryAfter,
		)
		if err := f.sleep(ctx, out.RetryAfter); err != nil {
			out.Err = err
			return out
		}

		second := f.attemptOnce(ctx, rawURL, userAgent)
		second.Attempts = out.Attempts + 1
		out = second
	}

	if out.OK() && f.cache != nil {
		f.cache.Put(ctx, rawURL, userAgent, out.Page)
	}

	return out
}

// withRetries runs the generic retry layer: transient failures are
// retried with doubling backoff until the attempt budget is spent.
// Success, permanent errors, and 429 all return immediately.
func (f *Fetcher) withRetries(ctx context.Context, rawURL, userAgent string) Outcome {
	var last Outcome
	delay := f.backoffBase

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		out := f.attemptOnce(ctx, rawURL, userAgent)
		out.Attempts = attempt

		if out.Kind != KindTransient {
			return out
		}
		last = out

		if attempt == f.maxAttempts {
			break
		}

		f.logger.Debug("transient failure, backing off",
			"url", rawURL,
			"attempt", attempt,
			"status", out.StatusCode,
			"backoff", delay,
			"error", out.Err,
		)
		if err := f.sleep(ctx, delay); err != nil {
			last.Err = err
			return last
		}
		delay *= 2
	}

	return last
}

// attemptOnce issues a single GET and classifies the response.
func (f *Fetcher) attemptOnce(ctx context.Context, rawURL, userAgent string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		// A URL that cannot become a request will never succeed.
		return Outcome{Kind: KindPermanent, Err: fmt.Errorf("build request: %w", err)}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// Connection refused, DNS failure, timeout: all transient.
		return Outcome{Kind: KindTransient, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		page, err := f.readPage(rawURL, resp)
		if err != nil {
			return Outcome{Kind: KindTransient, StatusCode: resp.StatusCode, Err: err}
		}
		return Outcome{Kind: KindSuccess, Page: page, StatusCode: resp.StatusCode}

	case resp.StatusCode == http.StatusTooManyRequests:
		return Outcome{
			Kind:       KindRateLimited,
			StatusCode: resp.StatusCode,
			RetryAfter: f.parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}

	case retryableStatuses[resp.StatusCode]:
		return Outcome{
			Kind:       KindTransient,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}

	default:
		return Outcome{
			Kind:       KindPermanent,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}
}

// readPage reads the response body into a Page, decoding legacy charsets
// to UTF-8 and enforcing the body size cap.
func (f *Fetcher) readPage(rawURL string, resp *http.Response) (*model.Page, error) {
	limited := io.LimitReader(resp.Body, f.maxBodySize)

	// charset.NewReader inspects Content-Type and the document prologue;
	// on any doubt it passes bytes through unchanged.
	decoded, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		decoded = limited
	}

	body, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	page := &model.Page{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		FetchedAt:  time.Now(),
	}
	page.TruncateBody(f.maxBodySize)
	return page, nil
}

// parseRetryAfter interprets a Retry-After header value as integer
// seconds. HTTP-date values and absent headers yield the fixed fallback.
func (f *Fetcher) parseRetryAfter(value string) time.Duration {
	if value == "" {
		return f.retryAfterFallback
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return f.retryAfterFallback
	}
	return time.Duration(seconds) * time.Second
}

// sleepContext sleeps for d unless the context is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
