package fetch

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/politewalk/internal/model"
)

// recordingSleep returns a sleep function that records requested
// durations without blocking.
func recordingSleep(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

// statusSequenceServer serves the given status codes in order, then 200
// with the given body. It counts requests.
func statusSequenceServer(t *testing.T, statuses []int, body string, hits *atomic.Int64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := hits.Add(1)
		if int(n) <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestDoSuccess tests the plain success path.
func TestDoSuccess(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := statusSequenceServer(t, nil, "<html><title>ok</title></html>", &hits)

	fetcher := NewFetcher(srv.Client())
	out := fetcher.Do(context.Background(), srv.URL)

	if !out.OK() {
		t.Fatalf("expected success, got %v: %v", out.Kind, out.Err)
	}
	if out.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", out.StatusCode)
	}
	if out.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", out.Attempts)
	}
	if string(out.Page.Body) != "<html><title>ok</title></html>" {
		t.Errorf("unexpected body %q", out.Page.Body)
	}
	if out.Page.URL != srv.URL {
		t.Errorf("expected page URL %q, got %q", srv.URL, out.Page.URL)
	}
}

// TestDoRetriesTransientStatuses verifies each retryable server status is
// retried and each permanent client status is not.
func TestDoRetriesTransientStatuses(t *testing.T) {
	t.Parallel()

	t.Run("transient statuses are retried to success", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{500, 502, 503, 504} {
			status := status
			t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
				t.Parallel()

				var hits atomic.Int64
				srv := statusSequenceServer(t, []int{status}, "ok", &hits)

				var waits []time.Duration
				fetcher := NewFetcher(srv.Client(), WithSleep(recordingSleep(&waits)))

				out := fetcher.Do(context.Background(), srv.URL)
				if !out.OK() {
					t.Fatalf("expected recovery from %d, got %v", status, out.Kind)
				}
				if out.Attempts != 2 {
					t.Errorf("expected 2 attempts, got %d", out.Attempts)
				}
				if got := hits.Load(); got != 2 {
					t.Errorf("expected 2 requests, got %d", got)
				}
			})
		}
	})

	t.Run("permanent statuses are never retried", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{400, 401, 403, 404} {
			status := status
			t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
				t.Parallel()

				var hits atomic.Int64
				srv := statusSequenceServer(t, []int{status, status, status, status, status}, "ok", &hits)

				var waits []time.Duration
				fetcher := NewFetcher(srv.Client(), WithSleep(recordingSleep(&waits)))

				out := fetcher.Do(context.Background(), srv.URL)
				if out.Kind != KindPermanent {
					t.Fatalf("expected permanent outcome for %d, got %v", status, out.Kind)
				}
				if out.StatusCode != status {
					t.Errorf("expected status %d, got %d", status, out.StatusCode)
				}
				if got := hits.Load(); got != 1 {
					t.Errorf("expected exactly 1 request, got %d", got)
				}
				if len(waits) != 0 {
					t.Errorf("expected no backoff waits, got %v", waits)
				}
			})
		}
	})

	t.Run("network errors are retried", func(t *testing.T) {
		t.Parallel()

		// Closed server: every attempt gets connection refused.
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		var waits []time.Duration
		fetcher := NewFetcher(http.DefaultClient, WithSleep(recordingSleep(&waits)))

		out := fetcher.Do(context.Background(), url)
		if out.Kind != KindTransient {
			t.Fatalf("expected transient outcome, got %v", out.Kind)
		}
		if out.Attempts != DefaultMaxAttempts {
			t.Errorf("expected %d attempts, got %d", DefaultMaxAttempts, out.Attempts)
		}
		// 5 attempts leave 4 backoff waits between them
		if len(waits) != DefaultMaxAttempts-1 {
			t.Errorf("expected %d backoff waits, got %d", DefaultMaxAttempts-1, len(waits))
		}
	})
}

// TestDoBackoffSchedule verifies the doubling backoff sequence and that a
// run of 503s followed by a 200 recovers after exactly the failed
// attempts plus one.
func TestDoBackoffSchedule(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := statusSequenceServer(t, []int{503, 503, 503}, "recovered", &hits)

	var waits []time.Duration
	fetcher := NewFetcher(srv.Client(), WithSleep(recordingSleep(&waits)))

	out := fetcher.Do(context.Background(), srv.URL)
	if !out.OK() {
		t.Fatalf("expected success after three 503s, got %v", out.Kind)
	}
	if out.Attempts != 4 {
		t.Errorf("expected exactly 4 attempts, got %d", out.Attempts)
	}
	if got := hits.Load(); got != 4 {
		t.Errorf("expected 4 requests on the wire, got %d", got)
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	if len(waits) != len(want) {
		t.Fatalf("expected %d backoff waits, got %v", len(want), waits)
	}
	for i, w := range want {
		if waits[i] != w {
			t.Errorf("backoff %d: expected %v, got %v", i, w, waits[i])
		}
	}
}

// TestDoRateLimited tests the 429 Retry-After layer.
func TestDoRateLimited(t *testing.T) {
	t.Parallel()

	t.Run("numeric Retry-After is honored with one reissue", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if hits.Add(1) == 1 {
				w.Header().Set("Retry-After", "2")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, "ok")
		}))
		t.Cleanup(srv.Close)

		var waits []time.Duration
		fetcher := NewFetcher(srv.Client(), WithSleep(recordingSleep(&waits)))

		out := fetcher.Do(context.Background(), srv.URL)
		if !out.OK() {
			t.Fatalf("expected success after 429, got %v", out.Kind)
		}
		if out.Attempts != 2 {
			t.Errorf("expected 2 attempts, got %d", out.Attempts)
		}
		if len(waits) != 1 || waits[0] != 2*time.Second {
			t.Errorf("expected a single 2s wait, got %v", waits)
		}
	})

	t.Run("HTTP-date Retry-After falls back to fixed wait", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if hits.Add(1) == 1 {
				w.Header().Set("Retry-After", "Wed, 21 Oct 2026 07:28:00 GMT")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, "ok")
		}))
		t.Cleanup(srv.Close)

		var waits []time.Duration
		fetcher := NewFetcher(srv.Client(), WithSleep(recordingSleep(&waits)))

		out := fetcher.Do(context.Background(), srv.URL)
		if !out.OK() {
			t.Fatalf("expected success after 429, got %v", out.Kind)
		}
		if len(waits) != 1 || waits[0] != DefaultRetryAfterFallback {
			t.Errorf("expected a single %v wait, got %v", DefaultRetryAfterFallback, waits)
		}
	})

	t.Run("missing Retry-After also falls back", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, "ok")
		}))
		t.Cleanup(srv.Close)

		var waits []time.Duration
		fetcher := NewFetcher(srv.Client(), WithSleep(recordingSleep(&waits)))

		out := fetcher.Do(context.Background(), srv.URL)
		if !out.OK() {
			t.Fatalf("expected success after 429, got %v", out.Kind)
		}
		if len(waits) != 1 || waits[0] != DefaultRetryAfterFallback {
			t.Errorf("expected fallback wait, got %v", waits)
		}
	})

	t.Run("persistent 429 surfaces after exactly one reissue", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		t.Cleanup(srv.Close)

		var waits []time.Duration
		fetcher := NewFetcher(srv.Client(), WithSleep(recordingSleep(&waits)))

		out := fetcher.Do(context.Background(), srv.URL)
		if out.Kind != KindRateLimited {
			t.Fatalf("expected rate limited outcome, got %v", out.Kind)
		}
		// One original attempt plus exactly one reissue, no generic
		// retries for 429.
		if got := hits.Load(); got != 2 {
			t.Errorf("expected 2 requests, got %d", got)
		}
		if out.Attempts != 2 {
			t.Errorf("expected 2 attempts recorded, got %d", out.Attempts)
		}
	})
}

// TestDoUserAgentRotation verifies the User-Agent always comes from the
// configured rotation list.
func TestDoUserAgentRotation(t *testing.T) {
	t.Parallel()

	agents := []string{"agent-a", "agent-b", "agent-c"}
	seen := make(chan string, 32)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get("User-Agent")
		fmt.Fprint(w, "ok")
	}))
	t.Cleanup(srv.Close)

	fetcher := NewFetcher(srv.Client(),
		WithUserAgents(agents),
		WithRand(rand.New(rand.NewSource(3))),
	)

	for i := 0; i < 10; i++ {
		if out := fetcher.Do(context.Background(), srv.URL); !out.OK() {
			t.Fatalf("fetch %d failed: %v", i, out.Err)
		}
	}
	close(seen)

	allowed := map[string]bool{"agent-a": true, "agent-b": true, "agent-c": true}
	for ua := range seen {
		if !allowed[ua] {
			t.Errorf("request used User-Agent %q outside the rotation list", ua)
		}
	}
}

// TestDoSendsConfiguredHeaders verifies per-site headers and cookie reach
// the wire.
func TestDoSendsConfiguredHeaders(t *testing.T) {
	t.Parallel()

	var gotLang, gotCookie, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.Header.Get("Accept-Language")
		gotCookie = r.Header.Get("Cookie")
		gotCustom = r.Header.Get("X-Custom")
		fmt.Fprint(w, "ok")
	}))
	t.Cleanup(srv.Close)

	fetcher := NewFetcher(srv.Client(),
		WithHeaders(map[string]string{"X-Custom": "yes", "Accept-Language": "pt-BR,pt;q=0.9"}),
		WithCookie("session=abc"),
	)

	if out := fetcher.Do(context.Background(), srv.URL); !out.OK() {
		t.Fatalf("fetch failed: %v", out.Err)
	}
	if gotLang != "pt-BR,pt;q=0.9" {
		t.Errorf("expected configured Accept-Language, got %q", gotLang)
	}
	if gotCookie != "session=abc" {
		t.Errorf("expected cookie sent, got %q", gotCookie)
	}
	if gotCustom != "yes" {
		t.Errorf("expected custom header sent, got %q", gotCustom)
	}
}

// fakeCache is an in-memory Cache implementation for tests.
type fakeCache struct {
	pages map[string]*model.Page
	puts  int
}

func (c *fakeCache) key(url, ua string) string { return url + "\x00" + ua }

func (c *fakeCache) Get(_ context.Context, url, ua string) (*model.Page, bool) {
	page, ok := c.pages[c.key(url, ua)]
	return page, ok
}

func (c *fakeCache) Put(_ context.Context, url, ua string, page *model.Page) {
	c.pages[c.key(url, ua)] = page
	c.puts++
}

// TestDoCache tests cache consultation and population.
func TestDoCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "fresh")
	}))
	t.Cleanup(srv.Close)

	cache := &fakeCache{pages: make(map[string]*model.Page)}
	fetcher := NewFetcher(srv.Client(),
		WithUserAgents([]string{"agent-a"}), // single agent keeps the cache key stable
		WithCache(cache),
	)

	first := fetcher.Do(context.Background(), srv.URL)
	if !first.OK() {
		t.Fatalf("first fetch failed: %v", first.Err)
	}
	if cache.puts != 1 {
		t.Errorf("expected 1 cache put, got %d", cache.puts)
	}

	second := fetcher.Do(context.Background(), srv.URL)
	if !second.OK() {
		t.Fatalf("second fetch failed: %v", second.Err)
	}
	if second.Attempts != 0 {
		t.Errorf("cached response should record zero attempts, got %d", second.Attempts)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected 1 network request, got %d", got)
	}
}

// TestOutcomeReason tests the human-readable failure descriptions.
func TestOutcomeReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		outcome Outcome
		want    string
	}{
		{
			name:    "success is empty",
			outcome: Outcome{Kind: KindSuccess},
			want:    "",
		},
		{
			name:    "permanent names the status",
			outcome: Outcome{Kind: KindPermanent, StatusCode: 404},
			want:    "permanent HTTP 404",
		},
		{
			name:    "transient with status",
			outcome: Outcome{Kind: KindTransient, StatusCode: 503, Attempts: 5},
			want:    "transient HTTP 503 persisted after 5 attempts",
		},
		{
			name:    "rate limited",
			outcome: Outcome{Kind: KindRateLimited, Attempts: 2},
			want:    "rate limited (HTTP 429) after 2 attempts",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.outcome.Reason(); got != tt.want {
				t.Errorf("Reason() = %q, want %q", got, tt.want)
			}
		})
	}
}
