package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// robotsServer returns a test server that serves the given robots.txt body
// and counts how many times it was requested.
func robotsServer(t *testing.T, body string, hits *atomic.Int64) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html></html>")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestAuthorize tests policy evaluation against a served robots.txt.
func TestAuthorize(t *testing.T) {
	t.Parallel()

	const policy = `
User-agent: *
Disallow: /private/
Disallow: /admin

User-agent: politewalk
Disallow: /catalogue/secret/
`

	t.Run("disallowed paths are never allowed", func(t *testing.T) {
		t.Parallel()

		srv := robotsServer(t, policy, nil)
		auth := NewAuthorizer(srv.Client(), "politewalk")

		tests := []string{
			srv.URL + "/catalogue/secret/",
			srv.URL + "/catalogue/secret/page-1.html",
		}
		for _, target := range tests {
			if got := auth.Authorize(context.Background(), target); got != Denied {
				t.Errorf("Authorize(%q) = %v, want denied", target, got)
			}
		}
	})

	t.Run("unspecified paths default to allowed", func(t *testing.T) {
		t.Parallel()

		srv := robotsServer(t, policy, nil)
		auth := NewAuthorizer(srv.Client(), "politewalk")

		if got := auth.Authorize(context.Background(), srv.URL+"/catalogue/page-1.html"); got != Allowed {
			t.Errorf("expected allowed for unspecified path, got %v", got)
		}
	})

	t.Run("specific group takes precedence over wildcard", func(t *testing.T) {
		t.Parallel()

		srv := robotsServer(t, policy, nil)
		auth := NewAuthorizer(srv.Client(), "politewalk")

		// /private/ is disallowed only in the wildcard group, which does
		// not apply once a specific politewalk group exists.
		if got := auth.Authorize(context.Background(), srv.URL+"/private/data.html"); got != Allowed {
			t.Errorf("expected allowed under specific group, got %v", got)
		}
	})

	t.Run("wildcard group applies to unnamed agents", func(t *testing.T) {
		t.Parallel()

		srv := robotsServer(t, policy, nil)
		auth := NewAuthorizer(srv.Client(), "some-other-bot")

		if got := auth.Authorize(context.Background(), srv.URL+"/private/data.html"); got != Denied {
			t.Errorf("expected denied under wildcard group, got %v", got)
		}
	})
}

// TestAuthorizeFetchesOncePerHost verifies the single-fetch invariant.
func TestAuthorizeFetchesOncePerHost(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := robotsServer(t, "User-agent: *\nDisallow: /admin\n", &hits)
	auth := NewAuthorizer(srv.Client(), "politewalk")

	for i := 0; i < 5; i++ {
		auth.Authorize(context.Background(), fmt.Sprintf("%s/page-%d.html", srv.URL, i))
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("expected exactly 1 robots.txt fetch, got %d", got)
	}
	if got := auth.FetchedPolicies(); got != 1 {
		t.Errorf("expected 1 cached policy, got %d", got)
	}
}

// TestAuthorizeDegradedStates tests the Unknown fallbacks.
func TestAuthorizeDegradedStates(t *testing.T) {
	t.Parallel()

	t.Run("unreachable host yields unknown", func(t *testing.T) {
		t.Parallel()

		// Closed server: connection refused.
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		auth := NewAuthorizer(http.DefaultClient, "politewalk")
		if got := auth.Authorize(context.Background(), url+"/page.html"); got != Unknown {
			t.Errorf("expected unknown for unreachable host, got %v", got)
		}
	})

	t.Run("server error yields unknown and is cached", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int64
		mux := http.NewServeMux()
		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		auth := NewAuthorizer(srv.Client(), "politewalk")
		for i := 0; i < 3; i++ {
			if got := auth.Authorize(context.Background(), srv.URL+"/page.html"); got != Unknown {
				t.Errorf("expected unknown for 500 robots.txt, got %v", got)
			}
		}
		if got := hits.Load(); got != 1 {
			t.Errorf("failed fetch should be cached too, got %d fetches", got)
		}
	})

	t.Run("missing robots.txt allows everything", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)

		auth := NewAuthorizer(srv.Client(), "politewalk")
		if got := auth.Authorize(context.Background(), srv.URL+"/anything"); got != Allowed {
			t.Errorf("expected allowed for 404 robots.txt, got %v", got)
		}
	})

	t.Run("unparseable target yields unknown", func(t *testing.T) {
		t.Parallel()

		auth := NewAuthorizer(http.DefaultClient, "politewalk")
		if got := auth.Authorize(context.Background(), "://not-a-url"); got != Unknown {
			t.Errorf("expected unknown for bad URL, got %v", got)
		}
	})
}

// TestDecisionString tests the Decision string form used in logs.
func TestDecisionString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		decision Decision
		want     string
	}{
		{Allowed, "allowed"},
		{Denied, "denied"},
		{Unknown, "unknown"},
		{Decision(42), "invalid"},
	}

	for _, tt := range tests {
		if got := tt.decision.String(); got != tt.want {
			t.Errorf("Decision(%d).String() = %q, want %q", tt.decision, got, tt.want)
		}
	}
}
