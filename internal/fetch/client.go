package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// NewHTTPClient builds the shared HTTP client for a crawl run.
// The client (and its transport) is created once and reused for every
// request, including the robots.txt fetch, so TCP and TLS handshakes are
// amortized across the run.
//
// proxyURL may be empty (direct connections) or an http, https, or
// socks5 URL. The timeout applies per request attempt; each retry gets
// the full budget again.
func NewHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{
		// One host, sequential requests: a couple of warm connections is
		// all the pool ever needs.
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: timeout,
	}

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}

		switch u.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(u)
		case "socks5":
			dialer, err := socksDialer(u, timeout)
			if err != nil {
				return nil, err
			}
			transport.DialContext = dialer
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// socksDialer builds a DialContext function routing through a SOCKS5 proxy.
// Credentials in the proxy URL's userinfo section are passed as SOCKS5
// username/password authentication.
func socksDialer(u *url.URL, timeout time.Duration) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	var auth *proxy.Auth
	if u.User != nil {
		password, _ := u.User.Password()
		auth = &proxy.Auth{
			User:     u.User.Username(),
			Password: password,
		}
	}

	forward := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}

	dialer, err := proxy.SOCKS5("tcp", u.Host, auth, forward)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		// x/net/proxy dialers predate DialContext; prefer the context
		// form when the concrete type provides it.
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}, nil
}
