package config

import (
	"errors"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected
// default values. This serves as living documentation of the defaults:
// changes to them must be intentional enough to update this test.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default MinDelay is 1 second", func(t *testing.T) {
		t.Parallel()
		if cfg.MinDelay != 1*time.Second {
			t.Errorf("expected MinDelay to be 1s, got %v", cfg.MinDelay)
		}
	})

	t.Run("default MaxDelay is 3 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxDelay != 3*time.Second {
			t.Errorf("expected MaxDelay to be 3s, got %v", cfg.MaxDelay)
		}
	})

	t.Run("default Timeout is 10 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected Timeout to be 10s, got %v", cfg.Timeout)
		}
	})

	t.Run("default MaxRequestsPerMinute is 30", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxRequestsPerMinute != 30 {
			t.Errorf("expected MaxRequestsPerMinute to be 30, got %d", cfg.MaxRequestsPerMinute)
		}
	})

	t.Run("default UserAgents has three entries", func(t *testing.T) {
		t.Parallel()
		if len(cfg.UserAgents) != 3 {
			t.Errorf("expected 3 default user agents, got %d", len(cfg.UserAgents))
		}
	})

	t.Run("default CacheTTL is 1 hour", func(t *testing.T) {
		t.Parallel()
		if cfg.CacheTTL != time.Hour {
			t.Errorf("expected CacheTTL to be 1h, got %v", cfg.CacheTTL)
		}
	})

	t.Run("default cache is disabled", func(t *testing.T) {
		t.Parallel()
		if cfg.CacheEnabled {
			t.Error("expected CacheEnabled to be false")
		}
	})

	t.Run("default selectors match the catalog shape", func(t *testing.T) {
		t.Parallel()
		if cfg.Selectors.Item != "article.product_pod h3 a" {
			t.Errorf("unexpected item selector %q", cfg.Selectors.Item)
		}
		if cfg.Selectors.TitleAttr != "title" {
			t.Errorf("unexpected title attribute %q", cfg.Selectors.TitleAttr)
		}
		if cfg.Selectors.Next != "li.next a" {
			t.Errorf("unexpected next selector %q", cfg.Selectors.Next)
		}
	})
}

// TestConfigValidate tests configuration validation with table-driven cases.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	// valid returns a fully valid Config to be broken per test case.
	valid := func() *Config {
		cfg := NewConfig()
		cfg.Seed = "http://books.toscrape.com/"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config passes",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "empty seed",
			mutate:  func(c *Config) { c.Seed = "" },
			wantErr: ErrNoSeed,
		},
		{
			name:    "relative seed",
			mutate:  func(c *Config) { c.Seed = "/catalogue/page-1.html" },
			wantErr: ErrInvalidSeed,
		},
		{
			name:    "non-http seed",
			mutate:  func(c *Config) { c.Seed = "ftp://books.toscrape.com/" },
			wantErr: ErrInvalidSeed,
		},
		{
			name:    "negative min delay",
			mutate:  func(c *Config) { c.MinDelay = -1 * time.Second },
			wantErr: ErrNegativeDelay,
		},
		{
			name: "max delay below min delay",
			mutate: func(c *Config) {
				c.MinDelay = 3 * time.Second
				c.MaxDelay = 1 * time.Second
			},
			wantErr: ErrDelayBoundsInverted,
		},
		{
			name: "equal delay bounds are allowed",
			mutate: func(c *Config) {
				c.MinDelay = 2 * time.Second
				c.MaxDelay = 2 * time.Second
			},
			wantErr: nil,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "empty user agent list",
			mutate:  func(c *Config) { c.UserAgents = nil },
			wantErr: ErrNoUserAgents,
		},
		{
			name:    "zero max pages",
			mutate:  func(c *Config) { c.MaxPages = 0 },
			wantErr: ErrInvalidMaxPages,
		},
		{
			name:    "negative max body size",
			mutate:  func(c *Config) { c.MaxBodySize = -1 },
			wantErr: ErrInvalidMaxBodySize,
		},
		{
			name:    "unsupported proxy scheme",
			mutate:  func(c *Config) { c.Proxy = "ftp://proxy:8080" },
			wantErr: ErrInvalidProxy,
		},
		{
			name:    "socks5 proxy is accepted",
			mutate:  func(c *Config) { c.Proxy = "socks5://127.0.0.1:9050" },
			wantErr: nil,
		},
		{
			name: "cache enabled with zero TTL",
			mutate: func(c *Config) {
				c.CacheEnabled = true
				c.CacheTTL = 0
			},
			wantErr: ErrInvalidCacheTTL,
		},
		{
			name: "conflicting report formats",
			mutate: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			wantErr: ErrConflictingReportFormats,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestSeedHost tests seed host extraction.
func TestSeedHost(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Seed = "https://books.toscrape.com/catalogue/page-1.html"

	if got := cfg.SeedHost(); got != "books.toscrape.com" {
		t.Errorf("expected host books.toscrape.com, got %q", got)
	}
}
