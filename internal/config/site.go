package config

// SiteConfig holds site-specific configuration for a single host.
// This allows customizing extraction and pacing per site without touching
// the global settings.
type SiteConfig struct {
	// Selectors override the global CSS selectors for this host. Only
	// non-empty fields are applied.
	Selectors Selectors `yaml:"selectors,omitempty"`

	// Headers are custom HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Cookie is an HTTP cookie to send when crawling this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// MinDelay and MaxDelay override the global pacing bounds for this
	// host. Zero values leave the global bounds in place.
	MinDelay Duration `yaml:"minDelay,omitempty"`
	MaxDelay Duration `yaml:"maxDelay,omitempty"`

	// MaxPages overrides the global page cap for this host.
	// If zero, the global MaxPages is used.
	MaxPages int `yaml:"maxPages,omitempty"`
}

// File represents the structure of the .politewalk configuration file.
type File struct {
	// Sites maps hostnames to their site-specific configurations.
	// Keys are bare hosts without a scheme (e.g., "books.toscrape.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all hosts
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific host.
// It merges the site-specific configuration over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with site-specific configuration if present
	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if siteConfig.Selectors.Item != "" {
		result.Selectors.Item = siteConfig.Selectors.Item
	}
	if siteConfig.Selectors.TitleAttr != "" {
		result.Selectors.TitleAttr = siteConfig.Selectors.TitleAttr
	}
	if siteConfig.Selectors.Next != "" {
		result.Selectors.Next = siteConfig.Selectors.Next
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	if !siteConfig.MinDelay.IsZero() {
		result.MinDelay = siteConfig.MinDelay
	}
	if !siteConfig.MaxDelay.IsZero() {
		result.MaxDelay = siteConfig.MaxDelay
	}
	if siteConfig.MaxPages != 0 {
		result.MaxPages = siteConfig.MaxPages
	}

	return result
}

// Apply folds a site configuration into the top-level Config.
// Selector and pacing overrides replace the global values; header and
// cookie settings are carried through to the fetch layer by the caller.
func (c *Config) Apply(site SiteConfig) {
	if site.Selectors.Item != "" {
		c.Selectors.Item = site.Selectors.Item
	}
	if site.Selectors.TitleAttr != "" {
		c.Selectors.TitleAttr = site.Selectors.TitleAttr
	}
	if site.Selectors.Next != "" {
		c.Selectors.Next = site.Selectors.Next
	}
	if !site.MinDelay.IsZero() {
		c.MinDelay = site.MinDelay.Duration
	}
	if !site.MaxDelay.IsZero() {
		c.MaxDelay = site.MaxDelay.Duration
	}
	if site.MaxPages != 0 {
		c.MaxPages = site.MaxPages
	}
}
