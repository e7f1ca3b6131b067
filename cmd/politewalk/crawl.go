package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/politewalk/internal/cache"
	"github.com/nao1215/politewalk/internal/config"
	"github.com/nao1215/politewalk/internal/crawler"
	"github.com/nao1215/politewalk/internal/fetch"
	"github.com/nao1215/politewalk/internal/log"
	"github.com/nao1215/politewalk/internal/model"
	"github.com/nao1215/politewalk/internal/ratelimit"
	"github.com/nao1215/politewalk/internal/report"
	"github.com/nao1215/politewalk/internal/robots"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <seed-url>",
		Short: "Crawl a paginated listing starting from a seed URL",
		Long: `Crawl walks a paginated listing page by page, extracting one entry per
listing item and following the "next" link until the chain ends.

Politeness is built in and cannot be disabled:
- robots.txt is fetched once and honored for every page
- a random delay between --min-delay and --max-delay precedes each request
- transient failures are retried with exponential backoff
- HTTP 429 responses are honored via the Retry-After header

Examples:
  # Crawl a book catalog with default selectors
  politewalk crawl https://books.toscrape.com/

  # Slower pacing for a fragile site
  politewalk crawl --min-delay 3s --max-delay 8s https://example.com/catalogue/

  # Custom selectors for a different listing shape
  politewalk crawl --item-selector "div.card a.title" --next-selector "a[rel=next]" https://example.com/list

  # Route through a SOCKS5 proxy
  politewalk crawl --proxy socks5://127.0.0.1:1080 https://example.com/list

  # JSON report written to a file
  politewalk crawl --json -o report.json https://example.com/list

Configuration file (.politewalk) example:
  sites:
    books.toscrape.com:
      selectors:
        item: "article.product_pod h3 a"
        next: "li.next a"
      minDelay: 2s
    example.com:
      cookie: "session=abc123"
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Pacing flags
	cmd.Flags().Duration("min-delay", config.DefaultMinDelay,
		"Minimum delay before each request")
	cmd.Flags().Duration("max-delay", config.DefaultMaxDelay,
		"Maximum delay before each request")

	// Fetch behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request attempt")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of listing pages to fetch")
	cmd.Flags().StringArrayP("user-agent", "A", nil,
		"User-Agent to rotate through (repeatable; default: built-in browser list)")
	cmd.Flags().String("proxy", "",
		"Proxy URL for outbound requests (http, https, or socks5)")

	// Extraction flags
	cmd.Flags().String("item-selector", config.DefaultItemSelector,
		"CSS selector matching one anchor per listing item")
	cmd.Flags().String("title-attr", config.DefaultTitleAttr,
		"Anchor attribute holding the item title (empty: anchor text)")
	cmd.Flags().String("next-selector", config.DefaultNextSelector,
		"CSS selector matching the next-page anchor")

	// Cache flags
	cmd.Flags().Bool("cache", true,
		"Cache responses in a local SQLite database")
	cmd.Flags().Duration("cache-ttl", config.DefaultCacheTTL,
		"How long cached responses stay valid")
	cmd.Flags().String("cache-dir", "",
		"Cache database directory (default: XDG cache directory)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .politewalk in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Context with signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Seed = args[0]

	var err error

	cfg.MinDelay, err = cmd.Flags().GetDuration("min-delay")
	if err != nil {
		return nil, err
	}

	cfg.MaxDelay, err = cmd.Flags().GetDuration("max-delay")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	agents, err := cmd.Flags().GetStringArray("user-agent")
	if err != nil {
		return nil, err
	}
	if len(agents) > 0 {
		cfg.UserAgents = agents
	}

	cfg.Proxy, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.Selectors.Item, err = cmd.Flags().GetString("item-selector")
	if err != nil {
		return nil, err
	}
	cfg.Selectors.TitleAttr, err = cmd.Flags().GetString("title-attr")
	if err != nil {
		return nil, err
	}
	cfg.Selectors.Next, err = cmd.Flags().GetString("next-selector")
	if err != nil {
		return nil, err
	}

	cfg.CacheEnabled, err = cmd.Flags().GetBool("cache")
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL, err = cmd.Flags().GetDuration("cache-ttl")
	if err != nil {
		return nil, err
	}
	cfg.CacheDir, err = cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If the user explicitly specified a config file path, error if not
	// found. Otherwise silently use an empty config.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runCrawl wires the crawl components together and executes the run.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Fold site-specific overrides for the seed host into the config.
	site := cfg.SiteConfigs.GetSiteConfig(cfg.SeedHost())
	cfg.Apply(site)

	logger.Info("starting crawl",
		"seed", cfg.Seed,
		"minDelay", cfg.MinDelay,
		"maxDelay", cfg.MaxDelay,
		"maxPages", cfg.MaxPages,
		"requestBudgetPerMinute", cfg.MaxRequestsPerMinute,
		"proxy", cfg.Proxy,
	)

	client, err := fetch.NewHTTPClient(cfg.Proxy, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	// The first User-Agent in the rotation doubles as the identity used
	// for robots.txt group matching.
	authorizer := robots.NewAuthorizer(client, cfg.UserAgents[0])
	limiter := ratelimit.New(cfg.MinDelay, cfg.MaxDelay)

	fetchOpts := []fetch.Option{
		fetch.WithUserAgents(cfg.UserAgents),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	}
	if len(site.Headers) > 0 {
		fetchOpts = append(fetchOpts, fetch.WithHeaders(site.Headers))
	}
	if site.Cookie != "" {
		fetchOpts = append(fetchOpts, fetch.WithCookie(site.Cookie))
	}

	// A cache that fails to open degrades to no caching. It never stops
	// the crawl.
	if cfg.CacheEnabled {
		dir := cfg.CacheDir
		if dir == "" {
			dir = config.XDGCacheDir()
		}
		store, err := cache.Open(dir, cache.Options{TTL: cfg.CacheTTL, Logger: logger})
		if err != nil {
			logger.Warn("response cache unavailable, continuing without it",
				"dir", dir, "error", err)
		} else {
			defer store.Close()
			fetchOpts = append(fetchOpts, fetch.WithCache(store))
			logger.Info("response cache opened", "dir", dir, "ttl", cfg.CacheTTL)
		}
	}

	fetcher := fetch.NewFetcher(client, fetchOpts...)

	walker := crawler.NewWalker(authorizer, limiter, fetcher,
		crawler.WithSelectors(cfg.Selectors),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithLogger(logger),
	)

	fmt.Printf("Crawling %s...\n", cfg.Seed)
	startTime := time.Now()

	result := walker.Run(ctx, cfg.Seed)

	elapsed := time.Since(startTime)
	fmt.Printf("Crawl finished in %s (%d pages, %d items)\n\n",
		elapsed.Round(time.Millisecond), result.PagesFetched, len(result.Items))

	if err := outputReport(cfg, result); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	// Non-completed runs exit non-zero so scripts can tell them apart.
	if !result.Completed() {
		return fmt.Errorf("crawl %s: %s", result.Status, result.Reason)
	}
	return nil
}

// outputReport outputs the crawl result in the requested format.
func outputReport(cfg *config.Config, result *model.CrawlResult) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output,
			report.WithPrettyPrint(),
			report.WithVersion(getVersion()),
		)
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(result)
	return err
}
