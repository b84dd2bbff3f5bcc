package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/kumo/internal/config"
	"github.com/nao1215/kumo/internal/crawler"
	"github.com/nao1215/kumo/internal/fetcher"
	"github.com/nao1215/kumo/internal/log"
	"github.com/nao1215/kumo/internal/model"
	"github.com/nao1215/kumo/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	defaults := config.NewConfig()

	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl one or more sites starting from the given seed URLs",
		Long: `Crawl fetches the seed URLs, extracts the links on every fetched page,
and recursively follows the ones inside the crawl scope until no
eligible links remain. Each URL is fetched at most once per run.

Fetches run on a fixed pool of concurrent workers. A politeness delay
spaces out dispatches globally, or per host with --per-host-delay.
Failed pages never abort the crawl; they are counted and listed in the
final report. Seeds without a scheme default to http://.

Examples:
  # Crawl a site, staying on its registrable domain (the default scope)
  kumo crawl https://example.com

  # Crawl politely: four workers, 500ms between requests to each host
  kumo crawl -n 4 -d 500ms --per-host-delay https://example.com

  # Crawl only the docs subtree, at most 200 pages
  kumo crawl --follow "/docs/*" -p 200 https://example.com

  # Follow links across domains, at most two hops from the seed
  kumo crawl --scope all --max-depth 2 https://example.com

  # Write a JSON report to a file
  kumo crawl --json -o report.json https://example.com

Configuration file (.kumo.yaml) example:
  defaults:
    delay: 1s
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      delay: 2s`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("concurrency", "n", defaults.Concurrency,
		"Number of concurrent fetch workers")
	cmd.Flags().DurationP("delay", "d", defaults.Delay,
		"Politeness delay between fetch dispatches")
	cmd.Flags().Bool("per-host-delay", false,
		"Apply the politeness delay per host instead of globally")
	cmd.Flags().DurationP("timeout", "t", defaults.Timeout,
		"Timeout for each page fetch")
	cmd.Flags().StringP("user-agent", "u", defaults.UserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body", defaults.MaxBodySize,
		"Maximum response body size in bytes")

	// Crawl limit flags
	cmd.Flags().Int("max-depth", defaults.MaxDepth,
		"Maximum link depth from the seeds (0 = unlimited)")
	cmd.Flags().IntP("max-pages", "p", defaults.MaxPages,
		"Maximum number of pages to fetch (0 = unlimited)")

	// Scope flags
	cmd.Flags().StringP("scope", "s", defaults.Scope,
		"Crawl scope: host, domain, or all")
	cmd.Flags().StringSlice("ignore", nil,
		"URL path patterns to skip (e.g. \"/admin/*\")")
	cmd.Flags().StringSlice("follow", nil,
		"URL path patterns to follow; non-matching links are skipped")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .kumo.yaml in current or XDG config directory)")

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
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, finishing in-flight fetches...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
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

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.PerHostDelay, err = cmd.Flags().GetBool("per-host-delay")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body")
	if err != nil {
		return nil, err
	}

	cfg.MaxDepth, err = cmd.Flags().GetInt("max-depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.Scope, err = cmd.Flags().GetString("scope")
	if err != nil {
		return nil, err
	}

	cfg.IgnorePatterns, err = cmd.Flags().GetStringSlice("ignore")
	if err != nil {
		return nil, err
	}

	cfg.FollowPatterns, err = cmd.Flags().GetStringSlice("follow")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
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

	// Get positional arguments (seed URLs)
	cfg.Seeds = normalizeSeeds(args)

	// Config file defaults fill in what the flags left unset
	applyFileDefaults(cfg)

	return cfg, nil
}

// normalizeSeeds trims seed arguments and prepends http:// to the
// scheme-less ones, so "kumo crawl example.com" works.
func normalizeSeeds(args []string) []string {
	seeds := make([]string, 0, len(args))
	for _, arg := range args {
		seed := strings.TrimSpace(arg)
		if seed == "" {
			continue
		}
		if !strings.Contains(seed, "://") {
			seed = "http://" + seed
		}
		seeds = append(seeds, seed)
	}
	return seeds
}

// applyFileDefaults layers config file settings under the flag values.
// A delay set on the command line wins over the file default; patterns
// configured for a seed's host join the crawl-wide pattern set.
func applyFileDefaults(cfg *config.Config) {
	if cfg.SiteConfigs == nil {
		return
	}

	defaults := cfg.SiteConfigs.Defaults
	if cfg.Delay == 0 && defaults.Delay > 0 {
		cfg.Delay = time.Duration(defaults.Delay)
	}
	if len(cfg.IgnorePatterns) == 0 {
		cfg.IgnorePatterns = defaults.IgnorePatterns
	}
	if len(cfg.FollowPatterns) == 0 {
		cfg.FollowPatterns = defaults.FollowPatterns
	}

	for _, seed := range cfg.Seeds {
		u, err := url.Parse(seed)
		if err != nil {
			continue
		}
		site, ok := cfg.SiteConfigs.Sites[u.Host]
		if !ok {
			site, ok = cfg.SiteConfigs.Sites[u.Hostname()]
		}
		if !ok {
			continue
		}
		cfg.IgnorePatterns = append(cfg.IgnorePatterns, site.IgnorePatterns...)
		cfg.FollowPatterns = append(cfg.FollowPatterns, site.FollowPatterns...)
	}
}

// setupLogger creates a structured logger based on verbosity setting.
// The handler masks credential-looking values, so cookies and tokens
// from site configs never reach the log output.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewLogger(os.Stderr, verbose)
}

// crawlObserver collects per-page failures for the final report.
// Page result callbacks arrive concurrently from worker goroutines,
// so access to the report is serialized with a mutex.
type crawlObserver struct {
	crawler.NopCallbacks

	mu     sync.Mutex
	report *model.CrawlReport
}

// newCrawlObserver creates an observer with an empty report.
func newCrawlObserver() *crawlObserver {
	return &crawlObserver{report: model.NewCrawlReport(nil)}
}

// OnPageResult implements crawler.Callbacks.
func (o *crawlObserver) OnPageResult(result *model.PageResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report.AddFailure(result)
}

// buildReport attaches the crawl summary to the collected failures.
// Call after Crawl returns; the workers have stopped by then.
func (o *crawlObserver) buildReport(summary *model.CrawlSummary) *model.CrawlReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report.Summary = summary
	return o.report
}

// runCrawl executes the crawl and reports the outcome.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("crawl configured",
		"seeds", cfg.Seeds,
		"scope", cfg.Scope,
		"concurrency", cfg.Concurrency,
		"perHostDelay", cfg.PerHostDelay,
	)

	observer := newCrawlObserver()

	c, err := newCrawler(cfg, newFetcher(cfg), observer, logger)
	if err != nil {
		return fmt.Errorf("failed to configure crawler: %w", err)
	}

	fmt.Printf("Crawling %s...\n", strings.Join(cfg.Seeds, ", "))
	startTime := time.Now()

	summary, err := c.Crawl(ctx, cfg.Seeds)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	elapsed := time.Since(startTime)
	if summary.Interrupted {
		fmt.Printf("Crawl interrupted after %s\n\n", elapsed.Round(time.Millisecond))
	} else {
		fmt.Printf("Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))
	}

	if err := outputReport(cfg, observer.buildReport(summary)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if cfg.ReportFile != "" {
		fmt.Printf("Report written to %s\n", cfg.ReportFile)
	}
	return nil
}

// newFetcher builds the page fetcher from the configuration, wiring in
// per-site cookies and headers from the config file.
func newFetcher(cfg *config.Config) *fetcher.Fetcher {
	opts := []fetcher.Option{
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
	}

	if cfg.SiteConfigs != nil {
		if headers := siteHeaders(cfg.SiteConfigs.Defaults); len(headers) > 0 {
			opts = append(opts, fetcher.WithHeaders(headers))
		}
		for host := range cfg.SiteConfigs.Sites {
			if headers := siteHeaders(cfg.SiteConfigs.GetSiteConfig(host)); len(headers) > 0 {
				opts = append(opts, fetcher.WithHostHeaders(hostOnly(host), headers))
			}
		}
	}

	return fetcher.New(fetcher.NewDefaultClient(cfg.Timeout), opts...)
}

// siteHeaders flattens a site config into request headers. The cookie
// shortcut becomes a Cookie header; an explicit Cookie header wins.
func siteHeaders(site config.SiteConfig) map[string]string {
	headers := make(map[string]string, len(site.Headers)+1)
	if site.Cookie != "" {
		headers["Cookie"] = site.Cookie
	}
	for k, v := range site.Headers {
		headers[k] = v
	}
	return headers
}

// hostOnly strips an optional :port from a config file site key.
// Fetcher host headers match on the hostname alone.
func hostOnly(key string) string {
	host, _, err := net.SplitHostPort(key)
	if err != nil {
		return key
	}
	return host
}

// newCrawler assembles the crawl engine from the configuration.
func newCrawler(cfg *config.Config, f *fetcher.Fetcher, callbacks crawler.Callbacks, logger *slog.Logger) (*crawler.Crawler, error) {
	opts := []crawler.Option{
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithDelay(cfg.Delay),
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithCallbacks(callbacks),
		crawler.WithLogger(logger),
	}

	if cfg.PerHostDelay {
		opts = append(opts, crawler.WithPerHostGate())
	}
	if len(cfg.IgnorePatterns) > 0 {
		opts = append(opts, crawler.WithIgnorePatterns(cfg.IgnorePatterns))
	}
	if len(cfg.FollowPatterns) > 0 {
		opts = append(opts, crawler.WithFollowPatterns(cfg.FollowPatterns))
	}
	if scope := scopeFor(cfg); scope != nil {
		opts = append(opts, crawler.WithScope(scope))
	}

	// Per-site delays from the config file imply per-host gating
	if cfg.SiteConfigs != nil {
		for host, site := range cfg.SiteConfigs.Sites {
			if site.Delay > 0 {
				opts = append(opts, crawler.WithHostDelay(host, time.Duration(site.Delay)))
			}
		}
	}

	return crawler.New(f, opts...)
}

// scopeFor maps the scope mode to a crawler scope predicate. Domain
// scope is the engine default, so it returns nil and lets the engine
// derive the registrable domains from the seeds.
func scopeFor(cfg *config.Config) crawler.ScopeFunc {
	switch cfg.Scope {
	case config.ScopeAll:
		return crawler.ScopeAll()
	case config.ScopeHost:
		hosts := make([]string, 0, len(cfg.Seeds))
		for _, seed := range cfg.Seeds {
			if u, err := url.Parse(seed); err == nil && u.Host != "" {
				hosts = append(hosts, u.Host)
			}
		}
		return crawler.ScopeHosts(hosts...)
	default:
		return nil
	}
}

// outputReport outputs the crawl report in the requested format.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with secure permissions (0600).
		// Reports list every URL the crawl touched, including any that
		// carry session tokens in their query strings.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (full report with version metadata)
	if cfg.JSONReport {
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(crawlReport)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(crawlReport)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	_, err := writer.Write(crawlReport)
	return err
}
