package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/kumo/internal/crawler"
	"github.com/nao1215/kumo/internal/fetcher"
)

// AppName is the application name used for XDG directory paths.
const AppName = "kumo"

// Scope modes accepted by the --scope flag and the Scope field.
const (
	// ScopeHost restricts the crawl to the exact hosts of the seed URLs.
	// Subdomains are treated as different hosts.
	ScopeHost = "host"

	// ScopeDomain restricts the crawl to the registrable domains of the
	// seed URLs, so subdomains are included. This is the default: it
	// matches what "crawl this site" usually means without leaking onto
	// the wider web.
	ScopeDomain = "domain"

	// ScopeAll disables the scope restriction entirely. An unbounded web
	// crawl rarely ends on its own; combine this with --max-pages or
	// --max-depth.
	ScopeAll = "all"
)

// Config holds all configuration options for a crawl.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Seeds is the list of URLs the crawl starts from.
	// Must contain at least one URL. Scheme-less entries are assumed to
	// be http by the CLI before they reach validation.
	Seeds []string

	// Concurrency is the number of worker goroutines fetching pages.
	// Defaults to the number of CPUs on the machine.
	Concurrency int

	// Delay is the minimum time between request dispatches.
	// Zero means requests are dispatched as fast as the workers allow.
	// This is a politeness setting; set it when crawling servers you do
	// not control.
	Delay time.Duration

	// PerHostDelay switches the politeness gate from one global bucket to
	// one bucket per host, so distinct hosts are crawled in parallel while
	// each individual host still sees at most one request per Delay.
	PerHostDelay bool

	// Timeout is the per-request timeout for each HTTP fetch.
	// This applies to individual requests, not the overall crawl duration.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	// A descriptive User-Agent helps site operators identify crawler traffic.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory exhaustion.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// MaxDepth is the maximum link depth to follow from the seeds.
	// Depth 0 is the seeds themselves; 1 adds the pages they link to.
	// Zero or negative means unlimited.
	MaxDepth int

	// MaxPages is the maximum number of pages to fetch in one crawl.
	// This prevents runaway crawling on large or infinitely-generating
	// sites. Zero or negative means unlimited.
	MaxPages int

	// Scope selects which discovered links are followed: ScopeHost,
	// ScopeDomain, or ScopeAll.
	Scope string

	// IgnorePatterns are URL path patterns to skip during crawling.
	// Matched with glob syntax against the path of each discovered link.
	IgnorePatterns []string

	// FollowPatterns are URL path patterns to follow during crawling.
	// If specified, only links whose paths match are followed.
	FollowPatterns []string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable
	// format. When true, outputs GitHub Flavored Markdown with tables, alerts,
	// and a pie chart of error kinds. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .kumo.yaml in the current directory
	// and then in the XDG config directory.
	ConfigFilePath string

	// SiteConfigs holds per-host configurations loaded from the config file.
	// This is populated by LoadConfigFile and applied before crawling.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
// Defaults for network behavior (timeout, user agent, body cap) come from
// the fetcher package and the concurrency default comes from the crawler
// package, so each policy is defined once, next to the code it governs.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, scope).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Concurrency: crawler.DefaultConcurrency(),
		Timeout:     fetcher.DefaultTimeout,
		UserAgent:   fetcher.DefaultUserAgent,
		MaxBodySize: fetcher.DefaultMaxBodySize,
		Scope:       ScopeDomain,
	}
}

// XDGConfigDir returns the XDG config directory for kumo.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/kumo
// On macOS: ~/Library/Application Support/kumo
// On Windows: %APPDATA%\kumo
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one seed to crawl
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// Concurrency must be positive; zero would mean no fetching
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// Delay must be non-negative
	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	// MaxBodySize must be non-negative; 0 falls back to the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	switch c.Scope {
	case ScopeHost, ScopeDomain, ScopeAll:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScope, c.Scope)
	}

	return nil
}
