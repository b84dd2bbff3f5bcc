package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/kumo/internal/config"
	"github.com/nao1215/kumo/internal/crawler"
	"github.com/nao1215/kumo/internal/model"
)

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl [url...]" {
			t.Errorf("expected use 'crawl [url...]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("accepts arbitrary arguments", func(t *testing.T) {
		t.Parallel()
		if cmd.Args == nil {
			t.Error("expected Args validator")
		}
	})

	t.Run("has concurrency flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("concurrency")
		if flag == nil {
			t.Fatal("expected concurrency flag")
		}
		if flag.Shorthand != "n" {
			t.Errorf("expected shorthand 'n', got %q", flag.Shorthand)
		}
		if flag.DefValue != strconv.Itoa(crawler.DefaultConcurrency()) {
			t.Errorf("expected default %d, got %q", crawler.DefaultConcurrency(), flag.DefValue)
		}
	})

	t.Run("has delay flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("delay")
		if flag == nil {
			t.Fatal("expected delay flag")
		}
		if flag.Shorthand != "d" {
			t.Errorf("expected shorthand 'd', got %q", flag.Shorthand)
		}
		if flag.DefValue != "0s" {
			t.Errorf("expected default '0s', got %q", flag.DefValue)
		}
	})

	t.Run("has per-host-delay flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("per-host-delay")
		if flag == nil {
			t.Fatal("expected per-host-delay flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("timeout")
		if flag == nil {
			t.Fatal("expected timeout flag")
		}
		if flag.Shorthand != "t" {
			t.Errorf("expected shorthand 't', got %q", flag.Shorthand)
		}
		if flag.DefValue != "30s" {
			t.Errorf("expected default '30s', got %q", flag.DefValue)
		}
	})

	t.Run("has user-agent flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("user-agent")
		if flag == nil {
			t.Fatal("expected user-agent flag")
		}
		if flag.Shorthand != "u" {
			t.Errorf("expected shorthand 'u', got %q", flag.Shorthand)
		}
		if !strings.Contains(flag.DefValue, "kumo") {
			t.Errorf("expected default user agent to mention kumo, got %q", flag.DefValue)
		}
	})

	t.Run("has max-body flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("max-body")
		if flag == nil {
			t.Fatal("expected max-body flag")
		}
		if flag.DefValue != "5242880" {
			t.Errorf("expected default '5242880', got %q", flag.DefValue)
		}
	})

	t.Run("has max-depth flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("max-depth")
		if flag == nil {
			t.Fatal("expected max-depth flag")
		}
		if flag.DefValue != "0" {
			t.Errorf("expected default '0', got %q", flag.DefValue)
		}
	})

	t.Run("has max-pages flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("max-pages")
		if flag == nil {
			t.Fatal("expected max-pages flag")
		}
		if flag.Shorthand != "p" {
			t.Errorf("expected shorthand 'p', got %q", flag.Shorthand)
		}
	})

	t.Run("has scope flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("scope")
		if flag == nil {
			t.Fatal("expected scope flag")
		}
		if flag.Shorthand != "s" {
			t.Errorf("expected shorthand 's', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.ScopeDomain {
			t.Errorf("expected default %q, got %q", config.ScopeDomain, flag.DefValue)
		}
	})

	t.Run("has ignore flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("ignore")
		if flag == nil {
			t.Fatal("expected ignore flag")
		}
	})

	t.Run("has follow flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("follow")
		if flag == nil {
			t.Fatal("expected follow flag")
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has markdown flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("markdown")
		if flag == nil {
			t.Fatal("expected markdown flag")
		}
		if flag.Shorthand != "m" {
			t.Errorf("expected shorthand 'm', got %q", flag.Shorthand)
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})

	t.Run("does not have robots flag (robots.txt is not consulted)", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("robots")
		if flag != nil {
			t.Error("robots flag should not exist")
		}
	})
}

// TestSetupLogger tests the logger setup.
func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("creates logger for verbose mode", func(t *testing.T) {
		t.Parallel()
		logger := setupLogger(true)
		if logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("creates logger for non-verbose mode", func(t *testing.T) {
		t.Parallel()
		logger := setupLogger(false)
		if logger == nil {
			t.Error("expected non-nil logger")
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewCrawlCmd()
		result := getVerboseFlag(cmd)
		if result {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		// Set verbose flag to true
		_ = root.PersistentFlags().Set("verbose", "true")

		// Get crawl subcommand
		crawlCmd, _, err := root.Find([]string{"crawl"})
		if err != nil {
			t.Fatalf("failed to find crawl command: %v", err)
		}

		result := getVerboseFlag(crawlCmd)
		if !result {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewCrawlCmd()
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "https://example.com" {
			t.Errorf("expected seeds [https://example.com], got %v", cfg.Seeds)
		}
		if cfg.Concurrency != crawler.DefaultConcurrency() {
			t.Errorf("expected concurrency %d, got %d", crawler.DefaultConcurrency(), cfg.Concurrency)
		}
		if cfg.Scope != config.ScopeDomain {
			t.Errorf("expected scope %q, got %q", config.ScopeDomain, cfg.Scope)
		}
		if cfg.SiteConfigs == nil {
			t.Error("expected SiteConfigs to be initialized")
		}
	})

	t.Run("prepends http scheme to bare hosts", func(t *testing.T) {
		cmd := NewCrawlCmd()
		cfg, err := buildConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "http://example.com" {
			t.Errorf("expected seeds [http://example.com], got %v", cfg.Seeds)
		}
	})

	t.Run("builds config with custom concurrency", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("concurrency", "8")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Concurrency != 8 {
			t.Errorf("expected concurrency 8, got %d", cfg.Concurrency)
		}
	})

	t.Run("builds config with delay and per-host gating", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("delay", "750ms")
		_ = cmd.Flags().Set("per-host-delay", "true")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Delay != 750*time.Millisecond {
			t.Errorf("expected delay 750ms, got %v", cfg.Delay)
		}
		if !cfg.PerHostDelay {
			t.Error("expected PerHostDelay to be true")
		}
	})

	t.Run("builds config with JSON flag", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("json", "true")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.JSONReport {
			t.Error("expected JSONReport to be true")
		}
	})

	t.Run("builds config with scope", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("scope", "host")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Scope != config.ScopeHost {
			t.Errorf("expected scope %q, got %q", config.ScopeHost, cfg.Scope)
		}
	})

	t.Run("builds config with patterns", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("ignore", "/admin/*")
		_ = cmd.Flags().Set("ignore", "*.pdf")
		_ = cmd.Flags().Set("follow", "/docs/*")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.IgnorePatterns) != 2 {
			t.Errorf("expected 2 ignore patterns, got %v", cfg.IgnorePatterns)
		}
		if len(cfg.FollowPatterns) != 1 || cfg.FollowPatterns[0] != "/docs/*" {
			t.Errorf("expected followPatterns [/docs/*], got %v", cfg.FollowPatterns)
		}
	})

	t.Run("builds config with multiple seeds", func(t *testing.T) {
		cmd := NewCrawlCmd()
		cfg, err := buildConfig(cmd, []string{"https://a.example.com", "https://b.example.com", "c.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Seeds) != 3 {
			t.Errorf("expected 3 seeds, got %d", len(cfg.Seeds))
		}
	})

	t.Run("builds config with valid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "kumo.yaml")

		// Create a valid config file
		content := []byte(`
defaults:
  delay: 2s
sites:
  example.com:
    cookie: session=xyz
    ignorePatterns:
      - "/admin/*"
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildConfig(cmd, []string{"http://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.SiteConfigs == nil {
			t.Fatal("expected SiteConfigs to be loaded")
		}
		site := cfg.SiteConfigs.GetSiteConfig("example.com")
		if site.Cookie != "session=xyz" {
			t.Errorf("expected cookie 'session=xyz', got %q", site.Cookie)
		}
		// File default fills in the unset delay flag
		if cfg.Delay != 2*time.Second {
			t.Errorf("expected delay 2s from file defaults, got %v", cfg.Delay)
		}
		// Seed host patterns join the crawl-wide set
		if len(cfg.IgnorePatterns) != 1 || cfg.IgnorePatterns[0] != "/admin/*" {
			t.Errorf("expected ignorePatterns [/admin/*], got %v", cfg.IgnorePatterns)
		}
	})

	t.Run("command-line delay wins over file default", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "kumo.yaml")

		content := []byte(`
defaults:
  delay: 2s
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", configPath)
		_ = cmd.Flags().Set("delay", "100ms")
		cfg, err := buildConfig(cmd, []string{"http://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Delay != 100*time.Millisecond {
			t.Errorf("expected delay 100ms, got %v", cfg.Delay)
		}
	})

	t.Run("returns error for invalid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yaml")

		// Create an invalid config file
		content := []byte(`{invalid yaml`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", configPath)
		_, err := buildConfig(cmd, []string{"http://example.com"})
		if err == nil {
			t.Fatal("expected error for invalid config file")
		}
	})

	t.Run("returns error for missing explicit config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "missing.yaml")

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", configPath)
		_, err := buildConfig(cmd, []string{"http://example.com"})
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
		if !strings.Contains(err.Error(), "configuration file not found") {
			t.Errorf("expected 'configuration file not found' error, got %v", err)
		}
	})

	t.Run("builds config with output file", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("output", "/tmp/report.json")
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ReportFile != "/tmp/report.json" {
			t.Errorf("expected ReportFile '/tmp/report.json', got %q", cfg.ReportFile)
		}
	})
}

// TestNormalizeSeeds tests seed URL normalization.
func TestNormalizeSeeds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"prepends http to bare host", []string{"example.com"}, []string{"http://example.com"}},
		{"keeps http scheme", []string{"http://example.com/a"}, []string{"http://example.com/a"}},
		{"keeps https scheme", []string{"https://example.com"}, []string{"https://example.com"}},
		{"trims whitespace", []string{"  example.com  "}, []string{"http://example.com"}},
		{"drops empty arguments", []string{"", "example.com"}, []string{"http://example.com"}},
		{"keeps host with port", []string{"127.0.0.1:8080"}, []string{"http://127.0.0.1:8080"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := normalizeSeeds(tt.args)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("normalizeSeeds(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

// mustParseURL parses a URL or fails the test.
func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse URL %q: %v", raw, err)
	}
	return u
}

// TestScopeFor tests the scope mode to predicate mapping.
func TestScopeFor(t *testing.T) {
	t.Parallel()

	t.Run("returns nil for domain scope", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Scope = config.ScopeDomain
		if scopeFor(cfg) != nil {
			t.Error("expected nil predicate for domain scope (engine default)")
		}
	})

	t.Run("all scope accepts any URL", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Scope = config.ScopeAll
		cfg.Seeds = []string{"http://example.com"}

		fn := scopeFor(cfg)
		if fn == nil {
			t.Fatal("expected non-nil predicate")
		}
		if !fn(mustParseURL(t, "http://other.org/page")) {
			t.Error("expected all scope to accept a foreign host")
		}
	})

	t.Run("host scope accepts only the seed hosts", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Scope = config.ScopeHost
		cfg.Seeds = []string{"http://example.com"}

		fn := scopeFor(cfg)
		if fn == nil {
			t.Fatal("expected non-nil predicate")
		}
		if !fn(mustParseURL(t, "http://example.com/page")) {
			t.Error("expected seed host to be in scope")
		}
		if fn(mustParseURL(t, "http://blog.example.com/")) {
			t.Error("expected subdomain to be out of scope")
		}
		if fn(mustParseURL(t, "http://other.org/")) {
			t.Error("expected foreign host to be out of scope")
		}
	})

	t.Run("host scope includes the port in the match", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Scope = config.ScopeHost
		cfg.Seeds = []string{"http://example.com:8080"}

		fn := scopeFor(cfg)
		if !fn(mustParseURL(t, "http://example.com:8080/page")) {
			t.Error("expected seed host with port to be in scope")
		}
		if fn(mustParseURL(t, "http://example.com/page")) {
			t.Error("expected default-port host to be out of scope")
		}
	})
}

// TestSiteHeaders tests flattening a site config into request headers.
func TestSiteHeaders(t *testing.T) {
	t.Parallel()

	t.Run("cookie becomes a Cookie header", func(t *testing.T) {
		t.Parallel()
		headers := siteHeaders(config.SiteConfig{Cookie: "session=abc"})
		if headers["Cookie"] != "session=abc" {
			t.Errorf("expected Cookie header 'session=abc', got %q", headers["Cookie"])
		}
	})

	t.Run("explicit headers are copied", func(t *testing.T) {
		t.Parallel()
		headers := siteHeaders(config.SiteConfig{
			Headers: map[string]string{"Authorization": "Bearer token"},
		})
		if headers["Authorization"] != "Bearer token" {
			t.Errorf("expected Authorization header, got %q", headers["Authorization"])
		}
	})

	t.Run("explicit Cookie header wins over cookie field", func(t *testing.T) {
		t.Parallel()
		headers := siteHeaders(config.SiteConfig{
			Cookie:  "session=abc",
			Headers: map[string]string{"Cookie": "session=override"},
		})
		if headers["Cookie"] != "session=override" {
			t.Errorf("expected explicit Cookie header to win, got %q", headers["Cookie"])
		}
	})

	t.Run("empty site config yields no headers", func(t *testing.T) {
		t.Parallel()
		headers := siteHeaders(config.SiteConfig{})
		if len(headers) != 0 {
			t.Errorf("expected no headers, got %v", headers)
		}
	})
}

// TestHostOnly tests stripping ports from config file site keys.
func TestHostOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want string
	}{
		{"example.com", "example.com"},
		{"example.com:8080", "example.com"},
		{"127.0.0.1:9050", "127.0.0.1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			if got := hostOnly(tt.key); got != tt.want {
				t.Errorf("hostOnly(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

// TestApplyFileDefaults tests layering config file settings under flags.
func TestApplyFileDefaults(t *testing.T) {
	t.Parallel()

	t.Run("nil site configs is a no-op", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.SiteConfigs = nil
		applyFileDefaults(cfg)
	})

	t.Run("file delay fills in unset flag", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.SiteConfigs = &config.File{
			Defaults: config.SiteConfig{Delay: config.Duration(2 * time.Second)},
		}
		applyFileDefaults(cfg)
		if cfg.Delay != 2*time.Second {
			t.Errorf("expected delay 2s, got %v", cfg.Delay)
		}
	})

	t.Run("explicit delay is kept", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Delay = 100 * time.Millisecond
		cfg.SiteConfigs = &config.File{
			Defaults: config.SiteConfig{Delay: config.Duration(2 * time.Second)},
		}
		applyFileDefaults(cfg)
		if cfg.Delay != 100*time.Millisecond {
			t.Errorf("expected delay 100ms, got %v", cfg.Delay)
		}
	})

	t.Run("default patterns adopted when flags empty", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.SiteConfigs = &config.File{
			Defaults: config.SiteConfig{
				IgnorePatterns: []string{"*.pdf"},
				FollowPatterns: []string{"/docs/*"},
			},
		}
		applyFileDefaults(cfg)
		if len(cfg.IgnorePatterns) != 1 || cfg.IgnorePatterns[0] != "*.pdf" {
			t.Errorf("expected ignorePatterns [*.pdf], got %v", cfg.IgnorePatterns)
		}
		if len(cfg.FollowPatterns) != 1 || cfg.FollowPatterns[0] != "/docs/*" {
			t.Errorf("expected followPatterns [/docs/*], got %v", cfg.FollowPatterns)
		}
	})

	t.Run("seed host patterns join the set", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Seeds = []string{"http://example.com"}
		cfg.IgnorePatterns = []string{"*.pdf"}
		cfg.SiteConfigs = &config.File{
			Sites: map[string]config.SiteConfig{
				"example.com": {IgnorePatterns: []string{"/admin/*"}},
			},
		}
		applyFileDefaults(cfg)
		if len(cfg.IgnorePatterns) != 2 {
			t.Fatalf("expected 2 ignore patterns, got %v", cfg.IgnorePatterns)
		}
		if cfg.IgnorePatterns[0] != "*.pdf" || cfg.IgnorePatterns[1] != "/admin/*" {
			t.Errorf("expected [*.pdf /admin/*], got %v", cfg.IgnorePatterns)
		}
	})

	t.Run("seed with port matches hostname entry", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Seeds = []string{"http://example.com:8080"}
		cfg.SiteConfigs = &config.File{
			Sites: map[string]config.SiteConfig{
				"example.com": {FollowPatterns: []string{"/blog/*"}},
			},
		}
		applyFileDefaults(cfg)
		if len(cfg.FollowPatterns) != 1 || cfg.FollowPatterns[0] != "/blog/*" {
			t.Errorf("expected followPatterns [/blog/*], got %v", cfg.FollowPatterns)
		}
	})

	t.Run("non-seed site patterns are not adopted", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Seeds = []string{"http://example.com"}
		cfg.SiteConfigs = &config.File{
			Sites: map[string]config.SiteConfig{
				"other.org": {IgnorePatterns: []string{"/private/*"}},
			},
		}
		applyFileDefaults(cfg)
		if len(cfg.IgnorePatterns) != 0 {
			t.Errorf("expected no ignore patterns, got %v", cfg.IgnorePatterns)
		}
	})
}

// TestCrawlObserver tests failure collection from page result callbacks.
func TestCrawlObserver(t *testing.T) {
	t.Parallel()

	t.Run("records failed fetches", func(t *testing.T) {
		t.Parallel()
		observer := newCrawlObserver()

		observer.OnPageResult(&model.PageResult{
			URL:        "http://example.com/missing",
			Referrer:   "http://example.com/",
			Depth:      1,
			StatusCode: 404,
			Err: &model.FetchError{
				Kind:       model.FetchStatus,
				URL:        "http://example.com/missing",
				StatusCode: 404,
			},
			ErrorMessage: "unexpected status 404",
		})

		summary := model.NewCrawlSummary([]string{"http://example.com/"})
		crawlReport := observer.buildReport(summary)

		if crawlReport.Summary != summary {
			t.Error("expected summary to be attached to the report")
		}
		if len(crawlReport.Failures) != 1 {
			t.Fatalf("expected 1 failure, got %d", len(crawlReport.Failures))
		}
		if crawlReport.Failures[0].Kind != "status" {
			t.Errorf("expected kind 'status', got %q", crawlReport.Failures[0].Kind)
		}
	})

	t.Run("ignores successful fetches", func(t *testing.T) {
		t.Parallel()
		observer := newCrawlObserver()

		observer.OnPageResult(&model.PageResult{
			URL:        "http://example.com/",
			StatusCode: 200,
		})

		crawlReport := observer.buildReport(model.NewCrawlSummary(nil))
		if len(crawlReport.Failures) != 0 {
			t.Errorf("expected no failures, got %d", len(crawlReport.Failures))
		}
	})

	t.Run("link found callback is a no-op", func(t *testing.T) {
		t.Parallel()
		observer := newCrawlObserver()
		// Inherited from NopCallbacks; must not panic.
		observer.OnLinkFound("http://example.com/", "/a", "http://example.com/a", nil)
	})
}

// TestNewCrawler tests crawler assembly from the configuration.
func TestNewCrawler(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	t.Run("builds crawler from config", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Seeds = []string{"http://example.com"}
		cfg.SiteConfigs = &config.File{
			Sites: map[string]config.SiteConfig{
				"example.com": {Delay: config.Duration(time.Second)},
			},
		}

		c, err := newCrawler(cfg, newFetcher(cfg), newCrawlObserver(), logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c == nil {
			t.Error("expected non-nil crawler")
		}
	})

	t.Run("rejects non-positive concurrency", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Concurrency = 0

		_, err := newCrawler(cfg, newFetcher(cfg), newCrawlObserver(), logger)
		if err == nil {
			t.Fatal("expected error for zero concurrency")
		}
		if !errors.Is(err, crawler.ErrInvalidConcurrency) {
			t.Errorf("expected ErrInvalidConcurrency, got %v", err)
		}
	})
}

// TestRunCrawlSeedErrors tests that runCrawl surfaces seed problems.
func TestRunCrawlSeedErrors(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	t.Run("no seeds", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()

		err := runCrawl(context.Background(), cfg, logger)
		if err == nil {
			t.Fatal("expected error for empty seed list")
		}
		if !errors.Is(err, crawler.ErrNoSeeds) {
			t.Errorf("expected ErrNoSeeds, got %v", err)
		}
	})

	t.Run("unsupported seed scheme", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Seeds = []string{"ftp://example.com/files"}

		err := runCrawl(context.Background(), cfg, logger)
		if err == nil {
			t.Fatal("expected error for unsupported scheme")
		}
		if !errors.Is(err, crawler.ErrInvalidSeed) {
			t.Errorf("expected ErrInvalidSeed, got %v", err)
		}
	})
}

// TestOutputReport tests the report output functionality.
func TestOutputReport(t *testing.T) {
	newTestReport := func() *model.CrawlReport {
		summary := model.NewCrawlSummary([]string{"http://example.com/"})
		summary.PagesFetched = 3
		summary.Duration = 2 * time.Second
		return model.NewCrawlReport(summary)
	}

	t.Run("outputs JSON report to file", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.json")

		cfg := &config.Config{
			JSONReport: true,
			ReportFile: outputPath,
		}

		err := outputReport(cfg, newTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Verify file exists
		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			t.Error("expected output file to be created")
		}

		// Verify JSON content
		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}

		var result map[string]interface{}
		if err := json.Unmarshal(content, &result); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}

		if version, ok := result["version"].(string); !ok || version == "" {
			t.Errorf("expected non-empty version, got %v", result["version"])
		}
		if result["report"] == nil {
			t.Error("expected report field in JSON output")
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "subdir", "nested", "report.json")

		cfg := &config.Config{
			JSONReport: true,
			ReportFile: outputPath,
		}

		err := outputReport(cfg, newTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			t.Error("expected output file to be created in nested directory")
		}
	})

	t.Run("outputs text report to file", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.txt")

		cfg := &config.Config{
			ReportFile: outputPath,
		}

		err := outputReport(cfg, newTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}

		if !strings.Contains(string(content), "KUMO CRAWL REPORT") {
			t.Error("expected report banner in text output")
		}
		if !strings.Contains(string(content), "http://example.com/") {
			t.Error("expected report to contain the seed URL")
		}
	})

	t.Run("outputs markdown report to file", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.md")

		cfg := &config.Config{
			MarkdownReport: true,
			ReportFile:     outputPath,
		}

		err := outputReport(cfg, newTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}

		if !strings.Contains(string(content), "# Kumo Crawl Report") {
			t.Error("expected markdown heading in output")
		}
	})

	t.Run("outputs to stdout when no file specified", func(t *testing.T) {
		cfg := &config.Config{}

		// This should not fail - just outputs to stdout
		err := outputReport(cfg, newTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("file permissions are owner-only", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("skipping permission test on Windows")
		}

		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.txt")

		cfg := &config.Config{ReportFile: outputPath}

		if err := outputReport(cfg, newTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		info, err := os.Stat(outputPath)
		if err != nil {
			t.Fatalf("failed to stat file: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}
	})
}
