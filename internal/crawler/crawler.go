package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/kumo/internal/model"
	"golang.org/x/sync/errgroup"
)

// Fetcher fetches a single page. It is consumed by the Crawler as a
// capability so that transport concerns (pooling, TLS, redirects,
// timeouts) stay outside the crawl core and tests can substitute a fake.
// Fetch must honor ctx and should return a non-nil result even on
// failure, carrying whatever was learned before the error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.PageResult, error)
}

// DefaultConcurrency returns the default worker count: the number of
// logical CPUs. A crawl is network-bound and would tolerate more workers
// than CPUs, but the CPU count scales sensibly from laptops to servers
// without oversubscribing constrained hosts, and it is trivial to
// override with WithConcurrency.
func DefaultConcurrency() int {
	return runtime.NumCPU()
}

// Crawler fetches pages starting from seed URLs, discovers links on each
// fetched page, and recursively follows the ones that are in scope and
// not yet visited, until the frontier drains.
//
// Design decision: The recursive follow-link structure is flattened into
// an explicit frontier queue worked by a fixed pool of goroutines
// because:
//  1. Deep link graphs must not grow the call stack
//  2. A queue makes the traversal order breadth-first, so shallow pages
//     are covered before the crawl wanders deep
//  3. A fixed pool bounds concurrent connections regardless of how fast
//     the frontier grows
//
// Configuration is immutable once New returns; all mutable state lives
// in a per-run structure, so a Crawler can be reused for independent
// sequential runs and two Crawlers never share crawl state.
type Crawler struct {
	// fetcher performs the HTTP requests.
	fetcher Fetcher

	// extractor pulls raw links out of fetched bodies.
	extractor Extractor

	// callbacks receives per-link and per-page events.
	callbacks Callbacks

	// logger is used for crawl-level logging.
	logger *slog.Logger

	// concurrency is the number of fetch workers.
	concurrency int

	// delay is the politeness delay between fetch dispatches.
	delay time.Duration

	// perHostGate selects per-host politeness instead of one global gate.
	perHostGate bool

	// hostDelays overrides the politeness delay for specific hosts.
	hostDelays map[string]time.Duration

	// scope decides which discovered URLs are eligible. Nil means the
	// default policy: same registrable domain as the seeds.
	scope ScopeFunc

	// ignorePatterns are URL path patterns to skip during crawling.
	// Patterns use glob syntax (e.g., "/admin/*", "*.pdf").
	ignorePatterns []string

	// followPatterns are URL path patterns to follow during crawling.
	// If set, only URLs matching these patterns are crawled.
	followPatterns []string

	// maxDepth limits how many link hops from a seed are followed.
	// 0 or negative means unlimited.
	maxDepth int

	// maxPages limits the total number of pages fetched in one run.
	// 0 or negative means unlimited.
	maxPages int

	// current points at the state of the most recently started run,
	// for Stats.
	current atomic.Pointer[run]
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithConcurrency sets the number of fetch workers. The value is
// validated by New: zero or negative is a configuration error, not a
// silent fallback.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		c.concurrency = n
	}
}

// WithDelay sets the politeness delay between fetch dispatches.
// Zero disables the delay.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) {
		c.delay = d
	}
}

// WithPerHostGate spaces dispatches separately per target host instead
// of one global rate across the whole run.
func WithPerHostGate() Option {
	return func(c *Crawler) {
		c.perHostGate = true
	}
}

// WithHostDelay overrides the politeness delay for one host and implies
// WithPerHostGate. An override of zero disables the gate for that host.
func WithHostDelay(host string, d time.Duration) Option {
	return func(c *Crawler) {
		if c.hostDelays == nil {
			c.hostDelays = make(map[string]time.Duration)
		}
		c.hostDelays[strings.ToLower(host)] = d
		c.perHostGate = true
	}
}

// WithScope replaces the default same-registrable-domain scope policy.
func WithScope(scope ScopeFunc) Option {
	return func(c *Crawler) {
		c.scope = scope
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
// URLs matching any of these patterns will not be crawled.
func WithIgnorePatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// If set, only URLs matching at least one pattern are crawled.
// Empty means all URLs are allowed (subject to ignore patterns).
func WithFollowPatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.followPatterns = patterns
	}
}

// WithMaxDepth limits how many link hops from a seed are followed.
// 1 means seeds plus the pages they link to. 0 or negative means
// unlimited, which is the default.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		c.maxDepth = depth
	}
}

// WithMaxPages limits the total number of pages fetched in one run.
// 0 or negative means unlimited, which is the default.
func WithMaxPages(pages int) Option {
	return func(c *Crawler) {
		c.maxPages = pages
	}
}

// WithCallbacks sets the event receiver for link-found and page-result
// events. See the Callbacks documentation for the concurrency contract.
func WithCallbacks(callbacks Callbacks) Option {
	return func(c *Crawler) {
		c.callbacks = callbacks
	}
}

// WithExtractor replaces the default HTML link extractor.
func WithExtractor(extractor Extractor) Option {
	return func(c *Crawler) {
		c.extractor = extractor
	}
}

// WithLogger sets a custom logger for crawl-level logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler around the given fetch capability.
// Configuration problems are reported here, before any crawl starts:
// a zero or negative concurrency yields ErrInvalidConcurrency and a
// negative delay yields ErrInvalidDelay.
func New(fetcher Fetcher, opts ...Option) (*Crawler, error) {
	c := &Crawler{
		fetcher:     fetcher,
		concurrency: DefaultConcurrency(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.fetcher == nil {
		return nil, errors.New("crawler: fetcher is required")
	}
	if c.concurrency <= 0 {
		return nil, ErrInvalidConcurrency
	}
	if c.delay < 0 {
		return nil, ErrInvalidDelay
	}
	for host, d := range c.hostDelays {
		if d < 0 {
			return nil, fmt.Errorf("%w: host %q", ErrInvalidDelay, host)
		}
	}

	if c.extractor == nil {
		c.extractor = NewHTMLExtractor()
	}
	if c.callbacks == nil {
		c.callbacks = NopCallbacks{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

// run owns the mutable state of one crawl. Crawl creates a fresh run per
// call, so runs never contaminate each other.
//
// Task accounting: wg carries one count per task pushed to the frontier
// and not yet fully processed. Workers add counts for newly discovered
// links before releasing the count of the task that discovered them, so
// wg reaches zero only when the frontier is empty and no worker holds a
// task. That moment is the termination condition.
type run struct {
	frontier *Frontier
	visited  *Visited
	gate     *Gate
	scope    ScopeFunc

	wg sync.WaitGroup

	// inFlight counts tasks taken from the frontier and not yet
	// completed.
	inFlight atomic.Int64

	// reserved counts pages reserved against the maxPages budget.
	reserved atomic.Int64

	// mu guards summary and fingerprints.
	mu           sync.Mutex
	summary      *model.CrawlSummary
	fingerprints map[string]bool
}

// Crawl fetches the seed URLs and everything reachable from them within
// scope, blocking until the frontier drains or ctx is cancelled. Every
// fetched page is reported through the page-result callback; every
// discovered link through the link-found callback. Per-page and per-link
// failures never abort the crawl.
//
// The returned summary is always non-nil when the error is nil. On
// cancellation in-flight fetches finish naturally, queued tasks are
// dropped, and the summary is returned with Interrupted set. The only
// errors Crawl itself returns are seed problems found before the first
// request: no seeds, an unparseable seed, or a seed whose scheme is not
// http(s).
func (c *Crawler) Crawl(ctx context.Context, seeds []string) (*model.CrawlSummary, error) {
	tasks, err := c.prepareSeeds(seeds)
	if err != nil {
		return nil, err
	}

	seedURLs := make([]string, 0, len(tasks))
	for _, task := range tasks {
		seedURLs = append(seedURLs, task.URL)
	}

	r := &run{
		frontier:     NewFrontier(),
		visited:      NewVisited(),
		gate:         c.newGate(),
		scope:        c.effectiveScope(tasks),
		summary:      model.NewCrawlSummary(seedURLs),
		fingerprints: make(map[string]bool),
	}
	c.current.Store(r)

	start := time.Now()
	c.logger.Info("starting crawl",
		"seeds", len(tasks),
		"concurrency", c.concurrency,
		"delay", c.delay,
	)

	for _, task := range tasks {
		if r.visited.TryClaim(task.URL) {
			r.wg.Add(1)
			r.frontier.Push(task)
		}
	}

	// Coordinator: when every pushed task has been processed no new
	// push can happen, so closing the frontier releases the workers.
	go func() {
		r.wg.Wait()
		r.frontier.Close()
	}()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.concurrency; i++ {
		g.Go(func() error {
			return c.worker(gctx, r)
		})
	}

	if err := g.Wait(); err != nil {
		// Cancelled. Workers have stopped; release the accounting of
		// tasks still queued so the coordinator goroutine can finish.
		for {
			if _, ok := r.frontier.TryPop(); !ok {
				break
			}
			r.wg.Done()
		}
		r.mu.Lock()
		r.summary.Interrupted = true
		r.mu.Unlock()
	}
	r.wg.Wait()

	r.mu.Lock()
	r.summary.UniqueURLs = r.visited.Len()
	r.summary.Duration = time.Since(start)
	summary := r.summary
	r.mu.Unlock()

	c.logger.Info("crawl finished",
		"pages", summary.TotalPages(),
		"failed", summary.PagesFailed,
		"unique_urls", summary.UniqueURLs,
		"duration", summary.Duration,
		"interrupted", summary.Interrupted,
	)

	return summary, nil
}

// worker loops popping tasks until the frontier closes or the context is
// cancelled. It returns the context error so the pool distinguishes a
// completed run from an interrupted one.
func (c *Crawler) worker(ctx context.Context, r *run) error {
	for {
		task, ok := r.frontier.Pop(ctx)
		if !ok {
			return ctx.Err()
		}

		r.inFlight.Add(1)
		c.process(ctx, r, task)
		r.inFlight.Add(-1)
		r.wg.Done()
	}
}

// process handles one task end to end: politeness gate, fetch, link
// discovery, bookkeeping, callbacks. It never returns an error; every
// failure is recorded in the page result and the summary.
func (c *Crawler) process(ctx context.Context, r *run, task Task) {
	if !r.reservePage(c.maxPages) {
		return
	}

	if err := r.gate.Wait(ctx, hostOf(task.URL)); err != nil {
		// Cancelled while waiting for a dispatch slot. The page was
		// never requested, so there is no result to report.
		return
	}

	result, err := c.fetcher.Fetch(ctx, task.URL)
	if result == nil {
		result = &model.PageResult{URL: task.URL, FinalURL: task.URL, FetchedAt: time.Now()}
		result.SetError(err)
	}
	result.Referrer = task.Referrer
	result.Depth = task.Depth

	if err != nil {
		c.logger.Debug("fetch failed",
			"url", task.URL,
			"depth", task.Depth,
			"error", err,
		)
		r.recordFailure(err)
	} else {
		links := c.extractLinks(result)
		result.LinksFound = len(links)
		c.followLinks(r, result, task, links)
		r.recordSuccess(result)
		c.logger.Debug("fetched page",
			"url", task.URL,
			"status", result.StatusCode,
			"links", len(links),
			"duration", result.Duration,
		)
	}

	c.callbacks.OnPageResult(result)
}

// extractLinks parses the body of a successfully fetched page. A parse
// failure is not a page failure: the page result stays successful and
// the crawl simply found no links there.
func (c *Crawler) extractLinks(result *model.PageResult) []string {
	if len(result.Body) == 0 || !result.IsHTML() {
		return nil
	}

	extracted, err := c.extractor.Extract(result.Body, result.ContentType)
	if err != nil {
		c.logger.Debug("parse failed, treating page as linkless",
			"url", result.URL,
			"error", err,
		)
		return nil
	}

	result.Title = extracted.Title
	return extracted.Links
}

// followLinks resolves every raw link found on a page, reports each
// outcome through the link-found callback, and enqueues the accepted
// ones that have not been claimed before. Relative links resolve against
// the final URL of the page so redirected pages behave the way a browser
// renders them.
func (c *Crawler) followLinks(r *run, result *model.PageResult, task Task, links []string) {
	if len(links) == 0 {
		return
	}

	base := result.FinalURL
	if base == "" {
		base = result.URL
	}
	resolver, err := NewResolver(base, r.scope)
	if err != nil {
		c.logger.Debug("unusable base URL, dropping links",
			"url", result.URL,
			"base", base,
			"error", err,
		)
		return
	}

	atDepthLimit := c.maxDepth > 0 && task.Depth >= c.maxDepth

	for _, raw := range links {
		resolved, rerr := resolver.Resolve(raw)
		c.callbacks.OnLinkFound(result.URL, raw, resolved, rerr)
		r.recordLink(rerr)

		if rerr != nil || atDepthLimit {
			continue
		}
		if r.visited.TryClaim(resolved) {
			r.wg.Add(1)
			r.frontier.Push(Task{
				URL:      resolved,
				Depth:    task.Depth + 1,
				Referrer: result.URL,
			})
			r.recordQueued()
		}
	}
}

// prepareSeeds validates and canonicalizes the seed URLs. Seeds bypass
// the scope predicate: the caller asked for them explicitly.
func (c *Crawler) prepareSeeds(seeds []string) ([]Task, error) {
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}

	tasks := make([]Task, 0, len(seeds))
	for _, seed := range seeds {
		u, err := url.Parse(strings.TrimSpace(seed))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSeed, seed, err)
		}
		if !isSupportedScheme(u.Scheme) {
			return nil, fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidSeed, seed)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("%w: %q: missing host", ErrInvalidSeed, seed)
		}
		tasks = append(tasks, Task{URL: Canonicalize(u), Depth: 0})
	}
	return tasks, nil
}

// effectiveScope builds the scope predicate for one run: the configured
// scope (or the default, same registrable domain as the seeds) narrowed
// by any path patterns.
func (c *Crawler) effectiveScope(seeds []Task) ScopeFunc {
	scope := c.scope
	if scope == nil {
		hosts := make([]string, 0, len(seeds))
		for _, task := range seeds {
			if u, err := url.Parse(task.URL); err == nil {
				hosts = append(hosts, u.Hostname())
			}
		}
		scope = ScopeDomains(hosts...)
	}

	if len(c.ignorePatterns) > 0 || len(c.followPatterns) > 0 {
		scope = combineScopes(scope, pathFilter(c.ignorePatterns, c.followPatterns))
	}
	return scope
}

// newGate builds the politeness gate for one run.
func (c *Crawler) newGate() *Gate {
	if c.perHostGate {
		return NewPerHostGate(c.delay, c.hostDelays)
	}
	return NewGate(c.delay)
}

// reservePage reserves one page of the maxPages budget. A false return
// means the budget is spent and the task must be dropped.
func (r *run) reservePage(maxPages int) bool {
	if maxPages <= 0 {
		return true
	}
	for {
		n := r.reserved.Load()
		if n >= int64(maxPages) {
			return false
		}
		if r.reserved.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// recordSuccess counts a fetched page and detects duplicate content via
// the body fingerprint.
func (r *run) recordSuccess(result *model.PageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.PagesFetched++
	if result.Fingerprint != "" {
		if r.fingerprints[result.Fingerprint] {
			r.summary.DuplicatePages++
		} else {
			r.fingerprints[result.Fingerprint] = true
		}
	}
}

// recordFailure counts a failed page by fetch error kind.
func (r *run) recordFailure(err error) {
	kind := "unknown"
	var fetchErr *model.FetchError
	if errors.As(err, &fetchErr) {
		kind = fetchErr.Kind.String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.PagesFailed++
	r.summary.RecordFetchError(kind)
}

// recordLink counts a discovered link and, on rejection, its kind.
func (r *run) recordLink(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.LinksFound++
	if err != nil {
		var linkErr *LinkError
		if errors.As(err, &linkErr) {
			r.summary.RecordLinkError(linkErr.Kind.String())
		}
	}
}

// recordQueued counts a link claimed and pushed to the frontier.
func (r *run) recordQueued() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.LinksQueued++
}

// CrawlStats is a point-in-time snapshot of crawl progress.
type CrawlStats struct {
	// InFlight is the number of tasks taken from the frontier and not
	// yet completed.
	InFlight int64

	// Queued is the number of tasks waiting in the frontier.
	Queued int64

	// Visited is the number of unique URLs claimed so far.
	Visited int

	// Fetched is the number of pages fetched successfully so far.
	Fetched int

	// Failed is the number of pages that failed so far.
	Failed int
}

// Stats reports the progress of the most recently started run. It is
// safe to call from any goroutine while a crawl is running, and after
// Crawl returns it reports the final numbers.
func (c *Crawler) Stats() CrawlStats {
	r := c.current.Load()
	if r == nil {
		return CrawlStats{}
	}

	r.mu.Lock()
	fetched := r.summary.PagesFetched
	failed := r.summary.PagesFailed
	r.mu.Unlock()

	return CrawlStats{
		InFlight: r.inFlight.Load(),
		Queued:   r.frontier.Len(),
		Visited:  r.visited.Len(),
		Fetched:  fetched,
		Failed:   failed,
	}
}

// hostOf extracts the gate key from a canonical URL: the host including
// any explicit port, so two services on one machine are gated
// separately. Canonical URLs always parse; an empty host on failure
// simply shares the default gate.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
