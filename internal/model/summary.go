package model

import "time"

// CrawlSummary aggregates the outcome of one crawl run.
// It holds counters only; individual PageResults are handed to the
// page-result callback and not retained by the engine.
type CrawlSummary struct {
	// Seeds are the canonical seed URLs the crawl started from.
	Seeds []string `json:"seeds"`

	// StartedAt is the timestamp when the crawl started.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total wall time of the crawl.
	Duration time.Duration `json:"duration"`

	// PagesFetched is the number of pages fetched successfully.
	PagesFetched int `json:"pages_fetched"`

	// PagesFailed is the number of pages whose fetch produced an error,
	// including non-2xx HTTP statuses.
	PagesFailed int `json:"pages_failed"`

	// UniqueURLs is the number of distinct canonical URLs claimed during
	// the run, whether or not they were ultimately fetched.
	UniqueURLs int `json:"unique_urls"`

	// LinksFound is the total number of raw href values discovered
	// across all fetched pages.
	LinksFound int `json:"links_found"`

	// LinksQueued is the number of resolved links that were claimed and
	// enqueued for fetching.
	LinksQueued int `json:"links_queued"`

	// DuplicatePages counts successful fetches whose body fingerprint was
	// already seen under a different URL.
	DuplicatePages int `json:"duplicate_pages"`

	// FetchErrors counts failed fetches by error kind
	// (connection, timeout, tls, status, body_read).
	FetchErrors map[string]int `json:"fetch_errors,omitempty"`

	// LinkErrors counts rejected links by error kind
	// (malformed, unsupported, out_of_scope).
	LinkErrors map[string]int `json:"link_errors,omitempty"`

	// Interrupted is true if the crawl was cancelled before draining the
	// frontier. The counters still reflect the work completed.
	Interrupted bool `json:"interrupted"`
}

// NewCrawlSummary creates an empty summary for the given seeds.
func NewCrawlSummary(seeds []string) *CrawlSummary {
	return &CrawlSummary{
		Seeds:       seeds,
		StartedAt:   time.Now(),
		FetchErrors: make(map[string]int),
		LinkErrors:  make(map[string]int),
	}
}

// TotalPages returns the number of pages attempted (fetched + failed).
func (s *CrawlSummary) TotalPages() int {
	return s.PagesFetched + s.PagesFailed
}

// TotalLinkErrors returns the number of links rejected at resolution time.
func (s *CrawlSummary) TotalLinkErrors() int {
	total := 0
	for _, n := range s.LinkErrors {
		total += n
	}
	return total
}

// HasErrors reports whether any fetch failed during the run.
func (s *CrawlSummary) HasErrors() bool {
	return s.PagesFailed > 0
}

// RecordFetchError increments the counter for the given fetch error kind.
// Not safe for concurrent use; the coordinator serializes summary updates.
func (s *CrawlSummary) RecordFetchError(kind string) {
	if s.FetchErrors == nil {
		s.FetchErrors = make(map[string]int)
	}
	s.FetchErrors[kind]++
}

// RecordLinkError increments the counter for the given link error kind.
// Not safe for concurrent use; the coordinator serializes summary updates.
func (s *CrawlSummary) RecordLinkError(kind string) {
	if s.LinkErrors == nil {
		s.LinkErrors = make(map[string]int)
	}
	s.LinkErrors[kind]++
}
