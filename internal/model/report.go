package model

import "errors"

// CrawlReport is the full record of one crawl run. The engine itself
// retains only the aggregate CrawlSummary; the caller assembles the
// report by keeping the per-page results it cares about as they arrive
// through the page-result callback.
//
// Not safe for concurrent use. Page-result callbacks may fire from
// multiple workers at once, so callers that populate a report from a
// callback must serialize their AddFailure calls.
type CrawlReport struct {
	// Summary holds the aggregate counters produced by the engine.
	Summary *CrawlSummary `json:"summary"`

	// Failures lists the pages whose fetch failed, in arrival order.
	Failures []PageFailure `json:"failures,omitempty"`
}

// PageFailure is the retained record of one failed page fetch.
// It carries only the fields worth keeping after the crawl; the full
// PageResult is not retained.
type PageFailure struct {
	// URL is the canonical URL whose fetch failed.
	URL string `json:"url"`

	// Referrer is the page the URL was discovered on. Empty for seeds.
	Referrer string `json:"referrer,omitempty"`

	// Depth is the link distance from the seed set.
	Depth int `json:"depth"`

	// StatusCode is the HTTP status code, zero when no response arrived.
	StatusCode int `json:"status_code,omitempty"`

	// Kind is the fetch error kind (connection, timeout, tls, status,
	// body_read). "unknown" when the error carried no classification.
	Kind string `json:"kind"`

	// Error is the error message of the failed fetch.
	Error string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewCrawlReport creates a report around the given summary with no
// retained failures.
func NewCrawlReport(summary *CrawlSummary) *CrawlReport {
	return &CrawlReport{Summary: summary}
}

// AddFailure records a failed page result in the report.
// Results without an error are ignored, so the method can be called
// unconditionally from a page-result callback.
func (r *CrawlReport) AddFailure(result *PageResult) {
	if result == nil || result.Err == nil {
		return
	}

	kind := "unknown"
	var fetchErr *FetchError
	if errors.As(result.Err, &fetchErr) {
		kind = fetchErr.Kind.String()
	}

	r.Failures = append(r.Failures, PageFailure{
		URL:        result.URL,
		Referrer:   result.Referrer,
		Depth:      result.Depth,
		StatusCode: result.StatusCode,
		Kind:       kind,
		Error:      result.ErrorMessage,
	})
}
