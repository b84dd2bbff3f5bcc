package crawler

import (
	"errors"
	"fmt"
)

// Crawl configuration errors.
// These errors are returned by New() and Crawl() before any worker starts
// and are the only fatal errors in the package; everything that happens
// after the crawl begins is reported per-link or per-page instead.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances at the call site. This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSeeds is returned when Crawl is called with an empty seed list.
	// A crawl needs at least one starting URL.
	ErrNoSeeds = errors.New("no seed URLs: provide at least one starting URL")

	// ErrInvalidSeed is returned when a seed URL cannot be parsed or does
	// not use the http or https scheme. Seed problems are detected before
	// the crawl starts; a bad seed fails the whole call.
	ErrInvalidSeed = errors.New("invalid seed URL")

	// ErrInvalidConcurrency is returned when the worker count is zero or
	// negative. Use the default (derived from CPU count) by not setting it.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidDelay is returned when the politeness delay is negative.
	// Use 0 for no delay between request dispatches.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")
)

// LinkErrorKind classifies why a discovered link was rejected during
// resolution. Rejections are normal crawl events, not failures; they are
// reported through the link-found callback and counted in the summary.
type LinkErrorKind int

const (
	// LinkMalformed means the raw link text could not be parsed as a URL.
	LinkMalformed LinkErrorKind = iota

	// LinkUnsupported means the link resolved to a scheme the crawler does
	// not fetch, such as mailto, javascript, tel, or data.
	LinkUnsupported

	// LinkOutOfScope means the link resolved to a URL outside the
	// configured crawl scope.
	LinkOutOfScope
)

// String returns a short identifier for the kind, used as a map key in
// CrawlSummary and in log output.
func (k LinkErrorKind) String() string {
	switch k {
	case LinkMalformed:
		return "malformed"
	case LinkUnsupported:
		return "unsupported"
	case LinkOutOfScope:
		return "out_of_scope"
	default:
		return "unknown"
	}
}

// LinkError reports why a single raw link was rejected by the Resolver.
// It carries the raw link text as found in the page so callbacks can
// correlate the rejection with the document content.
type LinkError struct {
	// Kind classifies the rejection.
	Kind LinkErrorKind

	// Raw is the link text exactly as it appeared in the href attribute.
	Raw string

	// Err is the underlying parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *LinkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("link %s: %q: %v", e.Kind, e.Raw, e.Err)
	}
	return fmt.Sprintf("link %s: %q", e.Kind, e.Raw)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *LinkError) Unwrap() error {
	return e.Err
}
