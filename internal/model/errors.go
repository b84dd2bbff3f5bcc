package model

import (
	"fmt"
	"strconv"
)

// FetchErrorKind classifies why a page fetch failed.
type FetchErrorKind int

const (
	// FetchConnection indicates the connection could not be established
	// (DNS failure, refused connection, reset, unreachable host).
	FetchConnection FetchErrorKind = iota

	// FetchTimeout indicates the request exceeded its deadline.
	FetchTimeout

	// FetchTLS indicates the TLS handshake or certificate verification failed.
	FetchTLS

	// FetchStatus indicates the server answered with a non-2xx status code.
	// The status code is preserved in FetchError.StatusCode.
	FetchStatus

	// FetchBodyRead indicates the response body could not be read completely.
	FetchBodyRead
)

// String returns the stable name of the kind, used as the key in
// CrawlSummary.FetchErrors.
func (k FetchErrorKind) String() string {
	switch k {
	case FetchConnection:
		return "connection"
	case FetchTimeout:
		return "timeout"
	case FetchTLS:
		return "tls"
	case FetchStatus:
		return "status"
	case FetchBodyRead:
		return "body_read"
	default:
		return "unknown"
	}
}

// FetchError describes a failed page fetch. It is attached to the
// PageResult of the failed page and never aborts the crawl.
type FetchError struct {
	// Kind classifies the failure.
	Kind FetchErrorKind

	// URL is the URL whose fetch failed.
	URL string

	// StatusCode is the HTTP status code for FetchStatus errors, zero otherwise.
	StatusCode int

	// Err is the underlying cause, preserved for errors.Is/errors.As.
	// Nil for FetchStatus errors.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	switch {
	case e.Kind == FetchStatus:
		return "fetch " + e.URL + ": unexpected status " + strconv.Itoa(e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	default:
		return "fetch " + e.URL + ": " + e.Kind.String()
	}
}

// Unwrap returns the underlying cause so callers can use errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}
