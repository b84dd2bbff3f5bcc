package model

import (
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// PageResult represents the outcome of fetching a single page.
// Exactly one result is produced per dequeued URL, whether the fetch
// succeeded or failed, and it is handed to the page-result callback.
//
// Design decision: success and failure share one structure because:
// 1. The callback surface stays a single method
// 2. Partial data (status code, final URL) survives an HTTP error status
// 3. Aggregation only needs to inspect Err to classify the outcome
type PageResult struct {
	// URL is the canonical URL that was fetched.
	URL string `json:"url"`

	// FinalURL is the URL the fetch actually landed on after redirects.
	// Equal to URL when no redirect occurred. Discovered links resolve
	// against this URL, not the requested one.
	FinalURL string `json:"final_url,omitempty"`

	// Referrer is the canonical URL of the page this URL was discovered on.
	// Empty for seed URLs.
	Referrer string `json:"referrer,omitempty"`

	// Depth is the link distance from the seed set. Seeds are depth 0.
	Depth int `json:"depth"`

	// StatusCode is the HTTP response status code.
	// Zero when the request never produced a response.
	StatusCode int `json:"status_code,omitempty"`

	// ContentType is the value of the Content-Type response header,
	// including parameters such as charset. The charset parameter is
	// needed downstream to decode the body correctly.
	ContentType string `json:"content_type,omitempty"`

	// Title is the page title extracted from the <title> tag.
	// Empty for non-HTML content and failed fetches.
	Title string `json:"title,omitempty"`

	// Body contains the response body, capped at the configured maximum
	// body size. Nil for failed fetches.
	Body []byte `json:"-"` // Excluded from JSON to keep reports small

	// BytesRead is the number of body bytes actually read.
	BytesRead int64 `json:"bytes_read,omitempty"`

	// LinksFound is the number of raw href values discovered on the page
	// before resolution and dedup.
	LinksFound int `json:"links_found"`

	// Fingerprint is the SHA3-256 hash of Body as a hex string.
	// Used to detect identical content served under distinct URLs.
	Fingerprint string `json:"fingerprint,omitempty"`

	// FetchedAt is the timestamp when the fetch started.
	FetchedAt time.Time `json:"fetched_at"`

	// Duration is the wall time the fetch took.
	Duration time.Duration `json:"duration"`

	// Err holds the typed fetch error when the fetch failed.
	// Nil on success.
	Err error `json:"-"` // Excluded from JSON

	// ErrorMessage is the string representation of Err for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// Failed reports whether the fetch produced an error outcome.
func (p *PageResult) Failed() bool {
	return p.Err != nil
}

// SetError records err as the result outcome.
// A nil err clears the error state.
func (p *PageResult) SetError(err error) {
	p.Err = err
	if err != nil {
		p.ErrorMessage = err.Error()
		return
	}
	p.ErrorMessage = ""
}

// IsHTML returns true if the content type indicates an HTML document.
func (p *PageResult) IsHTML() bool {
	return p.ContentType == "text/html" ||
		p.ContentType == "application/xhtml+xml" ||
		strings.HasPrefix(p.ContentType, "text/html")
}

// ComputeFingerprint calculates and sets the SHA3-256 hash of the body.
// This should be called after setting the Body field.
func (p *PageResult) ComputeFingerprint() {
	if len(p.Body) == 0 {
		p.Fingerprint = ""
		return
	}

	hash := sha3.Sum256(p.Body)
	p.Fingerprint = hex.EncodeToString(hash[:])
}
