package fetcher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/nao1215/kumo/internal/model"
)

const (
	// DefaultTimeout is the default per-request timeout.
	// Generous enough for slow servers, short enough that a stuck
	// connection does not stall a worker for long.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize is the default cap on response body reads.
	// Larger bodies are truncated at this size.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5 MB

	// DefaultUserAgent identifies kumo to the servers it crawls.
	DefaultUserAgent = "kumo/1.0 (+https://github.com/nao1215/kumo)"

	// maxRedirects limits redirect chains to prevent loops.
	maxRedirects = 10
)

// Fetcher retrieves single pages over HTTP and classifies failures.
//
// Design decision: We require an external http.Client rather than always
// building one because:
//  1. Transport concerns (proxies, TLS settings) stay outside the fetch logic
//  2. Tests can pass an httptest server's client directly
//  3. Callers can share one connection pool across components
type Fetcher struct {
	// client is the HTTP client used for all requests.
	client *http.Client

	// userAgent is the User-Agent header sent with every request.
	userAgent string

	// maxBodySize limits how many body bytes are read per response.
	maxBodySize int64

	// headers are extra headers applied to every request.
	headers map[string]string

	// hostHeaders are extra headers applied only to requests whose
	// hostname matches the map key (lowercase, without port).
	hostHeaders map[string]map[string]string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum response body size to read.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithHeaders sets extra headers applied to every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithHostHeaders sets extra headers applied only to requests for the
// given hostname (matched case-insensitively, without port).
func WithHostHeaders(host string, headers map[string]string) Option {
	return func(f *Fetcher) {
		if f.hostHeaders == nil {
			f.hostHeaders = make(map[string]map[string]string)
		}
		f.hostHeaders[strings.ToLower(host)] = headers
	}
}

// New creates a Fetcher using the given HTTP client.
// A nil client falls back to NewDefaultClient(DefaultTimeout).
func New(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = NewDefaultClient(DefaultTimeout)
	}

	f := &Fetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// NewDefaultClient creates an HTTP client tuned for crawling.
//
// Design decisions:
//   - Connection pool sized for a handful of workers hitting few hosts
//   - Redirects stop after maxRedirects and surface the last response,
//     so redirect loops show up as status errors instead of hanging
//   - A cookie jar is enabled so session cookies survive across pages
func NewDefaultClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// Fetch retrieves a single page.
//
// The returned result is always non-nil and carries whatever fields were
// gathered before a failure (status code and final URL survive a non-2xx
// response). On failure the returned error is a *model.FetchError and is
// also recorded on the result.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*model.PageResult, error) {
	start := time.Now()
	result := &model.PageResult{
		URL:       rawURL,
		FinalURL:  rawURL,
		FetchedAt: start,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		fetchErr := &model.FetchError{Kind: model.FetchConnection, URL: rawURL, Err: err}
		result.SetError(fetchErr)
		result.Duration = time.Since(start)
		return result, fetchErr
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}
	for key, value := range f.headersForHost(req.URL.Hostname()) {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		fetchErr := classifyTransportError(rawURL, err)
		result.SetError(fetchErr)
		result.Duration = time.Since(start)
		return result, fetchErr
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")
	if resp.Request != nil && resp.Request.URL != nil {
		result.FinalURL = resp.Request.URL.String()
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		fetchErr := &model.FetchError{Kind: model.FetchStatus, URL: rawURL, StatusCode: resp.StatusCode}
		result.SetError(fetchErr)
		result.Duration = time.Since(start)
		return result, fetchErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		fetchErr := classifyBodyError(rawURL, err)
		result.SetError(fetchErr)
		result.Duration = time.Since(start)
		return result, fetchErr
	}

	result.Body = body
	result.BytesRead = int64(len(body))
	result.Duration = time.Since(start)
	result.ComputeFingerprint()

	return result, nil
}

// headersForHost returns the extra headers configured for the given
// hostname, or nil when none are configured.
func (f *Fetcher) headersForHost(hostname string) map[string]string {
	if len(f.hostHeaders) == 0 {
		return nil
	}
	return f.hostHeaders[strings.ToLower(hostname)]
}

// classifyTransportError maps a request error to a FetchError kind.
// Timeouts are checked before TLS and connection failures because a
// timeout during the handshake should count as a timeout, not a TLS error.
func classifyTransportError(rawURL string, err error) *model.FetchError {
	kind := model.FetchConnection

	switch {
	case isTimeout(err):
		kind = model.FetchTimeout
	case isTLSError(err):
		kind = model.FetchTLS
	}

	return &model.FetchError{Kind: kind, URL: rawURL, Err: err}
}

// classifyBodyError maps a body-read error to a FetchError kind.
func classifyBodyError(rawURL string, err error) *model.FetchError {
	kind := model.FetchBodyRead
	if isTimeout(err) {
		kind = model.FetchTimeout
	}

	return &model.FetchError{Kind: kind, URL: rawURL, Err: err}
}

// isTimeout reports whether err represents a deadline or timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isTLSError reports whether err stems from TLS handshake or certificate
// verification.
func isTLSError(err error) bool {
	var certVerify *tls.CertificateVerificationError
	if errors.As(err, &certVerify) {
		return true
	}

	var recordHeader tls.RecordHeaderError
	if errors.As(err, &recordHeader) {
		return true
	}

	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}

	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}

	var certInvalid x509.CertificateInvalidError
	return errors.As(err, &certInvalid)
}
