// Package fetcher implements the HTTP fetch capability consumed by the
// crawl engine.
//
// A Fetcher wraps an http.Client and turns a single URL into a
// model.PageResult: it sets the configured User-Agent and any per-host
// headers, caps how much of the body is read, records the final URL after
// redirects, and classifies failures into the model.FetchError taxonomy
// (connection, timeout, tls, status, body_read). A non-2xx response still
// yields a partial result carrying the status code and final URL.
//
// The package never retries and never fails the crawl; every error is
// returned as data for the caller to aggregate.
package fetcher
