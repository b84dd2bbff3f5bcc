package crawler

import (
	"net/url"
	"strings"
)

// Resolver turns raw link strings found on one page into canonical
// absolute URLs, rejecting anything the crawl cannot or should not
// fetch. One Resolver is built per fetched page, carrying that page's
// base URL; resolution itself is a pure computation with no I/O and no
// shared state, so a Resolver is safe for concurrent use.
type Resolver struct {
	// base is the URL of the page the links were found on. Relative
	// links are resolved against it.
	base *url.URL

	// scope decides whether a resolved URL is eligible for crawling.
	// Nil means everything is in scope.
	scope ScopeFunc
}

// NewResolver creates a resolver for links found on the page at baseURL.
// baseURL should be the final URL of the fetched page so that relative
// links on a redirected page resolve the way a browser would.
func NewResolver(baseURL string, scope ScopeFunc) (*Resolver, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Resolver{base: base, scope: scope}, nil
}

// Resolve resolves one raw link to its canonical absolute form.
// It never panics on arbitrary input; any failure is reported as a
// *LinkError carrying the raw text:
//   - unparseable or empty input yields LinkMalformed
//   - schemes other than http and https yield LinkUnsupported
//   - URLs failing the scope predicate yield LinkOutOfScope
//
// Resolve is idempotent: feeding a successfully resolved URL back in
// returns the same string.
func (r *Resolver) Resolve(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &LinkError{Kind: LinkMalformed, Raw: raw}
	}

	ref, err := url.Parse(trimmed)
	if err != nil {
		return "", &LinkError{Kind: LinkMalformed, Raw: raw, Err: err}
	}

	resolved := r.base.ResolveReference(ref)
	if !isSupportedScheme(resolved.Scheme) {
		return "", &LinkError{Kind: LinkUnsupported, Raw: raw}
	}

	// The scope predicate sees the canonical form, not the raw parse:
	// default ports and host casing must not affect the decision.
	canonical := Canonicalize(resolved)
	if r.scope != nil {
		cu, err := url.Parse(canonical)
		if err != nil {
			return "", &LinkError{Kind: LinkMalformed, Raw: raw, Err: err}
		}
		if !r.scope(cu) {
			return "", &LinkError{Kind: LinkOutOfScope, Raw: raw}
		}
	}

	return canonical, nil
}

// isSupportedScheme reports whether the crawler can fetch the scheme.
func isSupportedScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}
