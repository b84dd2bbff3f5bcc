package crawler

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ScopeFunc decides whether a resolved URL is eligible for crawling.
// It is consulted by the Resolver after canonicalization; a false return
// rejects the link as out of scope. Implementations must be safe for
// concurrent use and must not block: the predicate runs on the worker
// hot path for every discovered link.
type ScopeFunc func(u *url.URL) bool

// ScopeAll allows every URL. Use with care: combined with a seed that
// links off-site, the crawl will wander across the whole reachable web.
func ScopeAll() ScopeFunc {
	return func(_ *url.URL) bool {
		return true
	}
}

// ScopeHosts restricts the crawl to an exact set of hosts. The match
// includes the port, so http://example.com:8080 is not in scope for a
// seed on the default port.
func ScopeHosts(hosts ...string) ScopeFunc {
	allowed := make(map[string]bool, len(hosts))
	for _, host := range hosts {
		allowed[strings.ToLower(host)] = true
	}
	return func(u *url.URL) bool {
		return allowed[strings.ToLower(u.Host)]
	}
}

// ScopeDomains restricts the crawl to the registrable domains of the
// given hosts, so www.example.com and blog.example.com are both in scope
// for a seed on example.com. This is the default scope policy.
func ScopeDomains(hosts ...string) ScopeFunc {
	allowed := make(map[string]bool, len(hosts))
	for _, host := range hosts {
		allowed[registrableDomain(strings.ToLower(host))] = true
	}
	return func(u *url.URL) bool {
		return allowed[registrableDomain(strings.ToLower(u.Hostname()))]
	}
}

// registrableDomain reduces host to its eTLD+1, the unit one
// organization can register under a public suffix. IP addresses and
// names like localhost have no registrable domain and are matched as-is.
func registrableDomain(host string) string {
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// combineScopes returns a predicate that passes only URLs every given
// scope accepts. Nil entries are skipped.
func combineScopes(scopes ...ScopeFunc) ScopeFunc {
	return func(u *url.URL) bool {
		for _, scope := range scopes {
			if scope != nil && !scope(u) {
				return false
			}
		}
		return true
	}
}

// pathFilter builds a scope predicate from URL path patterns:
//  1. If the path matches any ignore pattern, the URL is rejected
//  2. If follow patterns are set, the path must match at least one
//  3. Otherwise the URL is accepted
func pathFilter(ignore, follow []string) ScopeFunc {
	return func(u *url.URL) bool {
		path := u.Path
		if path == "" {
			path = "/"
		}

		for _, pattern := range ignore {
			if matchPattern(pattern, path) {
				return false
			}
		}

		if len(follow) > 0 {
			for _, pattern := range follow {
				if matchPattern(pattern, path) {
					return true
				}
			}
			return false
		}

		return true
	}
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	// Prefix patterns like "/admin/*" should match the whole subtree,
	// not just one path segment.
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	// Extension patterns like "*.pdf" should match anywhere in the tree.
	if strings.HasPrefix(pattern, "*.") {
		ext := strings.TrimPrefix(pattern, "*")
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Also try the filename alone for patterns without a separator.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}
