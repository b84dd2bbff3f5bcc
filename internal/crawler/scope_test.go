package crawler

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", raw, err)
	}
	return u
}

// TestScopeAll tests the unrestricted scope.
func TestScopeAll(t *testing.T) {
	t.Parallel()

	scope := ScopeAll()
	for _, raw := range []string{
		"http://example.com/",
		"https://any.other.example.org/deep/path",
	} {
		if !scope(mustParse(t, raw)) {
			t.Errorf("expected %q to be in scope", raw)
		}
	}
}

// TestScopeHosts tests exact host matching.
func TestScopeHosts(t *testing.T) {
	t.Parallel()

	scope := ScopeHosts("example.com", "127.0.0.1:8080")

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "exact host matches", url: "http://example.com/page", want: true},
		{name: "host match is case-insensitive", url: "http://EXAMPLE.COM/page", want: true},
		{name: "subdomain does not match", url: "http://www.example.com/", want: false},
		{name: "different port does not match", url: "http://example.com:8080/", want: false},
		{name: "host with listed port matches", url: "http://127.0.0.1:8080/x", want: true},
		{name: "unrelated host does not match", url: "http://other.com/", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := scope(mustParse(t, tt.url)); got != tt.want {
				t.Errorf("expected %v for %q, got %v", tt.want, tt.url, got)
			}
		})
	}
}

// TestScopeDomains tests registrable-domain matching.
func TestScopeDomains(t *testing.T) {
	t.Parallel()

	scope := ScopeDomains("www.example.com")

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "same host matches", url: "http://www.example.com/", want: true},
		{name: "apex domain matches", url: "http://example.com/", want: true},
		{name: "sibling subdomain matches", url: "http://blog.example.com/post", want: true},
		{name: "different domain does not match", url: "http://example.org/", want: false},
		{name: "domain as suffix of another does not match", url: "http://notexample.com/", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := scope(mustParse(t, tt.url)); got != tt.want {
				t.Errorf("expected %v for %q, got %v", tt.want, tt.url, got)
			}
		})
	}

	t.Run("IP hosts match themselves", func(t *testing.T) {
		t.Parallel()

		ipScope := ScopeDomains("127.0.0.1")
		if !ipScope(mustParse(t, "http://127.0.0.1:9999/x")) {
			t.Error("expected the same IP to be in scope")
		}
		if ipScope(mustParse(t, "http://127.0.0.2/")) {
			t.Error("expected a different IP to be out of scope")
		}
	})
}

// TestPathFilter tests ignore and follow pattern handling.
func TestPathFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ignore []string
		follow []string
		path   string
		want   bool
	}{
		{name: "no patterns allows everything", path: "/anything", want: true},
		{name: "ignored subtree is rejected", ignore: []string{"/admin/*"}, path: "/admin/users", want: false},
		{name: "ignore pattern matches the directory itself", ignore: []string{"/admin/*"}, path: "/admin", want: false},
		{name: "path outside ignored subtree passes", ignore: []string{"/admin/*"}, path: "/public", want: true},
		{name: "extension pattern is rejected anywhere", ignore: []string{"*.pdf"}, path: "/docs/manual.pdf", want: false},
		{name: "follow pattern admits matching path", follow: []string{"/api/*"}, path: "/api/v1", want: true},
		{name: "follow pattern rejects everything else", follow: []string{"/api/*"}, path: "/web/page", want: false},
		{name: "ignore wins over follow", ignore: []string{"/api/private/*"}, follow: []string{"/api/*"}, path: "/api/private/keys", want: false},
		{name: "empty path is treated as root", ignore: []string{"/admin/*"}, path: "", want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scope := pathFilter(tt.ignore, tt.follow)
			u := &url.URL{Scheme: "http", Host: "example.com", Path: tt.path}
			if got := scope(u); got != tt.want {
				t.Errorf("expected %v for path %q, got %v", tt.want, tt.path, got)
			}
		})
	}
}

// TestMatchPattern tests glob matching for path patterns.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{name: "subtree wildcard", pattern: "/admin/*", path: "/admin/dashboard", want: true},
		{name: "subtree wildcard on nested path", pattern: "/admin/*", path: "/admin/users/1", want: true},
		{name: "subtree wildcard misses sibling", pattern: "/admin/*", path: "/administrator", want: false},
		{name: "extension pattern", pattern: "*.pdf", path: "/docs/file.pdf", want: true},
		{name: "extension pattern misses others", pattern: "*.pdf", path: "/docs/file.html", want: false},
		{name: "single character wildcard", pattern: "/api/v?", path: "/api/v1", want: true},
		{name: "exact match", pattern: "/logout", path: "/logout", want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("expected %v for pattern %q against %q, got %v", tt.want, tt.pattern, tt.path, got)
			}
		})
	}
}
