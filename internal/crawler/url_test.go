package crawler

import "testing"

// TestCanonicalize tests URL normalization for deduplication.
func TestCanonicalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases scheme and host",
			input: "HTTP://EXAMPLE.COM/Path",
			want:  "http://example.com/Path",
		},
		{
			name:  "removes default http port",
			input: "http://example.com:80/page",
			want:  "http://example.com/page",
		},
		{
			name:  "removes default https port",
			input: "https://example.com:443/page",
			want:  "https://example.com/page",
		},
		{
			name:  "keeps non-default port",
			input: "http://example.com:8080/page",
			want:  "http://example.com:8080/page",
		},
		{
			name:  "strips fragment",
			input: "http://example.com/page#section",
			want:  "http://example.com/page",
		},
		{
			name:  "collapses dot segments",
			input: "http://a.test/x/../y",
			want:  "http://a.test/y",
		},
		{
			name:  "rewrites empty path to root",
			input: "http://example.com",
			want:  "http://example.com/",
		},
		{
			name:  "preserves trailing slash on directories",
			input: "http://example.com/dir/",
			want:  "http://example.com/dir/",
		},
		{
			name:  "sorts query parameters",
			input: "http://example.com/search?b=2&a=1",
			want:  "http://example.com/search?a=1&b=2",
		},
		{
			name:  "removes empty query separator",
			input: "http://example.com/page?",
			want:  "http://example.com/page",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := CanonicalizeString(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestCanonicalizeIdempotent tests that canonicalizing an already
// canonical URL is a no-op.
func TestCanonicalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"HTTP://EXAMPLE.COM:80/A/../B?z=1&a=2#frag",
		"https://example.com",
		"http://example.com/dir/",
		"http://example.com/page?b=2&a=1",
	}

	for _, input := range inputs {
		once, err := CanonicalizeString(input)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", input, err)
		}
		twice, err := CanonicalizeString(once)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", once, err)
		}
		if once != twice {
			t.Errorf("canonicalization not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}
