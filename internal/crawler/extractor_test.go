package crawler

import (
	"testing"
)

// TestHTMLExtractorExtract tests link and title extraction.
func TestHTMLExtractorExtract(t *testing.T) {
	t.Parallel()

	t.Run("extracts title and raw links", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><head><title> Test Page </title></head><body>
			<a href="/relative">Relative</a>
			<a href="http://example.com/absolute">Absolute</a>
			<a href="../up">Up</a>
			<a href="mailto:x@y.com">Mail</a>
		</body></html>`)

		e := NewHTMLExtractor()
		result, err := e.Extract(body, "text/html; charset=utf-8")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Title != "Test Page" {
			t.Errorf("expected title 'Test Page', got %q", result.Title)
		}

		// Links must come back exactly as written: resolution and
		// filtering are the resolver's job, and the link-found callback
		// needs the raw text.
		want := []string{"/relative", "http://example.com/absolute", "../up", "mailto:x@y.com"}
		if len(result.Links) != len(want) {
			t.Fatalf("expected %d links, got %d: %v", len(want), len(result.Links), result.Links)
		}
		for i, link := range want {
			if result.Links[i] != link {
				t.Errorf("expected link %q at position %d, got %q", link, i, result.Links[i])
			}
		}
	})

	t.Run("skips anchors without href", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><body><a name="top">Anchor</a><a href="/real">Real</a></body></html>`)

		e := NewHTMLExtractor()
		result, err := e.Extract(body, "text/html")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Links) != 1 || result.Links[0] != "/real" {
			t.Errorf("expected only the href link, got %v", result.Links)
		}
	})

	t.Run("ignores hrefs outside anchors", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><head><link rel="stylesheet" href="style.css"></head>
			<body><a href="/page">Page</a></body></html>`)

		e := NewHTMLExtractor()
		result, err := e.Extract(body, "text/html")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Links) != 1 || result.Links[0] != "/page" {
			t.Errorf("expected only the anchor link, got %v", result.Links)
		}
	})

	t.Run("keeps duplicate links", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><body><a href="/same">One</a><a href="/same">Two</a></body></html>`)

		e := NewHTMLExtractor()
		result, err := e.Extract(body, "text/html")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Deduplication happens in the visited set, not here; every
		// occurrence is a separate link-found event.
		if len(result.Links) != 2 {
			t.Errorf("expected 2 links, got %d", len(result.Links))
		}
	})

	t.Run("recovers from malformed markup", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><body><a href="/a">unclosed <div><a href="/b">also unclosed`)

		e := NewHTMLExtractor()
		result, err := e.Extract(body, "text/html")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Links) != 2 {
			t.Errorf("expected 2 links from broken markup, got %d: %v", len(result.Links), result.Links)
		}
	})

	t.Run("empty body yields no links", func(t *testing.T) {
		t.Parallel()

		e := NewHTMLExtractor()
		result, err := e.Extract([]byte{}, "text/html")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Links) != 0 {
			t.Errorf("expected no links, got %v", result.Links)
		}
	})
}

// TestHTMLExtractorCharset tests decoding of non-UTF8 documents.
func TestHTMLExtractorCharset(t *testing.T) {
	t.Parallel()

	t.Run("decodes the charset from the content type", func(t *testing.T) {
		t.Parallel()

		// "café" with an ISO-8859-1 encoded é (0xE9).
		body := []byte("<html><head><title>caf\xe9</title></head><body></body></html>")

		e := NewHTMLExtractor()
		result, err := e.Extract(body, "text/html; charset=iso-8859-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Title != "café" {
			t.Errorf("expected decoded title 'café', got %q", result.Title)
		}
	})

	t.Run("sniffs the charset from a meta tag", func(t *testing.T) {
		t.Parallel()

		body := []byte("<html><head><meta charset=\"iso-8859-1\"><title>na\xefve</title></head><body></body></html>")

		e := NewHTMLExtractor()
		result, err := e.Extract(body, "text/html")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Title != "naïve" {
			t.Errorf("expected decoded title 'naïve', got %q", result.Title)
		}
	})
}
