package crawler

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// Extractor pulls outbound links from a fetched page body. It is
// consumed by the Crawler as a capability: implementations are
// best-effort, and malformed markup should yield a partial or empty
// result rather than an error. An extraction error is treated by the
// Crawler as zero links found, never as a page failure.
type Extractor interface {
	Extract(body []byte, contentType string) (*ExtractResult, error)
}

// ExtractResult is what one extraction pass found.
type ExtractResult struct {
	// Title is the text of the first <title> element, trimmed.
	Title string

	// Links holds the href attribute of every <a> element, exactly as
	// written in the document. No resolution or filtering happens here;
	// the Resolver decides what each raw string means.
	Links []string
}

// HTMLExtractor extracts links from HTML documents.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
type HTMLExtractor struct{}

// NewHTMLExtractor creates an extractor for HTML bodies.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract parses body as HTML and collects the page title and all raw
// href values. The body is decoded to UTF-8 first, using the charset
// declared in contentType or sniffed from the document, so pages in
// legacy encodings do not produce garbled link text.
func (e *HTMLExtractor) Extract(body []byte, contentType string) (*ExtractResult, error) {
	encoding, _, _ := charset.DetermineEncoding(body, contentType)
	reader := transform.NewReader(bytes.NewReader(body), encoding.NewDecoder())

	doc, err := html.Parse(reader)
	if err != nil {
		return nil, err
	}

	result := &ExtractResult{
		Links: make([]string, 0),
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				if href := getAttr(n, "href"); href != "" {
					result.Links = append(result.Links, href)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
