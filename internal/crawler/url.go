package crawler

import (
	"net/url"

	"github.com/PuerkitoBio/purell"
)

// canonicalFlags is the purell normalization applied to every URL before
// it is compared, deduplicated, or enqueued. The flags lowercase the
// scheme and host, fix escape casing, strip the fragment, remove default
// ports, collapse ./.. path segments, and sort the query string.
// FlagRemoveDuplicateSlashes is deliberately left out: //a//b is a valid
// distinct path on some servers.
const canonicalFlags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagUppercaseEscapes |
	purell.FlagDecodeUnnecessaryEscapes |
	purell.FlagEncodeNecessaryEscapes |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveEmptyQuerySeparator |
	purell.FlagRemoveDotSegments |
	purell.FlagRemoveFragment |
	purell.FlagSortQuery |
	purell.FlagRemoveEmptyPortSeparator |
	purell.FlagRemoveUnnecessaryHostDots

// Canonicalize converts u into the canonical string form used for
// deduplication. Two URLs that point at the same page must canonicalize
// to the same string; the visited set and the frontier only ever see
// canonical URLs.
//
// The normalization rule is: lowercase scheme and host, default port and
// fragment removed, dot segments collapsed, query sorted, and an empty
// path rewritten to "/" so that http://example.com and http://example.com/
// compare equal. Trailing slashes elsewhere in the path are preserved
// because /dir and /dir/ can be different resources.
func Canonicalize(u *url.URL) string {
	c := *u
	if c.Path == "" {
		c.Path = "/"
	}
	return purell.NormalizeURL(&c, canonicalFlags)
}

// CanonicalizeString parses raw and returns its canonical form.
func CanonicalizeString(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return Canonicalize(u), nil
}
