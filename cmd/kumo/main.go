// Package main provides the entry point for the kumo CLI.
//
// Kumo is a concurrent web crawler. Starting from one or more seed URLs,
// it fetches pages on a pool of workers, extracts the links on each page,
// and follows the ones inside the crawl scope until no eligible links remain.
//
// Usage:
//
//	kumo crawl <url>
//	kumo crawl --scope host --max-pages 100 <url>
//
// See --help for all available options.
package main

// main is the entry point for kumo.
func main() {
	Execute()
}
