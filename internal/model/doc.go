// Package model defines the core data structures used throughout kumo.
//
// This package contains the following main types:
//   - PageResult: The outcome of fetching a single page
//   - CrawlSummary: Aggregate counters for one crawl run
//   - FetchError: The typed error taxonomy for failed fetches
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, fetcher, report) need to use these
// types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output.
package model
