// Package crawler implements the concurrent crawl engine.
//
// # Architecture
//
// The package is designed around the Crawler type, which coordinates one
// crawl run: seed URLs are claimed in the visited set and pushed to a
// FIFO frontier, a fixed pool of workers pops tasks, passes them through
// the politeness gate, fetches them, extracts and resolves the links on
// each page, and pushes newly claimed in-scope links back onto the
// frontier. The run ends when the frontier is empty and no worker holds
// a task.
//
// Design decision: We implement our own crawl engine rather than using a
// third-party framework because:
//  1. The engine is the product; hiding the scheduler inside a framework
//     would leave nothing to configure it against
//  2. We need exact control over dedup, politeness, and termination
//  3. The per-event callback surface is easier to guarantee on our own
//     worker loop
//
// # Components
//
//   - Crawler: coordinates workers, termination, and the crawl summary
//   - Frontier: lock-free multi-producer multi-consumer task queue
//   - Visited: atomic claim-or-discard deduplication of canonical URLs
//   - Gate: politeness delay between fetch dispatches
//   - Resolver: raw link text to canonical absolute URL, with scoping
//   - HTMLExtractor: pulls raw hrefs and the title out of page bodies
//
// # Error Handling
//
// Only seed and configuration problems fail a crawl. Everything after
// the first dispatch is reported and survived: link rejections flow
// through the link-found callback as *LinkError, page failures through
// the page-result callback as *model.FetchError, and unparseable bodies
// count as pages without links.
//
// # Usage
//
//	c, err := crawler.New(fetcher,
//		crawler.WithConcurrency(8),
//		crawler.WithDelay(200*time.Millisecond),
//	)
//	if err != nil {
//		return err
//	}
//	summary, err := c.Crawl(ctx, []string{"https://example.com"})
package crawler
