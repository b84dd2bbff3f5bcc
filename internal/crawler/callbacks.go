package crawler

import "github.com/nao1215/kumo/internal/model"

// Callbacks receives crawl events as they happen. Both methods are
// called from worker goroutines, so implementations must be safe for
// concurrent use if they access shared state; the engine does not
// serialize calls. The engine does not retain a PageResult after
// OnPageResult returns, so implementations may keep the pointer.
//
// Design decision: We expose an interface with two methods rather than
// two function fields because:
//  1. A single value carries both hooks, so callers implementing both
//     share state naturally
//  2. NopCallbacks gives callers interested in neither a zero-cost
//     default, and embedding it lets them override just one method
//  3. The engine never has to nil-check before invoking
type Callbacks interface {
	// OnLinkFound is invoked once per raw link discovered on a fetched
	// page, whether or not the link was accepted. source is the
	// canonical URL of the page the link appeared on, raw is the href
	// text exactly as found, and resolved is the canonical URL the link
	// resolved to. On rejection resolved is empty and err is a
	// *LinkError explaining why.
	OnLinkFound(source, raw, resolved string, err error)

	// OnPageResult is invoked once per completed fetch, successful or
	// not. The result carries the typed fetch error, if any.
	OnPageResult(result *model.PageResult)
}

// NopCallbacks is a Callbacks implementation that ignores every event.
// Embed it to implement only the methods you care about.
type NopCallbacks struct{}

// OnLinkFound implements Callbacks.
func (NopCallbacks) OnLinkFound(_, _, _ string, _ error) {}

// OnPageResult implements Callbacks.
func (NopCallbacks) OnPageResult(_ *model.PageResult) {}
