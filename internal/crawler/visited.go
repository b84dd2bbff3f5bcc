package crawler

import "sync"

// Visited is the thread-safe set of canonical URLs already claimed for
// fetching during one crawl run. It grows for the lifetime of the run and
// never shrinks; claims are not reversed even when the fetch later fails.
//
// Design decision: We use a plain map guarded by a mutex rather than
// sync.Map because:
//  1. The only operation is an atomic insert-if-absent, which needs the
//     check and the write under one lock anyway
//  2. The critical section is a single map access, so contention is low
//  3. A plain map keeps Len() exact and cheap
type Visited struct {
	mu   sync.Mutex
	urls map[string]bool
}

// NewVisited creates an empty visited set.
func NewVisited() *Visited {
	return &Visited{
		urls: make(map[string]bool),
	}
}

// TryClaim atomically inserts url if absent and reports whether the
// caller won the claim. Exactly one of any number of concurrent callers
// claiming the same URL receives true; that caller now owns enqueueing
// it. A false return means the URL is already claimed and must be
// discarded.
func (v *Visited) TryClaim(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.urls[url] {
		return false
	}
	v.urls[url] = true
	return true
}

// Contains reports whether url has been claimed.
func (v *Visited) Contains(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.urls[url]
}

// Len returns the number of unique URLs claimed so far.
func (v *Visited) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.urls)
}
