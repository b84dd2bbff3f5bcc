package crawler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/antigloss/go/concurrent/container/queue"
)

// popPollInterval is how long a blocked Pop sleeps between attempts when
// the frontier is empty but the crawl is still running.
const popPollInterval = 10 * time.Millisecond

// Task is one unit of crawl work: a canonical URL waiting to be fetched,
// together with how it was discovered. A task is consumed exactly once by
// a worker and never re-enqueued.
type Task struct {
	// URL is the canonical URL to fetch.
	URL string

	// Depth is the link distance from the seed that discovered this URL.
	// Seeds have depth 0.
	Depth int

	// Referrer is the canonical URL of the page the link was found on.
	// Empty for seeds.
	Referrer string
}

// Frontier is the multi-producer multi-consumer FIFO queue of pending
// tasks. FIFO ordering approximates breadth-first traversal: under
// concurrent push and pop the global order is only approximately
// breadth-first, but no task is lost or delivered twice.
//
// Design decision: We build on a lock-free queue rather than a mutex and
// slice because:
//  1. Every worker pushes and pops on the hot path, so the queue is the
//     most contended structure in the crawl
//  2. Push and TryPop stay non-blocking, which keeps workers from
//     serializing behind each other
//  3. The queue is unbounded, matching an ever-growing frontier
type Frontier struct {
	queue  *queue.LockfreeQueue
	size   atomic.Int64
	closed chan struct{}
	once   sync.Once
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queue:  queue.NewLockfreeQueue(),
		closed: make(chan struct{}),
	}
}

// Push enqueues a task. Safe for concurrent use.
func (f *Frontier) Push(task Task) {
	f.size.Add(1)
	f.queue.Push(task)
}

// TryPop dequeues a task without blocking. The second return value is
// false when the frontier is currently empty.
func (f *Frontier) TryPop() (Task, bool) {
	v := f.queue.Pop()
	if v == nil {
		return Task{}, false
	}
	f.size.Add(-1)
	return v.(Task), true
}

// Pop dequeues a task, blocking while the frontier is empty. It returns
// ok=false only when the frontier has been closed or ctx is done; an
// empty frontier alone never ends the wait, because another worker may
// still push newly discovered links.
func (f *Frontier) Pop(ctx context.Context) (Task, bool) {
	for {
		if task, ok := f.TryPop(); ok {
			return task, true
		}

		select {
		case <-ctx.Done():
			return Task{}, false
		case <-f.closed:
			return Task{}, false
		case <-time.After(popPollInterval):
		}
	}
}

// Close signals consumers that no more tasks will arrive. Blocked Pop
// calls return ok=false. Close is idempotent.
func (f *Frontier) Close() {
	f.once.Do(func() {
		close(f.closed)
	})
}

// Len returns the number of tasks currently queued.
func (f *Frontier) Len() int64 {
	return f.size.Load()
}
