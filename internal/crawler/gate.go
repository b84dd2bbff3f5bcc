package crawler

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Gate enforces the politeness delay: a minimum spacing between
// consecutive fetch dispatches. The gate throttles only the dispatch
// rate; it is never held across the fetch itself, so slow responses do
// not stall other workers beyond the configured spacing.
//
// Design decision: We wrap rate.Limiter with burst 1 rather than
// tracking the last dispatch time ourselves because:
//  1. Limiter.Wait already serializes grants exactly delay apart under
//     concurrent callers
//  2. It honors context cancellation while a worker is waiting
//  3. The first dispatch passes immediately, so a single-page crawl
//     never pays the delay
type Gate struct {
	// delay is the default minimum spacing between dispatches.
	delay time.Duration

	// perHost selects whether each remote host gets its own limiter or
	// one global limiter bounds the aggregate request rate. The global
	// gate is the default: a crawl usually targets one site, and a single
	// gate caps the load on it regardless of how links spread across
	// workers.
	perHost bool

	// hostDelays overrides the default delay for specific hosts.
	// Keys are lowercase host names. Only consulted in per-host mode.
	hostDelays map[string]time.Duration

	// global is the single shared limiter. Nil when delay is zero.
	global *rate.Limiter

	// mu guards hosts in per-host mode.
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewGate creates a gate that spaces all dispatches globally, regardless
// of target host. A zero delay produces a gate that never blocks.
func NewGate(delay time.Duration) *Gate {
	g := &Gate{delay: delay}
	if delay > 0 {
		g.global = rate.NewLimiter(rate.Every(delay), 1)
	}
	return g
}

// NewPerHostGate creates a gate that spaces dispatches separately per
// target host, so crawling two hosts in one run does not halve the rate
// against each. Hosts listed in overrides use their own delay instead of
// the default; an override of zero disables the gate for that host.
func NewPerHostGate(delay time.Duration, overrides map[string]time.Duration) *Gate {
	g := &Gate{
		delay:      delay,
		perHost:    true,
		hostDelays: make(map[string]time.Duration, len(overrides)),
		hosts:      make(map[string]*rate.Limiter),
	}
	for host, d := range overrides {
		g.hostDelays[strings.ToLower(host)] = d
	}
	return g
}

// Wait blocks the calling worker until at least the configured delay has
// elapsed since the last dispatch this gate granted, then returns. When
// the effective delay is zero it returns immediately. Wait returns early
// with ctx.Err() if the context is cancelled while waiting.
//
// host is the URL's host including any explicit port, so two services
// on one machine are treated as separate targets. It is ignored in
// global mode.
func (g *Gate) Wait(ctx context.Context, host string) error {
	limiter := g.limiterFor(host)
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// limiterFor returns the limiter responsible for host, or nil when no
// delay applies. Per-host limiters are created lazily on first use.
func (g *Gate) limiterFor(host string) *rate.Limiter {
	if !g.perHost {
		return g.global
	}

	host = strings.ToLower(host)
	delay := g.delay
	if d, ok := g.hostDelays[host]; ok {
		delay = d
	}
	if delay <= 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if limiter, ok := g.hosts[host]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Every(delay), 1)
	g.hosts[host] = limiter
	return limiter
}
