package crawler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// TestVisitedTryClaim tests the claim-or-discard contract.
func TestVisitedTryClaim(t *testing.T) {
	t.Parallel()

	t.Run("first claim wins", func(t *testing.T) {
		t.Parallel()

		v := NewVisited()
		if !v.TryClaim("http://example.com/") {
			t.Error("expected the first claim to succeed")
		}
		if v.TryClaim("http://example.com/") {
			t.Error("expected the second claim to fail")
		}
		if !v.Contains("http://example.com/") {
			t.Error("expected the URL to be present after a claim")
		}
	})

	t.Run("distinct URLs claim independently", func(t *testing.T) {
		t.Parallel()

		v := NewVisited()
		if !v.TryClaim("http://example.com/a") {
			t.Error("expected claim for /a to succeed")
		}
		if !v.TryClaim("http://example.com/b") {
			t.Error("expected claim for /b to succeed")
		}
		if v.Len() != 2 {
			t.Errorf("expected 2 claimed URLs, got %d", v.Len())
		}
	})
}

// TestVisitedConcurrentClaims tests that exactly one of many concurrent
// claims on the same URL succeeds.
func TestVisitedConcurrentClaims(t *testing.T) {
	t.Parallel()

	t.Run("single URL under contention", func(t *testing.T) {
		t.Parallel()

		const goroutines = 100

		v := NewVisited()
		var wins atomic.Int64
		var start, done sync.WaitGroup
		start.Add(1)
		done.Add(goroutines)

		for i := 0; i < goroutines; i++ {
			go func() {
				defer done.Done()
				start.Wait()
				if v.TryClaim("http://example.com/contended") {
					wins.Add(1)
				}
			}()
		}

		start.Done()
		done.Wait()

		if wins.Load() != 1 {
			t.Errorf("expected exactly 1 winning claim, got %d", wins.Load())
		}
	})

	t.Run("many URLs from many goroutines", func(t *testing.T) {
		t.Parallel()

		const (
			goroutines = 8
			urls       = 200
		)

		v := NewVisited()
		var wins atomic.Int64
		var wg sync.WaitGroup

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < urls; j++ {
					if v.TryClaim(fmt.Sprintf("http://example.com/page/%d", j)) {
						wins.Add(1)
					}
				}
			}()
		}
		wg.Wait()

		if wins.Load() != urls {
			t.Errorf("expected %d winning claims, got %d", urls, wins.Load())
		}
		if v.Len() != urls {
			t.Errorf("expected %d unique URLs, got %d", urls, v.Len())
		}
	})
}
