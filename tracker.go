package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// TimeoutError lists the messages left without a delivery receipt.
type TimeoutError struct {
	After   time.Duration
	Missing []string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no delivery receipt in %s for %d message(s): %s",
		e.After, len(e.Missing), strings.Join(e.Missing, ", "))
}

// Tracker correlates submitted message ids with delivery receipts. A
// receipt may arrive before Expect is called for its id.
type Tracker struct {
	mu      sync.Mutex
	order   []string             // expected ids in submission order
	pending map[string]time.Time // expected id -> submitted at
	seen    map[string]bool      // ids a receipt was observed for
	notify  chan struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		pending: make(map[string]time.Time),
		seen:    make(map[string]bool),
		notify:  make(chan struct{}, 1),
	}
}

// Expect marks id as waiting for a receipt.
func (t *Tracker) Expect(id string) {
	t.mu.Lock()
	if !t.seen[id] {
		if _, ok := t.pending[id]; !ok {
			t.order = append(t.order, id)
			t.pending[id] = time.Now()
		}
	}
	t.mu.Unlock()
}

// Observe records a receipt for id. It reports whether id was expected.
func (t *Tracker) Observe(id string) bool {
	t.mu.Lock()
	t.seen[id] = true
	_, expected := t.pending[id]
	delete(t.pending, id)
	t.mu.Unlock()
	if expected {
		select {
		case t.notify <- struct{}{}:
		default:
		}
	}
	return expected
}

// Pending returns the ids still waiting, in submission order.
func (t *Tracker) Pending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ids []string
	for _, id := range t.order {
		if _, ok := t.pending[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Wait blocks until every expected id got a receipt. It returns a
// *TimeoutError when timeout elapses first, or the context error.
func (t *Tracker) Wait(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		if len(t.Pending()) == 0 {
			return nil
		}
		select {
		case <-t.notify:
		case <-timer.C:
			missing := t.Pending()
			if len(missing) == 0 {
				return nil
			}
			return &TimeoutError{After: timeout, Missing: missing}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
