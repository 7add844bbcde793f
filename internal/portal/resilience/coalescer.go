package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/portal/pkg/timerx"
	"golang.org/x/sync/errgroup"
)

// Coalescer groups calls sharing a key that arrive within one window, then
// runs them concurrently. Each call resolves on its own; a failing call does
// not affect its siblings.
type Coalescer struct {
	clock  timerx.Clock
	window time.Duration

	mu      sync.Mutex
	batches map[string][]*pendingCall
}

type pendingCall struct {
	run       func()
	done      chan struct{}
	abandoned atomic.Bool
}

func NewCoalescer(clock timerx.Clock, window time.Duration) *Coalescer {
	return &Coalescer{
		clock:   clock,
		window:  window,
		batches: make(map[string][]*pendingCall),
	}
}

// Do enqueues run under key and blocks until it has run or ctx is done. The
// first call for a key opens the window.
func (c *Coalescer) Do(ctx context.Context, key string, run func()) error {
	call := &pendingCall{run: run, done: make(chan struct{})}

	c.mu.Lock()
	batch, open := c.batches[key]
	c.batches[key] = append(batch, call)
	c.mu.Unlock()

	if !open {
		c.clock.AfterFunc(c.window, func() { c.flush(key) })
	}

	select {
	case <-call.done:
		return nil
	case <-ctx.Done():
		call.abandoned.Store(true)
		return ctx.Err()
	}
}

// Pending returns the number of calls waiting under key.
func (c *Coalescer) Pending(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batches[key])
}

func (c *Coalescer) flush(key string) {
	c.mu.Lock()
	batch := c.batches[key]
	delete(c.batches, key)
	c.mu.Unlock()

	var g errgroup.Group
	for _, call := range batch {
		g.Go(func() error {
			defer close(call.done)
			if !call.abandoned.Load() {
				call.run()
			}
			return nil
		})
	}
	_ = g.Wait()
}
