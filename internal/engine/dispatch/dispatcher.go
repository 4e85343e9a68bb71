// Package dispatch runs asset class rebuilds triggered by file changes.
package dispatch

import (
	"context"
	"sync"

	"go.trai.ch/press/internal/core/domain"
)

// Runner rebuilds one asset class. Runners report their own failures.
type Runner interface {
	Run(ctx context.Context) ([]domain.WrittenFile, error)
}

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Dispatcher starts rebuilds per asset class. A new dispatch of a class
// cancels the in-flight run of that class and starts once it has stopped,
// so the latest run is the last writer.
type Dispatcher struct {
	runners map[domain.AssetClass]Runner

	mu       sync.Mutex
	inflight map[domain.AssetClass]*run
	closed   bool
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher for the given runners.
func NewDispatcher(runners map[domain.AssetClass]Runner) *Dispatcher {
	return &Dispatcher{
		runners:  runners,
		inflight: make(map[domain.AssetClass]*run),
	}
}

// Dispatch starts a rebuild of class in the background. Classes without a
// runner and dispatches after Close are ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, class domain.AssetClass) {
	runner, ok := d.runners[class]
	if !ok {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel, done: make(chan struct{})}
	prev := d.inflight[class]
	d.inflight[class] = r
	if prev != nil {
		prev.cancel()
	}

	// Added under mu so that Close never waits on a group that can still grow.
	d.wg.Go(func() {
		defer close(r.done)
		defer cancel()
		defer d.release(class, r)

		if prev != nil {
			<-prev.done
		}
		if runCtx.Err() != nil {
			return
		}
		_, _ = runner.Run(runCtx)
	})
}

// Busy reports whether a rebuild of class is in flight.
func (d *Dispatcher) Busy(class domain.AssetClass) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inflight[class]
	return ok
}

// Wait blocks until every dispatched rebuild has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting dispatches and waits for the running rebuilds.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) release(class domain.AssetClass, r *run) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight[class] == r {
		delete(d.inflight, class)
	}
}
