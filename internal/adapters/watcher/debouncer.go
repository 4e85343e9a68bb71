// Package watcher turns file system activity into debounced, classified change batches.
package watcher

import (
	"cmp"
	"slices"
	"sync"
	"time"
	"unique"

	"go.trai.ch/press/internal/core/domain"
)

// DefaultDebounceWindow is the default settle time before a batch is dispatched.
const DefaultDebounceWindow = 100 * time.Millisecond

// Debouncer coalesces rapid change events into batches. Events for the same
// path collapse into one, and the window restarts with every event.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[unique.Handle[string]]domain.ChangeEvent
	timer    *time.Timer
	window   time.Duration
	callback func(events []domain.ChangeEvent)
}

// NewDebouncer creates a new debouncer with the given time window and callback.
func NewDebouncer(window time.Duration, callback func(events []domain.ChangeEvent)) *Debouncer {
	return &Debouncer{
		pending:  make(map[unique.Handle[string]]domain.ChangeEvent),
		window:   window,
		callback: callback,
	}
}

// Add records an event and restarts the debounce window.
func (d *Debouncer) Add(ev domain.ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	handle := unique.Make(ev.Path)
	if prev, ok := d.pending[handle]; ok {
		ev.Kind = mergeKinds(prev.Kind, ev.Kind)
	}
	d.pending[handle] = ev

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// mergeKinds folds two successive changes of one file into one.
func mergeKinds(prev, next domain.ChangeKind) domain.ChangeKind {
	switch {
	case prev == domain.ChangeAdded && next == domain.ChangeModified:
		return domain.ChangeAdded
	case prev == domain.ChangeRemoved && next == domain.ChangeAdded:
		return domain.ChangeModified
	default:
		return next
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.timer = nil
		d.mu.Unlock()
		return
	}
	events := d.drain()
	d.timer = nil
	d.mu.Unlock()

	if d.callback != nil {
		go d.callback(events)
	}
}

// Flush immediately hands all pending events to the callback and blocks until it returns.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			// Timer already fired, let it complete rather than processing twice.
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}
	events := d.drain()
	d.mu.Unlock()

	if len(events) > 0 && d.callback != nil {
		d.callback(events)
	}
}

// Stop discards pending events and cancels the window.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	clear(d.pending)
}

// drain empties the pending set. Callers hold mu.
func (d *Debouncer) drain() []domain.ChangeEvent {
	events := make([]domain.ChangeEvent, 0, len(d.pending))
	for _, ev := range d.pending {
		events = append(events, ev)
	}
	d.pending = make(map[unique.Handle[string]]domain.ChangeEvent)
	slices.SortFunc(events, func(a, b domain.ChangeEvent) int { return cmp.Compare(a.Path, b.Path) })
	return events
}
