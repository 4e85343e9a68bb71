package app

import (
	"context"
	"path/filepath"

	"go.trai.ch/press/internal/adapters/watcher"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/engine/dispatch"
)

// watch rebuilds the class of every changed source until ctx is done.
func (s *session) watch(ctx context.Context) error {
	root, err := filepath.Abs(s.registry.Root())
	if err != nil {
		return err
	}

	dist, err := filepath.Abs(s.registry.DistPath())
	if err != nil {
		return err
	}

	w := s.app.deps.Watcher
	if err := w.Start(ctx, root, dist); err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	runners := make(map[domain.AssetClass]dispatch.Runner, len(s.dev))
	for class, p := range s.dev {
		runners[class] = p
	}
	dispatcher := dispatch.NewDispatcher(runners)

	window := s.opts.Debounce
	if window <= 0 {
		window = watcher.DefaultDebounceWindow
	}
	debouncer := watcher.NewDebouncer(window, func(events []domain.ChangeEvent) {
		if ctx.Err() != nil {
			return
		}
		for _, class := range changedClasses(events) {
			dispatcher.Dispatch(ctx, class)
		}
	})

	s.app.deps.Logger.Info("watching " + root)
	for ev := range w.Events() {
		if change, ok := classify(s.registry, root, ev); ok {
			debouncer.Add(change)
		}
	}

	debouncer.Stop()
	dispatcher.Close()
	return nil
}

// classify maps a watcher event to the asset class owning the file.
func classify(reg *domain.Registry, root string, ev ports.WatchEvent) (domain.ChangeEvent, bool) {
	rel, err := filepath.Rel(root, ev.Path)
	if err != nil {
		return domain.ChangeEvent{}, false
	}
	rel = filepath.ToSlash(rel)
	class, ok := reg.Classify(rel)
	if !ok {
		return domain.ChangeEvent{}, false
	}
	return domain.ChangeEvent{Class: class, Path: rel, Kind: changeKind(ev.Operation)}, true
}

func changeKind(op ports.WatchOp) domain.ChangeKind {
	switch op {
	case ports.OpCreate:
		return domain.ChangeAdded
	case ports.OpWrite:
		return domain.ChangeModified
	default:
		return domain.ChangeRemoved
	}
}

// changedClasses returns the distinct classes of events in AllClasses order.
func changedClasses(events []domain.ChangeEvent) []domain.AssetClass {
	seen := make(map[domain.AssetClass]bool, len(events))
	for _, ev := range events {
		seen[ev.Class] = true
	}
	classes := make([]domain.AssetClass, 0, len(seen))
	for _, class := range domain.AllClasses {
		if seen[class] {
			classes = append(classes, class)
		}
	}
	return classes
}
