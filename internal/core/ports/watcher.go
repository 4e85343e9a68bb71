package ports

import (
	"context"
	"iter"
)

// WatchOp is the kind of change fsnotify reported for a path.
type WatchOp uint8

// Operations reported by a Watcher. Renames and removals both mean the old
// path is gone.
const (
	OpCreate WatchOp = iota
	OpWrite
	OpRemove
	OpRename
)

// WatchEvent is one raw change below the watched root.
type WatchEvent struct {
	Path      string // absolute
	Operation WatchOp
}

// Watcher streams changes of a directory tree, including directories
// created after Start. Directories listed in ignore are not watched.
type Watcher interface {
	Start(ctx context.Context, root string, ignore ...string) error
	Stop() error
	// Events yields until Stop is called or the start context is done.
	Events() iter.Seq[WatchEvent]
}
