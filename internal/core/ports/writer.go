package ports

import "context"

// OutputWriter writes destination files.
type OutputWriter interface {
	// Write atomically replaces path with data. It reports false and leaves the
	// file untouched when its bytes already equal data.
	Write(ctx context.Context, path string, data []byte) (bool, error)
}
