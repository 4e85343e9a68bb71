package fs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.OutputWriter = (*Writer)(nil)

// Writer replaces destination files atomically through a temp file and a rename.
type Writer struct{}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write stores data at path unless the file already holds the same bytes.
// It reports whether the file changed.
func (w *Writer) Write(ctx context.Context, path string, data []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	//nolint:gosec // Path is built from the validated registry
	if current, err := os.ReadFile(path); err == nil && bytes.Equal(current, data) {
		return false, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return false, wrapWrite(err, path)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return false, wrapWrite(err, path)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return false, wrapWrite(err, path)
	}
	if err := tmp.Close(); err != nil {
		return false, wrapWrite(err, path)
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return false, wrapWrite(err, path)
	}

	// Last check before the destination becomes visible.
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return false, wrapWrite(err, path)
	}
	return true, nil
}

func wrapWrite(err error, path string) error {
	return zerr.With(zerr.Wrap(err, domain.ErrWriteFailed.Error()), "path", path)
}

func joinSlash(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
