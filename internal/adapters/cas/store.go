// Package cas implements the persistent content-addressed cache of optimized images.
package cas

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.ImageCache = (*Store)(nil)

// Store keeps one file per key under dir, sharded by the first two key characters.
type Store struct {
	dir   string
	group singleflight.Group
}

// NewStore creates a Store rooted at dir. The directory is created lazily.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// GetOrCompute returns the bytes stored under key. On a miss it calls compute
// once for all concurrent callers of the same key and persists the result.
// The boolean reports whether the value came from disk.
func (s *Store) GetOrCompute(
	ctx context.Context,
	key string,
	compute func(context.Context) ([]byte, error),
) ([]byte, bool, error) {
	data, err := s.get(key)
	if err != nil {
		return nil, false, err
	}
	if data != nil {
		return data, true, nil
	}

	for {
		v, err, shared := s.group.Do(key, func() (any, error) {
			// Another caller may have filled the entry between the miss and Do.
			if cached, err := s.get(key); err != nil || cached != nil {
				return cached, err
			}

			out, err := compute(ctx)
			if err != nil {
				return nil, err
			}
			if err := s.put(key, out); err != nil {
				return nil, err
			}
			return out, nil
		})
		if err == nil {
			return v.([]byte), false, nil
		}
		// The flight ran under another caller's context; its cancellation is
		// not ours.
		if shared && canceled(err) && ctx.Err() == nil {
			continue
		}
		return nil, false, err
	}
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Clear removes every cached entry.
func (s *Store) Clear() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", s.dir)
	}
	return nil
}

func (s *Store) get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.filename(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "key", key)
	}
	return data, nil
}

func (s *Store) put(key string, data []byte) error {
	filename := s.filename(key)
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", key)
	}

	tmp, err := os.CreateTemp(dir, ".entry-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", key)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", key)
	}
	if err := os.Rename(tmpName, filename); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", key)
	}
	return nil
}

func (s *Store) filename(key string) string {
	shard := "00"
	if len(key) >= 2 {
		shard = key[:2]
	}
	return filepath.Join(s.dir, shard, filepath.Base(key))
}
