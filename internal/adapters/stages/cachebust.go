package stages

import (
	"context"
	"path"
	"strconv"
	"time"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
)

const hashTokenLen = 8

// CacheBust appends a content or time derived token to the asset name and
// records the mapping in the build's BustManifest.
type CacheBust struct {
	strategy domain.BustStrategy
	hasher   ports.Hasher
	manifest *domain.BustManifest
	prefix   string
	now      func() time.Time
}

// NewCacheBust creates a CacheBust stage. prefix is the destination directory
// of the class relative to the destination root; manifest keys carry it so
// that HTML references like "styles/styles.min.css" can be looked up.
func NewCacheBust(
	strategy domain.BustStrategy,
	hasher ports.Hasher,
	manifest *domain.BustManifest,
	prefix string,
	now func() time.Time,
) *CacheBust {
	return &CacheBust{strategy: strategy, hasher: hasher, manifest: manifest, prefix: prefix, now: now}
}

// Name implements ports.Stage.
func (c *CacheBust) Name() string { return NameCacheBust }

// Apply implements ports.Stage.
func (c *CacheBust) Apply(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := asset.Clone()
	out.Name = insertSuffix(asset.Name, "-"+c.token(asset.Content))
	c.manifest.Record(path.Join(c.prefix, asset.Name), path.Join(c.prefix, out.Name))
	return out, nil
}

func (c *CacheBust) token(content []byte) string {
	if c.strategy == domain.BustTimestamp {
		return strconv.FormatInt(c.now().Unix(), 10)
	}
	return c.hasher.HashBytes(content)[:hashTokenLen]
}
