package stages

import (
	"context"

	"go.trai.ch/press/internal/core/domain"
)

// Rename inserts a suffix before the extension of the asset name.
type Rename struct {
	suffix string
}

// NewRename creates a Rename stage. The pipelines use ".min".
func NewRename(suffix string) *Rename {
	return &Rename{suffix: suffix}
}

// Name implements ports.Stage.
func (r *Rename) Name() string { return NameRename }

// Apply implements ports.Stage.
func (r *Rename) Apply(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := asset.Clone()
	out.Name = insertSuffix(asset.Name, r.suffix)
	return out, nil
}
