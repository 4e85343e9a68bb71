package stages

import (
	"context"

	"go.trai.ch/press/internal/adapters/stylesheet"
	"go.trai.ch/press/internal/core/domain"
)

// MergeQueries combines identical @media blocks and moves them to the end of
// the stylesheet. A source map passes through unchanged.
type MergeQueries struct{}

// NewMergeQueries creates a MergeQueries stage.
func NewMergeQueries() *MergeQueries {
	return &MergeQueries{}
}

// Name implements ports.Stage.
func (m *MergeQueries) Name() string { return NameMergeQueries }

// Apply implements ports.Stage.
func (m *MergeQueries) Apply(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blocks, err := stylesheet.Parse(asset.Content)
	if err != nil {
		return nil, toolError(NameMergeQueries, asset, err)
	}
	out := asset.Clone()
	out.Content = stylesheet.Render(stylesheet.MergeMediaQueries(blocks))
	return out, nil
}
