package stages

import (
	"context"
	"path"

	"go.trai.ch/press/internal/core/domain"
)

// SourceMapMode selects where a source map is emitted.
type SourceMapMode uint8

const (
	// SourceMapExternal writes a companion .map file next to the asset.
	SourceMapExternal SourceMapMode = iota
	// SourceMapInline embeds the map as a base64 data URL.
	SourceMapInline
)

// SourceMap emits the source map carried by the asset and links it from the content.
type SourceMap struct {
	mode SourceMapMode
}

// NewSourceMap creates a SourceMap stage.
func NewSourceMap(mode SourceMapMode) *SourceMap {
	return &SourceMap{mode: mode}
}

// Name implements ports.Stage.
func (s *SourceMap) Name() string { return NameSourceMap }

// Apply implements ports.Stage. Assets without a map pass through.
func (s *SourceMap) Apply(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if asset.SourceMap == nil {
		return asset, nil
	}

	out := asset.Clone()
	out.SourceMap = nil
	css := path.Ext(asset.Name) == ".css"

	switch s.mode {
	case SourceMapInline:
		out.Content = append(out.Content, mapComment(css, dataURL(asset.SourceMap))...)
	default:
		mapName := asset.Name + ".map"
		out.Content = append(out.Content, mapComment(css, path.Base(mapName))...)
		out.Companions = append(out.Companions, domain.Asset{
			Name:       mapName,
			SourcePath: asset.SourcePath,
			Content:    asset.SourceMap,
		})
	}
	return out, nil
}
