package stages

import (
	"bytes"
	"context"
	"image/png"
	"path"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
)

const mimeSVG = "image/svg+xml"

// External optimizers filtering stdin to stdout.
var imageTools = map[string]struct {
	name string
	args []string
}{
	".jpg":  {name: "jpegtran", args: []string{"-copy", "none", "-optimize", "-progressive"}},
	".jpeg": {name: "jpegtran", args: []string{"-copy", "none", "-optimize", "-progressive"}},
	".gif":  {name: "gifsicle", args: []string{"--interlace", "-O2"}},
}

// Imagemin losslessly optimizes images behind a content-addressed cache.
// The smaller of the original and the optimized bytes is kept.
type Imagemin struct {
	cache   ports.ImageCache
	hasher  ports.Hasher
	tools   ports.ToolRunner
	metrics ports.Metrics
	svg     *minify.M
}

// NewImagemin creates an Imagemin stage.
func NewImagemin(cache ports.ImageCache, hasher ports.Hasher, tools ports.ToolRunner, metrics ports.Metrics) *Imagemin {
	m := minify.New()
	m.AddFunc(mimeSVG, svg.Minify)
	return &Imagemin{cache: cache, hasher: hasher, tools: tools, metrics: metrics, svg: m}
}

// Name implements ports.Stage.
func (s *Imagemin) Name() string { return NameImagemin }

// Apply implements ports.Stage. Formats without an available optimizer pass
// through and are not cached.
func (s *Imagemin) Apply(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	optimize := s.optimizer(strings.ToLower(path.Ext(asset.Name)))
	if optimize == nil {
		return asset, nil
	}

	key := s.hasher.HashBytes(asset.Content) + strings.ToLower(path.Ext(asset.Name))
	content, hit, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) ([]byte, error) {
		optimized, err := optimize(ctx, asset.Content)
		if err != nil {
			return nil, err
		}
		if len(optimized) == 0 || len(optimized) >= len(asset.Content) {
			return asset.Content, nil
		}
		return optimized, nil
	})
	if err != nil {
		return nil, toolError(NameImagemin, asset, err)
	}
	s.metrics.IncImageCache(hit)

	out := asset.Clone()
	out.Content = content
	return out, nil
}

type optimizeFunc func(ctx context.Context, data []byte) ([]byte, error)

func (s *Imagemin) optimizer(ext string) optimizeFunc {
	switch ext {
	case ".png":
		return optimizePNG
	case ".svg":
		return func(_ context.Context, data []byte) ([]byte, error) {
			return s.svg.Bytes(mimeSVG, data)
		}
	}
	tool, ok := imageTools[ext]
	if !ok || !s.tools.Available(tool.name) {
		return nil
	}
	return func(ctx context.Context, data []byte) ([]byte, error) {
		return s.tools.Run(ctx, tool.name, tool.args, data)
	}
}

func optimizePNG(_ context.Context, data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
