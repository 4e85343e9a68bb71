package stages

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bep/golibsass/libsass"
	"github.com/bep/golibsass/libsass/libsasserrors"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/zerr"
)

// Sass compiles SCSS to CSS with libsass.
type Sass struct {
	includePaths []string
	sourceMap    bool
}

// NewSass creates a Sass stage. Imports resolve against the directory of the
// entry file first, then includePaths. When sourceMap is set the compiled
// asset carries a source map that later stages chain.
func NewSass(sourceMap bool, includePaths ...string) *Sass {
	return &Sass{includePaths: includePaths, sourceMap: sourceMap}
}

// Name implements ports.Stage.
func (s *Sass) Name() string { return NameSass }

// Apply implements ports.Stage.
func (s *Sass) Apply(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outName := replaceExt(asset.Name, ".css")
	opts := libsass.Options{
		OutputStyle:  libsass.ExpandedStyle,
		Precision:    10,
		IncludePaths: append([]string{filepath.Dir(asset.SourcePath)}, s.includePaths...),
	}
	if s.sourceMap {
		opts.SourceMapOptions = libsass.SourceMapOptions{
			Filename:   path.Base(outName) + ".map",
			InputPath:  asset.SourcePath,
			OutputPath: path.Base(outName),
			Contents:   true,
			OmitURL:    true,
		}
	}

	transpiler, err := libsass.New(opts)
	if err != nil {
		return nil, toolError(NameSass, asset, err)
	}
	res, err := transpiler.Execute(string(asset.Content))
	if err != nil {
		return nil, toolError(NameSass, asset, sassError(err))
	}

	out := &domain.Asset{
		Name:       outName,
		SourcePath: asset.SourcePath,
		Content:    []byte(res.CSS),
	}
	if s.sourceMap && res.SourceMapContent != "" {
		out.SourceMap = []byte(res.SourceMapContent)
	}
	return out, nil
}

func sassError(err error) error {
	var serr libsasserrors.Error
	if !errors.As(err, &serr) {
		return err
	}
	msg := strings.TrimSpace(serr.Message)
	if serr.Line > 0 {
		msg = fmt.Sprintf("line %d, column %d: %s", serr.Line, serr.Column, msg)
	}
	return zerr.With(zerr.With(zerr.New(msg), "line", serr.Line), "column", serr.Column)
}
