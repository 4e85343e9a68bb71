// Package stages implements the transform stages composed by the pipelines.
// Each stage wraps one tool and reports failures as *domain.ToolError.
package stages

import (
	"context"
	"path"
	"strings"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
)

// Stage names, as reported in errors, spans and metrics.
const (
	NameSass         = "sass"
	NameAutoprefix   = "autoprefix"
	NameMergeQueries = "mergequeries"
	NameCSSMinify    = "cssminify"
	NameInclude      = "include"
	NameTranspile    = "transpile"
	NameJSMinify     = "jsminify"
	NameRename       = "rename"
	NameSourceMap    = "sourcemap"
	NameCacheBust    = "cachebust"
	NameBustRefs     = "bustrefs"
	NameCritical     = "critical"
	NameHTMLMinify   = "htmlminify"
	NameImagemin     = "imagemin"
	NameCopy         = "copy"
)

// Copy is the identity stage used for fonts and the manifest.
type Copy struct{}

var _ ports.Stage = Copy{}

// Name implements ports.Stage.
func (Copy) Name() string { return NameCopy }

// Apply implements ports.Stage.
func (Copy) Apply(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return asset, nil
}

func toolError(stage string, asset *domain.Asset, err error) error {
	return domain.NewToolError(stage, asset.SourcePath, err)
}

// replaceExt swaps the extension of a slash path.
func replaceExt(name, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}

// insertSuffix places suffix between the stem and the extension of name,
// so "styles.css" with "-abc" becomes "styles-abc.css".
func insertSuffix(name, suffix string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + suffix + ext
}
