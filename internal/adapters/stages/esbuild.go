package stages

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/zerr"
)

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"node":    api.EngineNode,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// ParseTargets converts browser targets such as "chrome49" or "ios9" into esbuild engines.
func ParseTargets(targets []string) ([]api.Engine, error) {
	engines := make([]api.Engine, 0, len(targets))
	for _, target := range targets {
		target = strings.ToLower(strings.TrimSpace(target))
		i := strings.IndexFunc(target, func(r rune) bool { return r >= '0' && r <= '9' })
		if i <= 0 {
			return nil, zerr.With(domain.ErrConfigInvalidOption, "target", target)
		}
		name, ok := engineNames[target[:i]]
		if !ok {
			return nil, zerr.With(domain.ErrConfigInvalidOption, "target", target)
		}
		engines = append(engines, api.Engine{Name: name, Version: target[i:]})
	}
	return engines, nil
}

// ESBuild runs one esbuild transform over the asset.
type ESBuild struct {
	name    string
	opts    api.TransformOptions
	sources bool
}

// NewAutoprefix creates a stage that adds vendor prefixes and lowers CSS syntax
// unsupported by engines.
func NewAutoprefix(engines []api.Engine) *ESBuild {
	return &ESBuild{name: NameAutoprefix, opts: api.TransformOptions{
		Loader:  api.LoaderCSS,
		Engines: engines,
	}}
}

// NewCSSMinify creates a stage that minifies CSS.
func NewCSSMinify(engines []api.Engine) *ESBuild {
	return &ESBuild{name: NameCSSMinify, opts: api.TransformOptions{
		Loader:            api.LoaderCSS,
		Engines:           engines,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	}}
}

// NewTranspile creates a stage that lowers JavaScript to ES2015. With
// sourceMap set the result carries a map back to the source file.
func NewTranspile(sourceMap bool) *ESBuild {
	return &ESBuild{name: NameTranspile, sources: sourceMap, opts: api.TransformOptions{
		Loader: api.LoaderJS,
		Target: api.ES2015,
	}}
}

// NewJSMinify creates a stage that minifies JavaScript.
func NewJSMinify() *ESBuild {
	return &ESBuild{name: NameJSMinify, opts: api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2015,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	}}
}

// Name implements ports.Stage.
func (s *ESBuild) Name() string { return s.name }

// Apply implements ports.Stage. An existing source map is chained through an
// inline sourceMappingURL comment so the result maps back to the original source.
func (s *ESBuild) Apply(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := s.opts
	opts.Sourcefile = asset.Name
	opts.LogLevel = api.LogLevelSilent

	input := string(asset.Content)
	if asset.SourceMap != nil {
		input += mapComment(opts.Loader == api.LoaderCSS, dataURL(asset.SourceMap))
	}
	withMap := asset.SourceMap != nil || s.sources
	if withMap {
		opts.Sourcemap = api.SourceMapExternal
	}

	res := api.Transform(input, opts)
	if len(res.Errors) > 0 {
		return nil, toolError(s.name, asset, esbuildError(res.Errors))
	}

	out := asset.Clone()
	out.Content = res.Code
	if withMap {
		out.SourceMap = res.Map
	}
	return out, nil
}

func esbuildError(msgs []api.Message) error {
	first := msgs[0]
	msg := first.Text
	if loc := first.Location; loc != nil {
		msg = fmt.Sprintf("line %d, column %d: %s", loc.Line, loc.Column+1, first.Text)
	}
	err := zerr.New(msg)
	if len(msgs) > 1 {
		err = zerr.With(err, "more_errors", len(msgs)-1)
	}
	return err
}

func dataURL(sourceMap []byte) string {
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString(sourceMap)
}

func mapComment(css bool, url string) string {
	if css {
		return "\n/*# sourceMappingURL=" + url + " */\n"
	}
	return "\n//# sourceMappingURL=" + url + "\n"
}
