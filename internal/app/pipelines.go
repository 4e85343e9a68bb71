package app

import (
	"path"

	"go.trai.ch/press/internal/adapters/stages"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
)

// minSuffix is inserted before the extension of minified stylesheets and scripts.
const minSuffix = ".min"

// pipelineStages returns the ordered stages of the class pipeline in mode.
func (s *session) pipelineStages(class domain.AssetClass, mode domain.BuildMode) ([]ports.Stage, error) {
	prod := mode == domain.ModeProduction

	switch class {
	case domain.ClassSCSS:
		list := []ports.Stage{
			stages.NewSass(!prod),
			stages.NewAutoprefix(s.engines),
			stages.NewMergeQueries(),
			stages.NewCSSMinify(s.engines),
			stages.NewRename(minSuffix),
		}
		if !prod {
			return append(list, stages.NewSourceMap(stages.SourceMapExternal)), nil
		}
		spec, err := s.registry.Resolve(class)
		if err != nil {
			return nil, err
		}
		bust := stages.NewCacheBust(s.opts.CacheBust, s.app.deps.Hasher, s.manifest, s.registry.DistRel(spec.Dest), s.app.now)
		return append(list, bust), nil

	case domain.ClassHTML:
		list := []ports.Stage{stages.NewHTMLInclude()}
		if !prod {
			return list, nil
		}
		stylesheet, err := s.criticalStylesheet()
		if err != nil {
			return nil, err
		}
		return append(list,
			stages.NewCritical(s.extractor, s.manifest, s.registry.DistPath(), stylesheet),
			stages.NewHTMLMinify(),
			stages.NewBustRefs(s.manifest),
		), nil

	case domain.ClassJS:
		list := []ports.Stage{
			stages.NewJSInclude(),
			stages.NewTranspile(!prod),
			stages.NewJSMinify(),
			stages.NewRename(minSuffix),
		}
		if !prod {
			list = append(list, stages.NewSourceMap(stages.SourceMapInline))
		}
		return list, nil

	case domain.ClassImg:
		return []ports.Stage{
			stages.NewImagemin(s.store, s.app.deps.Hasher, s.app.deps.Tools, s.app.deps.Metrics),
		}, nil

	default:
		return []ports.Stage{stages.Copy{}}, nil
	}
}

// criticalStylesheet is the built stylesheet relative to the destination root.
func (s *session) criticalStylesheet() (string, error) {
	spec, err := s.registry.Resolve(domain.ClassSCSS)
	if err != nil {
		return "", err
	}
	return path.Join(s.registry.DistRel(spec.Dest), s.opts.Critical.Stylesheet), nil
}
