package domain

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/zerr"
)

// PathSpec maps an asset class to its source files and destination directory.
type PathSpec struct {
	// Source is the glob selecting the entry files compiled by the pipeline.
	Source string
	// Watch is the glob selecting every file whose change re-triggers the pipeline.
	Watch string
	// Dest is the directory the pipeline writes into.
	Dest string
}

// Registry holds the path configuration of every asset class.
// Globs and directories are slash-separated and relative to Root.
type Registry struct {
	root  string
	dist  string
	specs map[AssetClass]PathSpec
}

// NewRegistry creates a registry rooted at root whose clean target is dist.
func NewRegistry(root, dist string, specs map[AssetClass]PathSpec) *Registry {
	r := &Registry{
		root:  root,
		dist:  cleanSlash(dist),
		specs: make(map[AssetClass]PathSpec, len(specs)),
	}
	for class, spec := range specs {
		if spec.Watch == "" {
			spec.Watch = spec.Source
		}
		spec.Source = cleanSlash(spec.Source)
		spec.Watch = cleanSlash(spec.Watch)
		spec.Dest = cleanSlash(spec.Dest)
		r.specs[class] = spec
	}
	return r
}

// DefaultSpecs returns the stock project layout.
func DefaultSpecs() map[AssetClass]PathSpec {
	return map[AssetClass]PathSpec{
		ClassHTML:     {Source: "src/*.html", Watch: "src/**/*.html", Dest: "dist"},
		ClassJS:       {Source: "src/js/common.js", Watch: "src/js/**/*.js", Dest: "dist/scripts"},
		ClassSCSS:     {Source: "src/scss/styles.scss", Watch: "src/scss/**/*.scss", Dest: "dist/styles"},
		ClassImg:      {Source: "src/img/**/*", Watch: "src/img/**/*", Dest: "dist/images"},
		ClassFonts:    {Source: "src/fonts/**/*", Watch: "src/fonts/**/*", Dest: "dist/fonts"},
		ClassManifest: {Source: "src/manifest.json", Watch: "src/manifest.json", Dest: "dist"},
	}
}

// DefaultRegistry returns a registry rooted at root with the stock layout.
func DefaultRegistry(root string) *Registry {
	return NewRegistry(root, DefaultDistDir, DefaultSpecs())
}

// Root returns the project root directory.
func (r *Registry) Root() string {
	return r.root
}

// Dist returns the destination root, relative to Root.
func (r *Registry) Dist() string {
	return r.dist
}

// DistPath returns the destination root as an OS path.
func (r *Registry) DistPath() string {
	return r.Abs(r.dist)
}

// DistRel returns dir relative to the destination root, or "" for the root itself.
func (r *Registry) DistRel(dir string) string {
	return strings.TrimPrefix(strings.TrimPrefix(cleanSlash(dir), r.dist), "/")
}

// Abs turns a registry-relative slash path into an OS path under Root.
func (r *Registry) Abs(rel string) string {
	return filepath.Join(r.root, filepath.FromSlash(rel))
}

// Resolve returns the PathSpec of class.
func (r *Registry) Resolve(class AssetClass) (PathSpec, error) {
	spec, ok := r.specs[class]
	if !ok {
		return PathSpec{}, zerr.With(ErrConfigMissingPath, "class", class.String())
	}
	return spec, nil
}

// Validate checks that every asset class is mapped to a usable PathSpec.
func (r *Registry) Validate() error {
	if r.dist == "" || r.dist == "." {
		return zerr.With(ErrConfigInvalidPath, "field", "dist")
	}
	for _, class := range AllClasses {
		spec, err := r.Resolve(class)
		if err != nil {
			return err
		}
		if spec.Source == "" || spec.Source == "." {
			return zerr.With(zerr.With(ErrConfigInvalidPath, "class", class.String()), "field", "src")
		}
		if spec.Dest == "" || spec.Dest == "." {
			return zerr.With(zerr.With(ErrConfigInvalidPath, "class", class.String()), "field", "dest")
		}
		if !doublestar.ValidatePattern(spec.Source) || !doublestar.ValidatePattern(spec.Watch) {
			return zerr.With(zerr.With(ErrConfigInvalidPath, "class", class.String()), "field", "glob")
		}
		if !isWithin(r.dist, spec.Dest) {
			return zerr.With(zerr.With(ErrConfigInvalidPath, "class", class.String()), "dest", spec.Dest)
		}
	}
	return nil
}

// Classify returns the class whose watch glob matches rel, a slash path relative to Root.
func (r *Registry) Classify(rel string) (AssetClass, bool) {
	rel = cleanSlash(rel)
	for _, class := range AllClasses {
		spec, ok := r.specs[class]
		if !ok {
			continue
		}
		if match, _ := doublestar.Match(spec.Watch, rel); match {
			return class, true
		}
	}
	return 0, false
}

func isWithin(parent, child string) bool {
	return child == parent || strings.HasPrefix(child, parent+"/")
}

func cleanSlash(p string) string {
	if p == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "./")
}
