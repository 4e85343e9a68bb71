package swprecache

import (
	"path"
	"slices"
	"strings"

	"go.trai.ch/press/internal/core/domain"
)

// classGlobs are the file patterns precached per class, relative to the
// destination directory of the class. Empty means the base name of the source glob.
var classGlobs = map[domain.AssetClass]string{
	domain.ClassHTML:     "*.html",
	domain.ClassJS:       "*.min*.js",
	domain.ClassImg:      "**/*",
	domain.ClassFonts:    "**/*",
	domain.ClassManifest: "",
}

// bustedClasses are precached by their exact cache-busted names, since
// busted files of earlier builds stay in the destination directory.
var bustedClasses = map[domain.AssetClass]bool{
	domain.ClassSCSS: true,
}

var metaEscaper = strings.NewReplacer(
	`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`, `{`, `\{`, `}`, `\}`,
)

// Globs returns the precache globs of reg, relative to its destination root.
// busted maps logical to cache-busted names of the current build, as recorded
// in its BustManifest.
func Globs(reg *domain.Registry, busted map[string]string) ([]string, error) {
	globs := make([]string, 0, len(domain.AllClasses))
	for _, class := range []domain.AssetClass{
		domain.ClassManifest, domain.ClassHTML, domain.ClassSCSS,
		domain.ClassFonts, domain.ClassImg, domain.ClassJS,
	} {
		spec, err := reg.Resolve(class)
		if err != nil {
			return nil, err
		}
		dest := reg.DistRel(spec.Dest)

		if bustedClasses[class] {
			globs = append(globs, bustedNames(dest, busted)...)
			continue
		}

		pattern := classGlobs[class]
		if pattern == "" {
			pattern = path.Base(spec.Source)
		}
		globs = append(globs, path.Join(dest, pattern))
	}
	return globs, nil
}

// bustedNames returns the busted names directly inside dest as literal globs.
func bustedNames(dest string, busted map[string]string) []string {
	dir := path.Clean(dest)
	var names []string
	for _, name := range busted {
		if path.Dir(name) == dir {
			names = append(names, metaEscaper.Replace(name))
		}
	}
	slices.Sort(names)
	return names
}
