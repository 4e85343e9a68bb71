package fs

import (
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SourceResolver = (*Resolver)(nil)

// Resolver expands doublestar globs against the file system.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the files under root matching pattern. Names are relative to
// the static prefix of the pattern, so "src/img/**/*" yields "icons/logo.svg"
// for "src/img/icons/logo.svg".
func (r *Resolver) Resolve(root, pattern string) ([]domain.SourceFile, error) {
	base, _ := doublestar.SplitPattern(pattern)

	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSourceResolveFailed.Error()), "pattern", pattern)
	}
	slices.Sort(matches)

	files := make([]domain.SourceFile, 0, len(matches))
	for _, match := range matches {
		name := match
		if base != "." && base != "" {
			name = strings.TrimPrefix(match, base+"/")
		}
		files = append(files, domain.SourceFile{
			Path: joinSlash(root, match),
			Name: name,
		})
	}
	return files, nil
}
