package ports

import "go.trai.ch/press/internal/core/domain"

// SourceResolver expands source globs into files.
type SourceResolver interface {
	// Resolve returns the regular files under root matching the slash glob pattern,
	// sorted by name. No match is not an error.
	Resolve(root, pattern string) ([]domain.SourceFile, error)
}
