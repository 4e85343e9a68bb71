package domain

import "path/filepath"

const (
	// PressDirName is the name of the internal workspace directory.
	PressDirName = ".press"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// ImageCacheDirName is the name of the optimized image cache directory.
	ImageCacheDirName = "images"

	// ConfigFileName is the name of the optional project configuration file.
	ConfigFileName = "press.yaml"

	// DefaultDistDir is the default destination root.
	DefaultDistDir = "dist"

	// ServiceWorkerFileName is the name of the generated precache script.
	ServiceWorkerFileName = "service-worker.js"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultImageCachePath returns the image cache directory relative to the project root.
// It joins .press, cache, and images.
func DefaultImageCachePath() string {
	return filepath.Join(PressDirName, CacheDirName, ImageCacheDirName)
}
