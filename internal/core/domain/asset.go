// Package domain contains the core domain models of the asset pipeline.
package domain

import "go.trai.ch/zerr"

// AssetClass is one category of source file handled by its own pipeline.
type AssetClass uint8

const (
	// ClassHTML covers the HTML entry pages.
	ClassHTML AssetClass = iota
	// ClassJS covers the JavaScript entry file and its includes.
	ClassJS
	// ClassSCSS covers the SCSS entry file and its partials.
	ClassSCSS
	// ClassImg covers the image tree.
	ClassImg
	// ClassFonts covers the font tree.
	ClassFonts
	// ClassManifest covers the web app manifest.
	ClassManifest
)

// AllClasses lists every asset class in a stable order.
var AllClasses = []AssetClass{ClassHTML, ClassJS, ClassSCSS, ClassImg, ClassFonts, ClassManifest}

var classNames = map[AssetClass]string{
	ClassHTML:     "html",
	ClassJS:       "js",
	ClassSCSS:     "scss",
	ClassImg:      "img",
	ClassFonts:    "fonts",
	ClassManifest: "manifest",
}

// String returns the lowercase name used in task names and configuration keys.
func (c AssetClass) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseAssetClass converts a configuration key into an AssetClass.
func ParseAssetClass(s string) (AssetClass, error) {
	for class, name := range classNames {
		if name == s {
			return class, nil
		}
	}
	return 0, zerr.With(ErrUnknownAssetClass, "class", s)
}

// BuildMode selects which pipeline variant a task invokes.
type BuildMode uint8

const (
	// ModeDevelopment adds source maps and live-reload.
	ModeDevelopment BuildMode = iota
	// ModeProduction adds cache-busting, critical CSS and minified HTML.
	ModeProduction
)

// String returns the task name prefix of the mode.
func (m BuildMode) String() string {
	if m == ModeProduction {
		return "prod"
	}
	return "dev"
}

// ChangeKind describes what happened to a watched file.
type ChangeKind uint8

const (
	// ChangeAdded means the file was created.
	ChangeAdded ChangeKind = iota
	// ChangeModified means the file content changed.
	ChangeModified
	// ChangeRemoved means the file was deleted or renamed away.
	ChangeRemoved
)

// String returns a short label for the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	default:
		return "modified"
	}
}

// ChangeEvent is a classified file system change.
type ChangeEvent struct {
	Class AssetClass
	Path  string
	Kind  ChangeKind
}

// Asset is the unit of content flowing between transform stages.
type Asset struct {
	// Name is the output path relative to the destination directory of the class.
	Name string
	// SourcePath is the path of the file the asset was read from.
	SourcePath string
	// Content holds the current bytes of the asset.
	Content []byte
	// SourceMap holds the source map of Content, if a stage produced one.
	SourceMap []byte
	// Companions are additional files written next to the asset, such as external source maps.
	Companions []Asset
}

// Clone returns a copy of the asset that shares no slices with the original.
func (a *Asset) Clone() *Asset {
	c := &Asset{
		Name:       a.Name,
		SourcePath: a.SourcePath,
		Content:    append([]byte(nil), a.Content...),
	}
	if a.SourceMap != nil {
		c.SourceMap = append([]byte(nil), a.SourceMap...)
	}
	for _, comp := range a.Companions {
		c.Companions = append(c.Companions, *comp.Clone())
	}
	return c
}

// WrittenFile describes one destination file produced by a pipeline run.
type WrittenFile struct {
	Path    string
	Changed bool
}

// SourceFile is one file matched by a source glob.
type SourceFile struct {
	// Path is the OS path of the file.
	Path string
	// Name is the slash path of the file relative to the static prefix of the glob.
	Name string
}
