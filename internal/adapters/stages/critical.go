package stages

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

// Critical inlines the above-the-fold subset of the built stylesheet into the
// head of an HTML page.
type Critical struct {
	extractor  ports.CriticalExtractor
	manifest   *domain.BustManifest
	distPath   string
	stylesheet string
	readFile   func(string) ([]byte, error)
}

// NewCritical creates a Critical stage. stylesheet is the logical name of the
// built stylesheet relative to distPath, e.g. "styles/styles.min.css"; its
// cache-busted name is looked up in manifest.
func NewCritical(
	extractor ports.CriticalExtractor,
	manifest *domain.BustManifest,
	distPath, stylesheet string,
) *Critical {
	return &Critical{
		extractor:  extractor,
		manifest:   manifest,
		distPath:   distPath,
		stylesheet: stylesheet,
		readFile:   os.ReadFile,
	}
}

// Name implements ports.Stage.
func (c *Critical) Name() string { return NameCritical }

// Apply implements ports.Stage.
func (c *Critical) Apply(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := c.stylesheet
	if busted, ok := c.manifest.Lookup(name); ok {
		name = busted
	}
	css, err := c.readFile(filepath.Join(c.distPath, filepath.FromSlash(name)))
	if err != nil {
		return nil, toolError(NameCritical, asset, zerr.With(zerr.Wrap(err, domain.ErrReadFailed.Error()), "stylesheet", name))
	}

	critical, err := c.extractor.Extract(ctx, asset.Content, css)
	if err != nil {
		return nil, toolError(NameCritical, asset, err)
	}

	out := asset.Clone()
	out.Content = inlineStyle(asset.Content, critical)
	return out, nil
}

// inlineStyle inserts a style element before the closing head tag, or at the
// start of the page when it has none.
func inlineStyle(page, css []byte) []byte {
	if len(bytes.TrimSpace(css)) == 0 {
		return page
	}
	style := make([]byte, 0, len(css)+15)
	style = append(style, "<style>"...)
	style = append(style, css...)
	style = append(style, "</style>"...)

	i := bytes.Index(bytes.ToLower(page), []byte("</head>"))
	if i < 0 {
		return append(style, page...)
	}
	out := make([]byte, 0, len(page)+len(style))
	out = append(out, page[:i]...)
	out = append(out, style...)
	return append(out, page[i:]...)
}
