package stages

import (
	"context"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
	"go.trai.ch/press/internal/core/domain"
)

const mimeHTML = "text/html"

// HTMLMinify collapses whitespace and minifies inline styles and scripts.
type HTMLMinify struct {
	m *minify.M
}

// NewHTMLMinify creates an HTMLMinify stage.
func NewHTMLMinify() *HTMLMinify {
	return &HTMLMinify{m: newMinifier()}
}

func newMinifier() *minify.M {
	m := minify.New()
	m.Add(mimeHTML, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`), js.Minify)
	return m
}

// Name implements ports.Stage.
func (h *HTMLMinify) Name() string { return NameHTMLMinify }

// Apply implements ports.Stage.
func (h *HTMLMinify) Apply(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := h.m.Bytes(mimeHTML, asset.Content)
	if err != nil {
		return nil, toolError(NameHTMLMinify, asset, err)
	}
	out := asset.Clone()
	out.Content = b
	return out, nil
}
