// Package critical selects the stylesheet rules needed to render the top of a page.
package critical

import (
	"bytes"
	"context"
	"regexp"

	"github.com/andybalholm/cascadia"
	"go.trai.ch/press/internal/adapters/stylesheet"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/net/html"
)

var _ ports.CriticalExtractor = (*Static)(nil)

// statePseudo matches pseudo-classes and pseudo-elements that depend on
// interaction or generated content. They are removed before matching so that
// "a:hover" is kept whenever "a" is present.
var statePseudo = regexp.MustCompile(
	`::?(hover|focus|focus-within|focus-visible|active|visited|link|target|before|after|placeholder|selection|first-line|first-letter|marker|-webkit-[a-z-]+|-moz-[a-z-]+|-ms-[a-z-]+)\b`,
)

// Static keeps the rules whose selectors match an element of the page, without
// rendering it. Rules whose selectors cannot be parsed are kept.
type Static struct{}

// NewStatic creates a Static extractor.
func NewStatic() *Static {
	return &Static{}
}

// Extract implements ports.CriticalExtractor.
func (s *Static) Extract(ctx context.Context, page, css []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to parse page")
	}
	blocks, err := stylesheet.Parse(css)
	if err != nil {
		return nil, err
	}
	kept, err := s.filter(doc, blocks)
	if err != nil {
		return nil, err
	}
	return stylesheet.Render(kept), nil
}

func (s *Static) filter(doc *html.Node, blocks []stylesheet.Block) ([]stylesheet.Block, error) {
	var kept []stylesheet.Block
	for _, b := range blocks {
		switch b.Kind {
		case stylesheet.KindRule:
			if matchesAny(doc, b.Selectors()) {
				kept = append(kept, b)
			}
		case stylesheet.KindAtStatement:
			if b.AtKeyword() == "@charset" {
				kept = append(kept, b)
			}
		case stylesheet.KindAtBlock:
			switch b.AtKeyword() {
			case "@font-face":
				kept = append(kept, b)
			case "@media", "@supports", "@layer", "@container":
				inner, err := stylesheet.Parse([]byte(b.Body))
				if err != nil {
					return nil, err
				}
				inner, err = s.filter(doc, inner)
				if err != nil {
					return nil, err
				}
				if len(inner) > 0 {
					b.Body = string(stylesheet.Render(inner))
					kept = append(kept, b)
				}
			}
		}
	}
	return kept, nil
}

func matchesAny(doc *html.Node, selectors []string) bool {
	for _, sel := range selectors {
		stripped := statePseudo.ReplaceAllString(sel, "")
		if stripped == "" {
			stripped = "*"
		}
		compiled, err := cascadia.Compile(stripped)
		if err != nil {
			return true
		}
		if compiled.MatchFirst(doc) != nil {
			return true
		}
	}
	return false
}
