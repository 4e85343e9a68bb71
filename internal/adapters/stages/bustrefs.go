package stages

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"go.trai.ch/press/internal/core/domain"
	"golang.org/x/net/html"
)

// BustRefs rewrites href and src attributes of HTML pages to the cache-busted
// names recorded in the manifest. Unknown references are left untouched.
type BustRefs struct {
	manifest *domain.BustManifest
}

// NewBustRefs creates a BustRefs stage.
func NewBustRefs(manifest *domain.BustManifest) *BustRefs {
	return &BustRefs{manifest: manifest}
}

// Name implements ports.Stage.
func (b *BustRefs) Name() string { return NameBustRefs }

// Apply implements ports.Stage.
func (b *BustRefs) Apply(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	z := html.NewTokenizer(bytes.NewReader(asset.Content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, toolError(NameBustRefs, asset, err)
			}
			break
		}
		raw := z.Raw()
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			buf.Write(raw)
			continue
		}
		tok := z.Token()
		if !b.rewrite(&tok, path.Dir(asset.Name)) {
			buf.Write(raw)
			continue
		}
		buf.WriteString(tok.String())
	}

	out := asset.Clone()
	out.Content = buf.Bytes()
	return out, nil
}

func (b *BustRefs) rewrite(tok *html.Token, dir string) bool {
	changed := false
	for i, attr := range tok.Attr {
		if attr.Key != "href" && attr.Key != "src" {
			continue
		}
		if busted, ok := b.lookup(attr.Val, dir); ok {
			tok.Attr[i].Val = busted
			changed = true
		}
	}
	return changed
}

// lookup resolves ref, relative to the page directory dir, against the
// manifest and returns the reference rewritten in the same form.
func (b *BustRefs) lookup(ref, dir string) (string, bool) {
	if ref == "" || strings.Contains(ref, "://") || strings.HasPrefix(ref, "//") || strings.HasPrefix(ref, "data:") {
		return "", false
	}
	clean, suffix := ref, ""
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		clean, suffix = ref[:i], ref[i:]
	}

	key := strings.TrimPrefix(clean, "/")
	if !strings.HasPrefix(clean, "/") {
		key = path.Join(dir, clean)
	}
	busted, ok := b.manifest.Lookup(key)
	if !ok {
		return "", false
	}
	return clean[:len(clean)-len(path.Base(clean))] + path.Base(busted) + suffix, true
}
