// Package swprecache generates the service worker that precaches the production bundle.
package swprecache

import (
	"bytes"
	"cmp"
	"context"
	_ "embed"
	"encoding/json"
	"path/filepath"
	"slices"
	"text/template"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

//go:embed service-worker.js.tmpl
var scriptTemplate string

var tmpl = template.Must(template.New("sw").Parse(scriptTemplate))

// Entry is one precached file.
type Entry struct {
	URL      string `json:"url"`
	Revision string `json:"revision"`
}

// Generator writes a service worker listing the files matched by globs under
// the destination root, each with a content revision.
type Generator struct {
	resolver ports.SourceResolver
	hasher   ports.Hasher
	writer   ports.OutputWriter
}

// NewGenerator creates a Generator.
func NewGenerator(resolver ports.SourceResolver, hasher ports.Hasher, writer ports.OutputWriter) *Generator {
	return &Generator{resolver: resolver, hasher: hasher, writer: writer}
}

// Entries resolves globs, relative to distPath, into precache entries sorted
// by URL. URLs are relative to distPath and the service worker itself is excluded.
func (g *Generator) Entries(distPath string, globs []string) ([]Entry, error) {
	seen := make(map[string]bool)
	var entries []Entry
	for _, glob := range globs {
		files, err := g.resolver.Resolve(distPath, glob)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			rel, err := filepath.Rel(distPath, f.Path)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrReadFailed.Error()), "path", f.Path)
			}
			url := filepath.ToSlash(rel)
			if seen[url] || url == domain.ServiceWorkerFileName {
				continue
			}
			seen[url] = true

			rev, err := g.hasher.HashFile(f.Path)
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{URL: url, Revision: rev})
		}
	}
	slices.SortFunc(entries, func(a, b Entry) int { return cmp.Compare(a.URL, b.URL) })
	return entries, nil
}

// Generate writes distPath/service-worker.js.
func (g *Generator) Generate(ctx context.Context, distPath string, globs []string) (domain.WrittenFile, error) {
	entries, err := g.Entries(distPath, globs)
	if err != nil {
		return domain.WrittenFile{}, err
	}
	script, err := g.Render(entries)
	if err != nil {
		return domain.WrittenFile{}, err
	}

	target := filepath.Join(distPath, domain.ServiceWorkerFileName)
	changed, err := g.writer.Write(ctx, target, script)
	if err != nil {
		return domain.WrittenFile{}, err
	}
	return domain.WrittenFile{Path: target, Changed: changed}, nil
}

// Render produces the service worker script for entries.
func (g *Generator) Render(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	list, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode precache list")
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, struct {
		CacheName string
		Precache  string
	}{
		CacheName: "press-precache-" + g.hasher.HashBytes(list)[:8],
		Precache:  string(list),
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to render service worker")
	}
	return buf.Bytes(), nil
}
