package stages

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/zerr"
)

const maxIncludeDepth = 32

var (
	// htmlDirective matches a "//= path" line, optionally "//= require path".
	htmlDirective = regexp.MustCompile(`(?m)^([ \t]*)//=[ \t]*(?:require[ \t]+)?(\S+)[ \t]*$`)
	// jsDirective matches @@include('path') with optional parameters.
	jsDirective = regexp.MustCompile(`@@include\(\s*['"]([^'"]+)['"]\s*(?:,[^)]*)?\)`)
)

var errIncludeCycle = zerr.New("include cycle")

// Include assembles an entry file from the fragments it references.
// Paths are relative to the file holding the directive.
type Include struct {
	directive *regexp.Regexp
	indent    bool
	readFile  func(string) ([]byte, error)
}

// NewHTMLInclude creates an Include stage for "//= path" directives.
// Included lines take the indentation of the directive.
func NewHTMLInclude() *Include {
	return &Include{directive: htmlDirective, indent: true, readFile: os.ReadFile}
}

// NewJSInclude creates an Include stage for @@include('path') directives.
func NewJSInclude() *Include {
	return &Include{directive: jsDirective, readFile: os.ReadFile}
}

// Name implements ports.Stage.
func (s *Include) Name() string { return NameInclude }

// Apply implements ports.Stage.
func (s *Include) Apply(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	content, err := s.expand(ctx, asset.Content, asset.SourcePath, []string{filepath.Clean(asset.SourcePath)})
	if err != nil {
		return nil, toolError(NameInclude, asset, err)
	}
	out := asset.Clone()
	out.Content = content
	return out, nil
}

func (s *Include) expand(ctx context.Context, content []byte, from string, stack []string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(stack) > maxIncludeDepth {
		return nil, zerr.With(errIncludeCycle, "depth", len(stack))
	}

	var firstErr error
	out := s.directive.ReplaceAllFunc(content, func(match []byte) []byte {
		if firstErr != nil {
			return match
		}
		sub := s.directive.FindSubmatch(match)
		indent, rel := "", string(sub[len(sub)-1])
		if s.indent {
			indent = string(sub[1])
		}

		target := filepath.Clean(filepath.Join(filepath.Dir(from), filepath.FromSlash(rel)))
		if slices.Contains(stack, target) {
			firstErr = zerr.With(errIncludeCycle, "path", rel)
			return match
		}
		body, err := s.readFile(target)
		if err != nil {
			firstErr = zerr.With(zerr.Wrap(err, domain.ErrReadFailed.Error()), "path", rel)
			return match
		}
		body, err = s.expand(ctx, body, target, append(stack, target))
		if err != nil {
			firstErr = err
			return match
		}
		return indentLines(strings.TrimRight(string(body), "\n"), indent)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func indentLines(s, indent string) []byte {
	if indent == "" {
		return []byte(s)
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return []byte(strings.Join(lines, "\n"))
}
