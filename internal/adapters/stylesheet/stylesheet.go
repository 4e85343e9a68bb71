// Package stylesheet splits compiled CSS into top-level blocks using the
// tdewolff CSS lexer. It backs media query merging and critical CSS selection.
package stylesheet

import (
	"errors"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.trai.ch/zerr"
)

// ErrUnbalanced is returned when braces do not pair up.
var ErrUnbalanced = zerr.New("unbalanced braces in stylesheet")

// Kind classifies a top-level block.
type Kind uint8

const (
	// KindRule is a qualified rule: selectors followed by a declaration block.
	KindRule Kind = iota
	// KindAtBlock is an at-rule with a block, such as @media or @font-face.
	KindAtBlock
	// KindAtStatement is an at-rule ended by a semicolon, such as @import.
	KindAtStatement
)

// Block is one top-level construct of a stylesheet.
type Block struct {
	Kind Kind
	// Prelude is the trimmed text before the block or the semicolon.
	Prelude string
	// Body is the raw text between the outer braces.
	Body string
}

// AtKeyword returns the lowercased at-keyword of an at-rule, e.g. "@media".
func (b Block) AtKeyword() string {
	if b.Kind == KindRule {
		return ""
	}
	keyword, _, _ := strings.Cut(b.Prelude, " ")
	if i := strings.IndexAny(keyword, "({"); i >= 0 {
		keyword = keyword[:i]
	}
	return strings.ToLower(keyword)
}

// Selectors splits the prelude of a rule on top-level commas.
func (b Block) Selectors() []string {
	if b.Kind != KindRule {
		return nil
	}
	var out []string
	depth := 0
	start := 0
	for i, r := range b.Prelude {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(b.Prelude[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(b.Prelude[start:]))
}

// String renders the block back to CSS.
func (b Block) String() string {
	if b.Kind == KindAtStatement {
		return b.Prelude + ";"
	}
	return b.Prelude + "{" + b.Body + "}"
}

// Parse splits src into top-level blocks. Top-level comments are dropped.
func Parse(src []byte) ([]Block, error) {
	l := css.NewLexer(parse.NewInputBytes(src))

	var blocks []Block
	var prelude, body strings.Builder
	depth := 0

	emit := func(kind Kind) {
		p := strings.TrimSpace(prelude.String())
		if kind != KindAtStatement && strings.HasPrefix(p, "@") {
			kind = KindAtBlock
		}
		if p != "" || kind != KindAtStatement {
			blocks = append(blocks, Block{Kind: kind, Prelude: p, Body: body.String()})
		}
		prelude.Reset()
		body.Reset()
	}

	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, zerr.Wrap(err, "failed to lex stylesheet")
			}
			if depth != 0 {
				return nil, zerr.With(ErrUnbalanced, "depth", depth)
			}
			if strings.TrimSpace(prelude.String()) != "" {
				emit(KindAtStatement)
			}
			return blocks, nil
		case css.CommentToken:
			if depth > 0 {
				body.Write(data)
			}
		case css.LeftBraceToken:
			if depth > 0 {
				body.Write(data)
			}
			depth++
		case css.RightBraceToken:
			depth--
			switch {
			case depth < 0:
				return nil, zerr.With(ErrUnbalanced, "depth", depth)
			case depth == 0:
				emit(KindRule)
			default:
				body.Write(data)
			}
		case css.SemicolonToken:
			if depth == 0 {
				emit(KindAtStatement)
			} else {
				body.Write(data)
			}
		default:
			if depth == 0 {
				prelude.Write(data)
			} else {
				body.Write(data)
			}
		}
	}
}

// Render joins blocks into a stylesheet, one block per line.
func Render(blocks []Block) []byte {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.String())
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

// MergeMediaQueries combines @media blocks with identical preludes into one
// block each and moves them after all other blocks, in order of first appearance.
func MergeMediaQueries(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	var order []string
	merged := make(map[string]*strings.Builder)

	for _, b := range blocks {
		if b.AtKeyword() != "@media" {
			out = append(out, b)
			continue
		}
		key := normalizeSpace(b.Prelude)
		sb, ok := merged[key]
		if !ok {
			sb = &strings.Builder{}
			merged[key] = sb
			order = append(order, key)
		}
		sb.WriteString(b.Body)
	}

	for _, key := range order {
		out = append(out, Block{Kind: KindAtBlock, Prelude: key, Body: merged[key].String()})
	}
	return out
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
