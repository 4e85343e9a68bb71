package critical_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/adapters/critical"
)

const page = `<!DOCTYPE html>
<html><head><title>Home</title></head>
<body>
<header class="top"><a href="/">Home</a></header>
<main><h1 id="title">Hello</h1></main>
</body></html>`

const css = `@charset "utf-8";
@import url("print.css");
.top{background:#000}
a:hover{color:red}
.modal .close{display:none}
h1#title,h2.missing{font-size:2em}
@media (min-width:768px){.top{padding:2em}.sidebar{width:30%}}
@media print{.sidebar{display:none}}
@font-face{font-family:Inter;src:url(inter.woff2)}
@keyframes spin{to{transform:rotate(1turn)}}
`

func TestStatic_Extract(t *testing.T) {
	out, err := critical.NewStatic().Extract(t.Context(), []byte(page), []byte(css))
	require.NoError(t, err)

	assert.Equal(t, `@charset "utf-8";
.top{background:#000}
a:hover{color:red}
h1#title,h2.missing{font-size:2em}
@media (min-width:768px){.top{padding:2em}
}
@font-face{font-family:Inter;src:url(inter.woff2)}
`, string(out))
}

func TestStatic_InvalidStylesheet(t *testing.T) {
	_, err := critical.NewStatic().Extract(t.Context(), []byte(page), []byte(".top{"))
	require.ErrorContains(t, err, "unbalanced braces")
}

func TestBrowser_Extract(t *testing.T) {
	if !critical.Available() {
		t.Skip("no headless browser installed")
	}
	b := critical.NewBrowser(1280, 200)
	t.Cleanup(func() { _ = b.Close() })

	tall := `<html><head></head><body>
<h1 class="hero" style="height:100px;margin:0">Hello</h1>
<div style="height:2000px"></div>
<footer class="foot">bye</footer>
</body></html>`

	out, err := b.Extract(t.Context(), []byte(tall), []byte(".hero{color:red}.foot{color:blue}"))
	require.NoError(t, err)
	assert.Contains(t, string(out), ".hero")
	assert.NotContains(t, string(out), ".foot")
}
