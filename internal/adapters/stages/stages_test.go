package stages_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/adapters/cas"
	"go.trai.ch/press/internal/adapters/fs"
	"go.trai.ch/press/internal/adapters/stages"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type cacheCounter struct {
	hits, misses int
}

func (c *cacheCounter) ObservePipeline(string, string, time.Duration, error) {}
func (c *cacheCounter) ObserveStage(string, time.Duration, error)            {}
func (c *cacheCounter) SetLiveReloadClients(int)                             {}

func (c *cacheCounter) IncImageCache(hit bool) {
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

func TestCopy(t *testing.T) {
	asset := &domain.Asset{Name: "manifest.json", Content: []byte(`{"name":"site"}`)}
	out, err := stages.Copy{}.Apply(t.Context(), asset)
	require.NoError(t, err)
	assert.Same(t, asset, out)
}

func TestRename(t *testing.T) {
	asset := &domain.Asset{Name: "nested/styles.css", Content: []byte("a{}")}
	out, err := stages.NewRename(".min").Apply(t.Context(), asset)
	require.NoError(t, err)
	assert.Equal(t, "nested/styles.min.css", out.Name)
	assert.Equal(t, "nested/styles.css", asset.Name)
}

func TestSourceMap(t *testing.T) {
	asset := &domain.Asset{Name: "styles.min.css", Content: []byte("a{}\n"), SourceMap: []byte(`{"version":3}`)}

	t.Run("external", func(t *testing.T) {
		out, err := stages.NewSourceMap(stages.SourceMapExternal).Apply(t.Context(), asset)
		require.NoError(t, err)
		assert.Equal(t, "a{}\n\n/*# sourceMappingURL=styles.min.css.map */\n", string(out.Content))
		assert.Nil(t, out.SourceMap)
		require.Len(t, out.Companions, 1)
		assert.Equal(t, "styles.min.css.map", out.Companions[0].Name)
		assert.JSONEq(t, `{"version":3}`, string(out.Companions[0].Content))
	})

	t.Run("inline", func(t *testing.T) {
		js := &domain.Asset{Name: "common.min.js", Content: []byte("x();"), SourceMap: []byte(`{"version":3}`)}
		out, err := stages.NewSourceMap(stages.SourceMapInline).Apply(t.Context(), js)
		require.NoError(t, err)
		assert.Contains(t, string(out.Content), "//# sourceMappingURL=data:application/json;base64,eyJ2ZXJzaW9uIjozfQ==")
		assert.Empty(t, out.Companions)
	})

	t.Run("no map", func(t *testing.T) {
		plain := &domain.Asset{Name: "common.min.js", Content: []byte("x();")}
		out, err := stages.NewSourceMap(stages.SourceMapExternal).Apply(t.Context(), plain)
		require.NoError(t, err)
		assert.Equal(t, "x();", string(out.Content))
	})
}

func TestCacheBust_Hash(t *testing.T) {
	manifest := domain.NewBustManifest()
	stage := stages.NewCacheBust(domain.BustHash, fs.NewHasher(), manifest, "styles", time.Now)

	first, err := stage.Apply(t.Context(), &domain.Asset{Name: "styles.min.css", Content: []byte("a{}")})
	require.NoError(t, err)
	again, err := stage.Apply(t.Context(), &domain.Asset{Name: "styles.min.css", Content: []byte("a{}")})
	require.NoError(t, err)
	changed, err := stage.Apply(t.Context(), &domain.Asset{Name: "styles.min.css", Content: []byte("b{}")})
	require.NoError(t, err)

	assert.Regexp(t, `^styles\.min-[0-9a-f]{8}\.css$`, first.Name)
	assert.Equal(t, first.Name, again.Name)
	assert.NotEqual(t, first.Name, changed.Name)

	busted, ok := manifest.Lookup("styles/styles.min.css")
	require.True(t, ok)
	assert.Equal(t, "styles/"+changed.Name, busted)
}

func TestCacheBust_Timestamp(t *testing.T) {
	manifest := domain.NewBustManifest()
	now := func() time.Time { return time.Unix(1700000000, 0) }
	stage := stages.NewCacheBust(domain.BustTimestamp, fs.NewHasher(), manifest, "styles", now)

	out, err := stage.Apply(t.Context(), &domain.Asset{Name: "styles.min.css", Content: []byte("a{}")})
	require.NoError(t, err)
	assert.Equal(t, "styles.min-1700000000.css", out.Name)
}

func TestBustRefs(t *testing.T) {
	manifest := domain.NewBustManifest()
	manifest.Record("styles/styles.min.css", "styles/styles.min-abcd1234.css")

	page := `<!DOCTYPE html>
<html><head>
<link rel="stylesheet" href="styles/styles.min.css?v=1">
<link rel="icon" href="/favicon.ico">
</head><body><script src="scripts/common.min.js"></script>
<a href="https://example.com/styles/styles.min.css">x</a></body></html>`

	out, err := stages.NewBustRefs(manifest).Apply(t.Context(), &domain.Asset{Name: "index.html", Content: []byte(page)})
	require.NoError(t, err)

	got := string(out.Content)
	assert.Contains(t, got, `href="styles/styles.min-abcd1234.css?v=1"`)
	assert.Contains(t, got, `<link rel="icon" href="/favicon.ico">`)
	assert.Contains(t, got, `<script src="scripts/common.min.js"></script>`)
	assert.Contains(t, got, `href="https://example.com/styles/styles.min.css"`)
	assert.True(t, strings.HasPrefix(got, "<!DOCTYPE html>\n<html><head>\n"))
}

func TestCritical(t *testing.T) {
	ctrl := gomock.NewController(t)
	extractor := mocks.NewMockCriticalExtractor(ctrl)

	dist := t.TempDir()
	writeFile(t, filepath.Join(dist, "styles", "styles.min-abcd1234.css"), "h1{color:red}footer{color:blue}")
	manifest := domain.NewBustManifest()
	manifest.Record("styles/styles.min.css", "styles/styles.min-abcd1234.css")

	page := []byte("<html><head><title>x</title></head><body><h1>x</h1></body></html>")
	extractor.EXPECT().
		Extract(gomock.Any(), page, []byte("h1{color:red}footer{color:blue}")).
		Return([]byte("h1{color:red}"), nil)

	stage := stages.NewCritical(extractor, manifest, dist, "styles/styles.min.css")
	out, err := stage.Apply(t.Context(), &domain.Asset{Name: "index.html", Content: page})
	require.NoError(t, err)
	assert.Equal(t,
		"<html><head><title>x</title><style>h1{color:red}</style></head><body><h1>x</h1></body></html>",
		string(out.Content))
}

func TestCritical_MissingStylesheet(t *testing.T) {
	ctrl := gomock.NewController(t)
	extractor := mocks.NewMockCriticalExtractor(ctrl)

	stage := stages.NewCritical(extractor, domain.NewBustManifest(), t.TempDir(), "styles/styles.min.css")
	_, err := stage.Apply(t.Context(), &domain.Asset{Name: "index.html", SourcePath: "src/index.html", Content: []byte("<p>")})

	var toolErr *domain.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, stages.NameCritical, toolErr.Stage)
}

func TestHTMLMinify(t *testing.T) {
	page := "<!DOCTYPE html>\n<html>\n  <head>\n    <style>\n      h1 { color: red; }\n    </style>\n  </head>\n  <body>\n    <h1>  Hello   world </h1>\n  </body>\n</html>\n"

	out, err := stages.NewHTMLMinify().Apply(t.Context(), &domain.Asset{Name: "index.html", Content: []byte(page)})
	require.NoError(t, err)

	got := string(out.Content)
	assert.Less(t, len(got), len(page))
	assert.Contains(t, got, "h1{color:red}")
	assert.Contains(t, got, "<h1>Hello world</h1>")
	assert.Contains(t, got, "<html>")
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := range 64 {
		for y := range 64 {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	require.NoError(t, enc.Encode(&buf, img))
	return buf.Bytes()
}

func TestImagemin_PNGCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	tools := mocks.NewMockToolRunner(ctrl)
	metrics := &cacheCounter{}
	store := cas.NewStore(t.TempDir())
	stage := stages.NewImagemin(store, fs.NewHasher(), tools, metrics)

	src := pngBytes(t)
	first, err := stage.Apply(t.Context(), &domain.Asset{Name: "icons/dot.png", Content: src})
	require.NoError(t, err)
	assert.Less(t, len(first.Content), len(src))

	_, err = png.Decode(bytes.NewReader(first.Content))
	require.NoError(t, err)

	second, err := stage.Apply(t.Context(), &domain.Asset{Name: "icons/dot.png", Content: src})
	require.NoError(t, err)
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.hits)
}

func TestImagemin_ExternalToolCalledOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	tools := mocks.NewMockToolRunner(ctrl)
	store := cas.NewStore(t.TempDir())
	stage := stages.NewImagemin(store, fs.NewHasher(), tools, &cacheCounter{})

	src := []byte("jpeg-bytes-before-optimization")
	tools.EXPECT().Available("jpegtran").Return(true).Times(2)
	tools.EXPECT().
		Run(gomock.Any(), "jpegtran", gomock.Any(), src).
		Return([]byte("jpeg-small"), nil).
		Times(1)

	for range 2 {
		out, err := stage.Apply(t.Context(), &domain.Asset{Name: "photo.JPG", Content: src})
		require.NoError(t, err)
		assert.Equal(t, "jpeg-small", string(out.Content))
	}
}

func TestImagemin_Passthrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	tools := mocks.NewMockToolRunner(ctrl)
	cache := mocks.NewMockImageCache(ctrl)
	stage := stages.NewImagemin(cache, fs.NewHasher(), tools, &cacheCounter{})

	tools.EXPECT().Available("gifsicle").Return(false)

	for _, name := range []string{"anim.gif", "photo.webp"} {
		asset := &domain.Asset{Name: name, Content: []byte("raw")}
		out, err := stage.Apply(t.Context(), asset)
		require.NoError(t, err)
		assert.Equal(t, "raw", string(out.Content))
	}
}

func TestImagemin_ToolFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	tools := mocks.NewMockToolRunner(ctrl)
	cache := mocks.NewMockImageCache(ctrl)
	stage := stages.NewImagemin(cache, fs.NewHasher(), tools, &cacheCounter{})

	cache.EXPECT().GetOrCompute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, compute func(context.Context) ([]byte, error)) ([]byte, bool, error) {
			b, err := compute(ctx)
			return b, false, err
		})

	_, err := stage.Apply(t.Context(), &domain.Asset{Name: "broken.png", SourcePath: "src/img/broken.png", Content: []byte("not a png")})

	var toolErr *domain.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, stages.NameImagemin, toolErr.Stage)
	assert.Equal(t, "src/img/broken.png", toolErr.SourcePath)
}
