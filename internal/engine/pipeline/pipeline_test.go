package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/adapters/fs"
	"go.trai.ch/press/internal/adapters/stages"
	"go.trai.ch/press/internal/adapters/telemetry"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/core/ports/mocks"
	"go.trai.ch/press/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

type nopMetrics struct{}

func (nopMetrics) ObservePipeline(string, string, time.Duration, error) {}
func (nopMetrics) ObserveStage(string, time.Duration, error)            {}
func (nopMetrics) IncImageCache(bool)                                   {}
func (nopMetrics) SetLiveReloadClients(int)                             {}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func newDeps(root string, notifier ports.Notifier) pipeline.Deps {
	return pipeline.Deps{
		Registry: domain.DefaultRegistry(root),
		Resolver: fs.NewResolver(),
		Writer:   fs.NewWriter(),
		Notifier: notifier,
		Tracer:   telemetry.NewNoOpTracer(),
		Metrics:  nopMetrics{},
	}
}

// marker is a stage appending its own name to the content.
type marker string

func (m marker) Name() string { return string(m) }

func (m marker) Apply(_ context.Context, a *domain.Asset) (*domain.Asset, error) {
	out := a.Clone()
	out.Content = append(out.Content, []byte(string(m))...)
	return out, nil
}

func TestPipeline_WritesOutputsAndReloadsOnChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	root := t.TempDir()
	writeFile(t, root, "src/fonts/inter.woff2", "font")
	writeFile(t, root, "src/fonts/sub/mono.woff2", "mono")

	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().NotifyReload().Times(1)

	p := pipeline.New(domain.ClassFonts, domain.ModeDevelopment, []ports.Stage{stages.Copy{}}, newDeps(root, notifier))
	assert.Equal(t, "dev:fonts", p.Name())
	assert.Equal(t, []string{"copy"}, p.Stages())

	written, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.True(t, written[0].Changed)

	data, err := os.ReadFile(filepath.Join(root, "dist", "fonts", "sub", "mono.woff2"))
	require.NoError(t, err)
	assert.Equal(t, "mono", string(data))

	// Identical sources leave the destination untouched and trigger no reload.
	written, err = p.Run(context.Background())
	require.NoError(t, err)
	for _, f := range written {
		assert.False(t, f.Changed, f.Path)
	}
}

func TestPipeline_StagesRunInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	root := t.TempDir()
	writeFile(t, root, "src/manifest.json", "{}")

	p := pipeline.New(domain.ClassManifest, domain.ModeProduction,
		[]ports.Stage{marker("a"), marker("b")}, newDeps(root, mocks.NewMockNotifier(ctrl)))

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "dist", "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}ab", string(data))
}

func TestPipeline_FailingStageShortCircuits(t *testing.T) {
	ctrl := gomock.NewController(t)
	root := t.TempDir()
	writeFile(t, root, "src/scss/styles.scss", "body{")

	failing := mocks.NewMockStage(ctrl)
	failing.EXPECT().Name().Return("sass").AnyTimes()
	failing.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(nil,
		domain.NewToolError("sass", "src/scss/styles.scss", errors.New("line 1, column 6: invalid CSS")))

	// Never applied.
	later := mocks.NewMockStage(ctrl)
	later.EXPECT().Name().Return("autoprefix").AnyTimes()

	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().NotifyError("SCSS sass", "sass: src/scss/styles.scss: line 1, column 6: invalid CSS")

	p := pipeline.New(domain.ClassSCSS, domain.ModeDevelopment, []ports.Stage{failing, later}, newDeps(root, notifier))
	_, err := p.Run(context.Background())

	var toolErr *domain.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "sass", toolErr.Stage)
	assert.NoDirExists(t, filepath.Join(root, "dist"))
}

func TestPipeline_FailingFileWritesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	root := t.TempDir()
	writeFile(t, root, "src/a.html", "<p>a</p>")
	writeFile(t, root, "src/b.html", "<p>b</p>")
	writeFile(t, root, "dist/scripts/common.min.js", "previous")

	stage := mocks.NewMockStage(ctrl)
	stage.EXPECT().Name().Return("include").AnyTimes()
	stage.EXPECT().Apply(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *domain.Asset) (*domain.Asset, error) {
			if a.Name == "b.html" {
				return nil, domain.NewToolError("include", a.SourcePath, errors.New("include cycle"))
			}
			return a, nil
		}).Times(2)

	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().NotifyError("HTML include", gomock.Any())

	p := pipeline.New(domain.ClassHTML, domain.ModeDevelopment, []ports.Stage{stage}, newDeps(root, notifier))
	_, err := p.Run(context.Background())
	require.Error(t, err)

	assert.NoFileExists(t, filepath.Join(root, "dist", "a.html"))
	data, err := os.ReadFile(filepath.Join(root, "dist", "scripts", "common.min.js"))
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestPipeline_CancelledRunIsSilent(t *testing.T) {
	ctrl := gomock.NewController(t)
	root := t.TempDir()
	writeFile(t, root, "src/manifest.json", "{}")

	ctx, cancel := context.WithCancel(context.Background())
	stage := mocks.NewMockStage(ctrl)
	stage.EXPECT().Name().Return("copy").AnyTimes()
	stage.EXPECT().Apply(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *domain.Asset) (*domain.Asset, error) {
			cancel()
			return a, nil
		})

	p := pipeline.New(domain.ClassManifest, domain.ModeDevelopment, []ports.Stage{stage},
		newDeps(root, mocks.NewMockNotifier(ctrl)))
	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(root, "dist", "manifest.json"))
}

func TestPipeline_NoSources(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := pipeline.New(domain.ClassImg, domain.ModeDevelopment, []ports.Stage{stages.Copy{}},
		newDeps(t.TempDir(), mocks.NewMockNotifier(ctrl)))

	written, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, written)
}
