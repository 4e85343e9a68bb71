// Package pipeline composes transform stages into the build of one asset class.
package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Deps holds the collaborators shared by every pipeline.
type Deps struct {
	Registry *domain.Registry
	Resolver ports.SourceResolver
	Writer   ports.OutputWriter
	Notifier ports.Notifier
	Tracer   ports.Tracer
	Metrics  ports.Metrics
}

// Pipeline runs the stages of one asset class and build mode over every
// source file of the class and writes the results.
type Pipeline struct {
	class  domain.AssetClass
	mode   domain.BuildMode
	stages []ports.Stage
	deps   Deps
}

// New creates a Pipeline.
func New(class domain.AssetClass, mode domain.BuildMode, stages []ports.Stage, deps Deps) *Pipeline {
	return &Pipeline{class: class, mode: mode, stages: stages, deps: deps}
}

// Name returns the task name of the pipeline, e.g. "prod:scss".
func (p *Pipeline) Name() string {
	return p.mode.String() + ":" + p.class.String()
}

// Class returns the asset class built by the pipeline.
func (p *Pipeline) Class() domain.AssetClass {
	return p.class
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run transforms every source file and then writes all outputs. The first
// failing file aborts the run before anything is written. Failures are
// reported to the notifier and returned; a cancelled run is not reported.
func (p *Pipeline) Run(ctx context.Context) ([]domain.WrittenFile, error) {
	start := time.Now()
	written, err := p.run(ctx)
	p.deps.Metrics.ObservePipeline(p.class.String(), p.mode.String(), time.Since(start), err)

	if err != nil {
		if ctx.Err() == nil || !errors.Is(err, ctx.Err()) {
			p.notifyError(err)
		}
		return nil, err
	}

	if p.mode == domain.ModeDevelopment && anyChanged(written) {
		p.deps.Notifier.NotifyReload()
	}
	return written, nil
}

func (p *Pipeline) run(ctx context.Context) ([]domain.WrittenFile, error) {
	spec, err := p.deps.Registry.Resolve(p.class)
	if err != nil {
		return nil, err
	}

	sources, err := p.deps.Resolver.Resolve(p.deps.Registry.Root(), spec.Source)
	if err != nil {
		return nil, err
	}

	// Files are independent; the first failure cancels the others.
	outputs := make([]*domain.Asset, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, src := range sources {
		g.Go(func() error {
			asset, err := p.transform(gctx, src)
			outputs[i] = asset
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// A superseded run must not write.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dest := p.deps.Registry.Abs(spec.Dest)
	written := make([]domain.WrittenFile, 0, len(outputs))
	for _, asset := range outputs {
		files := append([]domain.Asset{*asset}, asset.Companions...)
		for _, f := range files {
			target := filepath.Join(dest, filepath.FromSlash(f.Name))
			changed, err := p.deps.Writer.Write(ctx, target, f.Content)
			if err != nil {
				return written, err
			}
			written = append(written, domain.WrittenFile{Path: target, Changed: changed})
		}
	}
	return written, nil
}

// transform reads one source file and runs it through every stage.
// A failing stage stops the sequence.
func (p *Pipeline) transform(ctx context.Context, src domain.SourceFile) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// #nosec G304 -- src comes from the validated registry globs
	content, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrReadFailed.Error()), "path", src.Path)
	}

	asset := &domain.Asset{Name: src.Name, SourcePath: src.Path, Content: content}
	for _, stage := range p.stages {
		asset, err = p.apply(ctx, stage, asset)
		if err != nil {
			return nil, err
		}
	}
	return asset, nil
}

func (p *Pipeline) apply(ctx context.Context, stage ports.Stage, asset *domain.Asset) (*domain.Asset, error) {
	ctx, span := p.deps.Tracer.Start(ctx, stage.Name())
	defer span.End()
	span.SetAttribute("press.file", asset.Name)

	start := time.Now()
	out, err := stage.Apply(ctx, asset)
	p.deps.Metrics.ObserveStage(stage.Name(), time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

// notifyError reports err under a title naming the class and stage, e.g. "SCSS sass".
func (p *Pipeline) notifyError(err error) {
	stage := "io"
	var toolErr *domain.ToolError
	if errors.As(err, &toolErr) {
		stage = toolErr.Stage
	}
	p.deps.Notifier.NotifyError(strings.ToUpper(p.class.String())+" "+stage, err.Error())
}

func anyChanged(files []domain.WrittenFile) bool {
	for _, f := range files {
		if f.Changed {
			return true
		}
	}
	return false
}
