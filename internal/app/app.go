// Package app implements the application layer for press.
package app

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"time"

	"go.trai.ch/press/internal/adapters/detector"
	"go.trai.ch/press/internal/adapters/metrics"
	"go.trai.ch/press/internal/adapters/server"
	"go.trai.ch/press/internal/adapters/telemetry"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// blockingTasks is the number of tasks of a development build that never
// return before shutdown: the dev server and the watcher.
const blockingTasks = 2

// Deps are the components an App is built from.
type Deps struct {
	ConfigLoader ports.ConfigLoader
	Logger       ports.Logger
	Hasher       ports.Hasher
	Resolver     ports.SourceResolver
	Writer       ports.OutputWriter
	Tools        ports.ToolRunner
	Watcher      ports.Watcher
	Metrics      *metrics.Recorder
	Renderer     ports.Renderer
	NewServer    server.Factory
}

// App represents the main application logic.
type App struct {
	deps Deps
	dir  string
	now  func() time.Time
}

// New creates a new App instance.
func New(deps Deps) *App {
	return &App{
		deps: deps,
		dir:  ".",
		now:  time.Now,
	}
}

// WithDir sets the directory press.yaml is looked up in.
func (a *App) WithDir(dir string) *App {
	a.dir = dir
	return a
}

// WithClock replaces the clock used by timestamp cache busting.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// Notify is the desktop notification mode: auto, on or off.
	Notify string
	// Parallelism caps concurrently running tasks. Zero means NumCPU.
	Parallelism int
}

func (o RunOptions) parallelism() int {
	if o.Parallelism > 0 {
		return o.Parallelism + blockingTasks
	}
	return runtime.NumCPU() + blockingTasks
}

// Run executes target and everything it depends on.
//
// A development build only ends when ctx is done; that is a clean exit.
func (a *App) Run(ctx context.Context, target string, opts RunOptions) error {
	// 1. Load the configuration
	cfg, err := a.deps.ConfigLoader.Load(a.dir)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	// 2. Initialize telemetry
	tp := telemetry.Setup(a.deps.Renderer)
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()
	tracer := telemetry.NewOTelTracer("press").WithRenderer(a.deps.Renderer)

	// 3. Build the pipelines and the task graph
	mode := detector.ResolveMode(detector.DetectEnvironment(), opts.Notify)
	s, err := a.newSession(cfg, tracer, mode == detector.ModeInteractive)
	if err != nil {
		return err
	}
	defer s.close()

	sched := scheduler.NewScheduler(tracer, opts.parallelism())
	if err := s.register(sched); err != nil {
		return err
	}

	// 4. Run the scheduler
	if err := sched.Run(ctx, target); err != nil {
		switch {
		case len(sched.Failed()) > 0:
			return errors.Join(domain.ErrBuildExecutionFailed, err)
		case ctx.Err() != nil && longLived(target):
			a.deps.Logger.Info("shutting down")
			return nil
		default:
			return err
		}
	}
	return nil
}

// Tasks lists the registered task names in registration order.
func (a *App) Tasks() ([]string, error) {
	cfg, err := a.deps.ConfigLoader.Load(a.dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	s, err := a.newSession(cfg, telemetry.NewNoOpTracer(), false)
	if err != nil {
		return nil, err
	}
	defer s.close()

	sched := scheduler.NewScheduler(telemetry.NewNoOpTracer(), 1)
	if err := s.register(sched); err != nil {
		return nil, err
	}
	var names []string
	for task := range sched.Graph().Walk() {
		names = append(names, task.Name)
	}
	return names, nil
}

func longLived(target string) bool {
	return slices.Contains([]string{TaskBuildDev, TaskDevServe, TaskDevWatch}, target)
}
