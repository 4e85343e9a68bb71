package app

import (
	"context"
	"errors"
	"net"
	"os"
	"slices"
	"strconv"

	"go.trai.ch/press/internal/adapters/notify"
	"go.trai.ch/press/internal/adapters/server"
	"go.trai.ch/press/internal/adapters/swprecache"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/engine/pipeline"
	"go.trai.ch/press/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// Task names besides the per-class pipelines, which are named "<mode>:<class>".
const (
	TaskClean      = "clean"
	TaskCleanDist  = "clean:dist"
	TaskCleanCache = "clean:cache"
	TaskDevServe   = "dev:serve"
	TaskDevWatch   = "dev:watch"
	TaskBuildDev   = "build:dev"
	TaskProdSW     = "prod:sw"
	TaskBuildProd  = "build:prod"
)

// register adds the whole task graph to sched.
func (s *session) register(sched *scheduler.Scheduler) error {
	tasks := []domain.Task{
		{Name: TaskCleanDist, Action: s.cleanDist},
		{Name: TaskCleanCache, Action: s.cleanCache},
		{Name: TaskClean, Dependencies: []string{TaskCleanDist, TaskCleanCache}},
	}

	devTasks := make([]string, 0, len(domain.AllClasses))
	for _, class := range domain.AllClasses {
		p := s.dev[class]
		devTasks = append(devTasks, p.Name())
		tasks = append(tasks, domain.Task{
			Name:         p.Name(),
			Dependencies: []string{TaskClean},
			Action:       devAction(p),
		})
	}
	tasks = append(tasks,
		domain.Task{Name: TaskDevServe, Dependencies: devTasks, Action: s.serve},
		domain.Task{Name: TaskDevWatch, Dependencies: devTasks, Action: s.watch},
		domain.Task{
			Name:         TaskBuildDev,
			Dependencies: slices.Concat([]string{TaskClean}, devTasks, []string{TaskDevServe, TaskDevWatch}),
		},
	)

	prodTasks := make([]string, 0, len(domain.AllClasses))
	for _, class := range domain.AllClasses {
		p := s.prod[class]
		prodTasks = append(prodTasks, p.Name())

		var deps []string
		if class == domain.ClassHTML {
			// Critical CSS and reference rewriting read the built stylesheet.
			deps = []string{s.prod[domain.ClassSCSS].Name()}
		}
		tasks = append(tasks, domain.Task{
			Name:         p.Name(),
			Dependencies: deps,
			Action: func(ctx context.Context) error {
				_, err := p.Run(ctx)
				return err
			},
		})
	}
	tasks = append(tasks,
		domain.Task{Name: TaskProdSW, Dependencies: prodTasks, Action: s.serviceWorker},
		domain.Task{Name: TaskBuildProd, Dependencies: append(prodTasks, TaskProdSW)},
	)

	for _, t := range tasks {
		if err := sched.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// devAction runs a development pipeline. Tool errors have already reached
// the notifier and must not keep the dev server from starting.
func devAction(p *pipeline.Pipeline) domain.Action {
	return func(ctx context.Context) error {
		_, err := p.Run(ctx)
		var toolErr *domain.ToolError
		if errors.As(err, &toolErr) {
			return nil
		}
		return err
	}
}

func (s *session) cleanDist(_ context.Context) error {
	dist := s.registry.DistPath()
	if err := os.RemoveAll(dist); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", dist)
	}
	s.app.deps.Logger.Info("removed " + dist)
	return nil
}

func (s *session) cleanCache(_ context.Context) error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.app.deps.Logger.Info("removed " + s.store.Dir())
	return nil
}

func (s *session) serviceWorker(ctx context.Context) error {
	globs, err := swprecache.Globs(s.registry, s.manifest.Entries())
	if err != nil {
		return err
	}
	_, err = s.sw.Generate(ctx, s.registry.DistPath(), globs)
	return err
}

// serve runs the dev server until ctx is done.
func (s *session) serve(ctx context.Context) error {
	srv := s.app.deps.NewServer(server.Options{
		Addr:       net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port)),
		Dist:       s.registry.DistPath(),
		LiveReload: s.hub,
		Script:     notify.Script,
		Metrics:    s.app.deps.Metrics.Handler(),
	})
	return srv.ListenAndServe(ctx)
}
