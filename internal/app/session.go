package app

import (
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/press/internal/adapters/cas"
	"go.trai.ch/press/internal/adapters/critical"
	"go.trai.ch/press/internal/adapters/notify"
	"go.trai.ch/press/internal/adapters/stages"
	"go.trai.ch/press/internal/adapters/swprecache"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/engine/pipeline"
)

// session holds everything one invocation builds from the loaded configuration.
type session struct {
	app      *App
	registry *domain.Registry
	opts     domain.Options
	engines  []api.Engine

	store     *cas.Store
	hub       *notify.Hub
	extractor ports.CriticalExtractor
	manifest  *domain.BustManifest
	sw        *swprecache.Generator

	dev  map[domain.AssetClass]*pipeline.Pipeline
	prod map[domain.AssetClass]*pipeline.Pipeline

	closers []func() error
}

func (a *App) newSession(cfg *domain.Config, tracer ports.Tracer, desktop bool) (*session, error) {
	engines, err := stages.ParseTargets(cfg.Options.Targets)
	if err != nil {
		return nil, err
	}

	s := &session{
		app:      a,
		registry: cfg.Registry,
		opts:     cfg.Options,
		engines:  engines,
		store:    cas.NewStore(filepath.Join(cfg.Registry.Root(), domain.DefaultImageCachePath())),
		hub:      notify.NewHub(a.deps.Metrics),
		manifest: domain.NewBustManifest(),
		sw:       swprecache.NewGenerator(a.deps.Resolver, a.deps.Hasher, a.deps.Writer),
	}
	s.extractor = s.newExtractor()

	devNotifier := notify.Multi{notify.NewLog(a.deps.Logger), s.hub}
	if desktop {
		devNotifier = append(devNotifier, notify.NewDesktop(a.deps.Logger))
	}
	base := pipeline.Deps{
		Registry: cfg.Registry,
		Resolver: a.deps.Resolver,
		Writer:   a.deps.Writer,
		Tracer:   tracer,
		Metrics:  a.deps.Metrics,
	}

	s.dev = make(map[domain.AssetClass]*pipeline.Pipeline, len(domain.AllClasses))
	s.prod = make(map[domain.AssetClass]*pipeline.Pipeline, len(domain.AllClasses))
	for _, class := range domain.AllClasses {
		devStages, err := s.pipelineStages(class, domain.ModeDevelopment)
		if err != nil {
			return nil, err
		}
		prodStages, err := s.pipelineStages(class, domain.ModeProduction)
		if err != nil {
			return nil, err
		}

		devDeps := base
		devDeps.Notifier = devNotifier
		s.dev[class] = pipeline.New(class, domain.ModeDevelopment, devStages, devDeps)

		prodDeps := base
		prodDeps.Notifier = notify.NewLog(a.deps.Logger)
		s.prod[class] = pipeline.New(class, domain.ModeProduction, prodStages, prodDeps)
	}
	return s, nil
}

// newExtractor picks the headless browser when it is enabled and installed,
// and static selector matching otherwise.
func (s *session) newExtractor() ports.CriticalExtractor {
	c := s.opts.Critical
	if !c.Browser {
		return critical.NewStatic()
	}
	if !critical.Available() {
		s.app.deps.Logger.Warn("critical.browser is set but no Chromium was found, using static extraction")
		return critical.NewStatic()
	}
	b := critical.NewBrowser(c.Width, c.Height)
	s.closers = append(s.closers, b.Close)
	return b
}

func (s *session) close() {
	s.hub.Shutdown()
	for _, c := range s.closers {
		if err := c(); err != nil {
			s.app.deps.Logger.Warn(err.Error())
		}
	}
}
