package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/press/internal/adapters/config"     //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/fs"         //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/linear"     //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/logger"     //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/metrics"    //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/server"     //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/toolrunner" //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/adapters/watcher"    //nolint:depguard // Wired in app layer
	"go.trai.ch/press/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			fs.HasherNodeID,
			fs.ResolverNodeID,
			fs.WriterNodeID,
			toolrunner.NodeID,
			watcher.NodeID,
			metrics.NodeID,
			linear.NodeID,
			server.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewComponents(app, log), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	var (
		deps Deps
		err  error
	)

	if deps.ConfigLoader, err = graft.Dep[ports.ConfigLoader](ctx); err != nil {
		return nil, err
	}
	if deps.Logger, err = graft.Dep[ports.Logger](ctx); err != nil {
		return nil, err
	}
	if deps.Hasher, err = graft.Dep[ports.Hasher](ctx); err != nil {
		return nil, err
	}
	if deps.Resolver, err = graft.Dep[ports.SourceResolver](ctx); err != nil {
		return nil, err
	}
	if deps.Writer, err = graft.Dep[ports.OutputWriter](ctx); err != nil {
		return nil, err
	}
	if deps.Tools, err = graft.Dep[ports.ToolRunner](ctx); err != nil {
		return nil, err
	}
	if deps.Watcher, err = graft.Dep[ports.Watcher](ctx); err != nil {
		return nil, err
	}
	if deps.Metrics, err = graft.Dep[*metrics.Recorder](ctx); err != nil {
		return nil, err
	}
	renderer, err := graft.Dep[*linear.Renderer](ctx)
	if err != nil {
		return nil, err
	}
	deps.Renderer = renderer
	if deps.NewServer, err = graft.Dep[server.Factory](ctx); err != nil {
		return nil, err
	}

	return New(deps), nil
}
