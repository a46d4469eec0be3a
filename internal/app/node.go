package app

import (
	"context"
	"log/slog"

	"github.com/grindlemire/graft"

	"go.trai.ch/flow/internal/adapters/config" //nolint:depguard // Wired in app layer
	"go.trai.ch/flow/internal/adapters/logger" //nolint:depguard // Wired in app layer
	"go.trai.ch/flow/sched"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[*config.Loader](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[*slog.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, sched.New(sched.WithLogger(log)), log), nil
		},
	})

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

			log, err := graft.Dep[*slog.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

// Components contains the initialized application components needed by the
// CLI layer.
type Components struct {
	App    *App
	Logger *slog.Logger
}
