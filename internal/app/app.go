// Package app implements the application layer for the flow CLI.
package app

import (
	"context"
	"errors"
	"log/slog"

	"go.trai.ch/zerr"

	"go.trai.ch/flow/graph"
	"go.trai.ch/flow/internal/adapters/config"
	"go.trai.ch/flow/sched"
	"go.trai.ch/flow/task"
)

// ErrRunFailed is returned when the pipeline finished but one or more tasks
// failed or were skipped. The per-task causes were already logged.
var ErrRunFailed = zerr.New("pipeline run failed")

// App loads a pipeline, builds the task graph and runs it.
type App struct {
	loader    *config.Loader
	scheduler *sched.Scheduler
	logger    *slog.Logger
}

// New creates a new App instance.
func New(loader *config.Loader, scheduler *sched.Scheduler, logger *slog.Logger) *App {
	return &App{
		loader:    loader,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Run executes the named pipeline tasks and everything they require.
func (a *App) Run(ctx context.Context, configPath string, targetNames []string) error {
	tasks, err := a.loader.Load(configPath)
	if err != nil {
		return zerr.Wrap(err, "failed to load pipeline")
	}

	roots, err := config.Select(tasks, targetNames)
	if err != nil {
		return err
	}

	dag, err := graph.Build(roots...)
	if err != nil {
		return zerr.Wrap(err, "failed to build task graph")
	}

	report, err := a.scheduler.Run(ctx, dag, task.Config{"logger": a.logger})
	if err != nil {
		return zerr.Wrap(err, "pipeline execution aborted")
	}
	if !report.OK() {
		return errors.Join(ErrRunFailed, report.Err())
	}
	return nil
}
