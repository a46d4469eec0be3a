// Package shell provides a task kind that runs a shell command and produces
// a local file target.
package shell

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"go.trai.ch/zerr"

	"go.trai.ch/flow/bundle"
	"go.trai.ch/flow/target"
	"go.trai.ch/flow/task"
)

func init() {
	bundle.Register[*Command]("shell.Command")
}

// Command runs an argv and optionally declares the file it produces. Its
// identity is the name, argv, target and environment; resolved dependencies
// stay out of identity since they are derived from the pipeline definition.
type Command struct {
	Name       string            `json:"name"`
	Argv       []string          `json:"argv"`
	TargetFile string            `json:"target,omitempty"`
	Force      bool              `json:"force,omitempty"`
	Env        map[string]string `json:"env,omitempty"`

	DependsOn []task.Task `json:"-"`
}

// Requires returns the resolved dependency tasks.
func (c *Command) Requires() []task.Task { return c.DependsOn }

// Output returns the declared file target, or no target for commands run
// purely for effect.
func (c *Command) Output() target.Target {
	if c.TargetFile == "" {
		return target.None{}
	}
	return &target.Local{File: c.TargetFile, Force: c.Force}
}

// Run executes the argv. The command inherits the process environment with
// the task's entries layered on top; stdout and stderr stream line by line
// into the forwarded logger.
func (c *Command) Run(ctx context.Context, _ []target.Target, cfg task.Config) error {
	if len(c.Argv) == 0 {
		return nil
	}

	logger := loggerFrom(cfg).With("task", c.Name)

	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...) //nolint:gosec // user provided command
	cmd.Env = mergeEnv(os.Environ(), c.Env)
	cmd.Stdout = &logWriter{logger: logger, level: slog.LevelInfo}
	cmd.Stderr = &logWriter{logger: logger, level: slog.LevelWarn}

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
	}
	return nil
}

// loggerFrom pulls the logger out of the forwarded configuration, falling
// back to the default logger.
func loggerFrom(cfg task.Config) *slog.Logger {
	if l, ok := cfg["logger"].(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

type logWriter struct {
	logger *slog.Logger
	level  slog.Level
}

func (w *logWriter) Write(p []byte) (int, error) {
	for line := range strings.Lines(strings.TrimSuffix(string(p), "\n")) {
		w.logger.Log(context.Background(), w.level, strings.TrimSuffix(line, "\n"))
	}
	return len(p), nil
}

func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}

	merged := make([]string, 0, len(base)+len(overrides))
	for _, entry := range base {
		k, _, ok := strings.Cut(entry, "=")
		if ok {
			if _, overridden := overrides[k]; overridden {
				continue
			}
		}
		merged = append(merged, entry)
	}
	for k, v := range overrides {
		merged = append(merged, k+"="+v)
	}
	return merged
}
