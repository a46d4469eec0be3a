// Package config loads pipeline definitions from YAML.
package config

import (
	"os"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"go.trai.ch/flow/internal/adapters/shell"
	"go.trai.ch/flow/task"
)

var (
	// ErrMissingDependency is returned when a task depends on a name that
	// is not defined in the pipeline.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrUnknownTask is returned when asking for a task name the pipeline
	// does not define.
	ErrUnknownTask = zerr.New("unknown task")
)

// Pipeline represents the structure of the flow.yaml configuration file.
type Pipeline struct {
	Version string             `yaml:"version"`
	Tasks   map[string]TaskDTO `yaml:"tasks"`
}

// TaskDTO represents one task definition in the configuration.
type TaskDTO struct {
	Cmd       []string          `yaml:"cmd"`
	Target    string            `yaml:"target"`
	Force     bool              `yaml:"force"`
	DependsOn []string          `yaml:"dependsOn"`
	Env       map[string]string `yaml:"env"`
}

// Loader reads pipeline files into shell command tasks.
type Loader struct{}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the pipeline file and resolves every task's dependencies,
// returning the tasks by name. Dependency cycles are left for the graph
// builder to reject; only dangling names fail here.
func (l *Loader) Load(path string) (map[string]*shell.Command, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read pipeline file")
	}

	var pipeline Pipeline
	if err := yaml.Unmarshal(data, &pipeline); err != nil {
		return nil, zerr.Wrap(err, "failed to parse pipeline file")
	}

	tasks := make(map[string]*shell.Command, len(pipeline.Tasks))
	for name, dto := range pipeline.Tasks {
		tasks[name] = &shell.Command{
			Name:       name,
			Argv:       dto.Cmd,
			TargetFile: dto.Target,
			Force:      dto.Force,
			Env:        dto.Env,
		}
	}

	for name, dto := range pipeline.Tasks {
		for _, dep := range dto.DependsOn {
			depTask, ok := tasks[dep]
			if !ok {
				return nil, zerr.With(zerr.With(ErrMissingDependency, "task", name), "dependency", dep)
			}
			tasks[name].DependsOn = append(tasks[name].DependsOn, depTask)
		}
	}

	return tasks, nil
}

// Select returns the named tasks out of a loaded pipeline.
func Select(tasks map[string]*shell.Command, names []string) ([]task.Task, error) {
	selected := make([]task.Task, 0, len(names))
	for _, name := range names {
		t, ok := tasks[name]
		if !ok {
			return nil, zerr.With(ErrUnknownTask, "task", name)
		}
		selected = append(selected, t)
	}
	return selected, nil
}
