// Package task defines the contract between units of work and the graph
// runner. A task is a plain value: its identity is the structural identity of
// its fields (see the bundle package), its dependencies come from Requires,
// and its result lands in the target returned by Output.
package task

import (
	"context"

	"go.trai.ch/flow/target"
)

// Config is the open-ended set of named options forwarded verbatim from the
// scheduler entry point to every Run and Cleanup invocation. It is how callers
// inject executors, resource pools, credentials and the like without the
// runner knowing about them.
type Config map[string]any

// Task is a value-identified unit of work.
//
// Implementations must be JSON-encodable values: the runner deduplicates
// tasks by the identity of their encoded fields, so two tasks of the same
// type with equal fields collapse to a single node and a single execution.
type Task interface {
	// Requires returns the tasks whose outputs this task consumes, in the
	// order Run expects them as inputs.
	Requires() []Task

	// Output returns the target this task produces.
	Output() target.Target

	// Run produces the output. inputs holds the outputs of the required
	// tasks in Requires order; cfg is the forwarded configuration.
	Run(ctx context.Context, inputs []target.Target, cfg Config) error
}

// DoneChecker overrides the default done test. Tasks that do not implement it
// are done when their output exists.
type DoneChecker interface {
	Done() (bool, error)
}

// Cleaner is a task whose output can be released once every task depending on
// it has reached a terminal state. Cleanup runs at most once per task.
//
// Note that a root task with no dependents has its cleanup invoked right
// after its own completion, deleting the very output the caller asked for.
// Cleanup is opt-in per task; do not implement Cleaner on tasks whose output
// must outlive the run.
type Cleaner interface {
	Task

	// Cleanup releases the task's output. cfg is the forwarded configuration.
	Cleanup(ctx context.Context, cfg Config) error
}

// Done reports whether a task needs no work: the task's own Done when it
// implements DoneChecker, the existence of its output otherwise.
func Done(t Task) (bool, error) {
	if dc, ok := t.(DoneChecker); ok {
		return dc.Done()
	}
	return t.Output().Exists()
}
