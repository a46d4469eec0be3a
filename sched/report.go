package sched

import (
	"errors"
	"iter"

	"go.trai.ch/flow/bundle"
	"go.trai.ch/flow/graph"
	"go.trai.ch/flow/task"
)

// Outcome is the terminal record of one node.
type Outcome struct {
	// Task is the task value the node stood for.
	Task task.Task

	// Status is the node's final status. Pending means the run was
	// cancelled before the node ever started.
	Status graph.Status

	// Err is the failure cause: a *TaskFailure for Failed nodes, a
	// *DependencyFailure for Skipped nodes, nil otherwise.
	Err error

	// CleanupErr is the *CleanupFailure recorded if the node's cleanup
	// returned an error.
	CleanupErr error
}

// Counts tallies outcomes by kind.
type Counts struct {
	DoneAlready    int
	Succeeded      int
	Failed         int
	Skipped        int
	Pending        int
	CleanupsFailed int
}

// Report enumerates the outcome of every node of a run.
type Report struct {
	outcomes map[bundle.Key]*Outcome
	order    []*Outcome
}

// Outcome returns the outcome recorded for the given task value.
func (r *Report) Outcome(t task.Task) (*Outcome, bool) {
	key, err := bundle.KeyOf(t)
	if err != nil {
		return nil, false
	}
	o, ok := r.outcomes[key]
	return o, ok
}

// All returns an iterator over outcomes in the DAG's topological order.
func (r *Report) All() iter.Seq[*Outcome] {
	return func(yield func(*Outcome) bool) {
		for _, o := range r.order {
			if !yield(o) {
				return
			}
		}
	}
}

// Counts tallies the report.
func (r *Report) Counts() Counts {
	var c Counts
	for _, o := range r.order {
		switch o.Status {
		case graph.StatusDoneAlready:
			c.DoneAlready++
		case graph.StatusSucceeded:
			c.Succeeded++
		case graph.StatusFailed:
			c.Failed++
		case graph.StatusSkipped:
			c.Skipped++
		default:
			c.Pending++
		}
		if o.CleanupErr != nil {
			c.CleanupsFailed++
		}
	}
	return c
}

// OK reports whether every node succeeded or was already done, with no
// cleanup failures.
func (r *Report) OK() bool {
	for _, o := range r.order {
		if !o.Status.Ok() || o.CleanupErr != nil {
			return false
		}
	}
	return true
}

// Err joins every recorded task and cleanup failure into one error, nil when
// the run was clean.
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.order {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
		if o.CleanupErr != nil {
			errs = append(errs, o.CleanupErr)
		}
	}
	return errors.Join(errs...)
}
