// Package sched drives a task DAG to completion. It gates each node on its
// dependencies, runs everything dependency-eligible concurrently, propagates
// failures to transitive dependents, and releases intermediate outputs once
// no pending dependent needs them.
package sched

import (
	"context"
	"log/slog"

	"go.trai.ch/flow/bundle"
	"go.trai.ch/flow/graph"
	"go.trai.ch/flow/target"
	"go.trai.ch/flow/task"
	"go.trai.ch/zerr"
)

// ErrStalled is returned when the loop runs out of work while nodes are
// still non-terminal. It indicates a scheduler bug, not a task failure.
var ErrStalled = zerr.New("scheduler stalled with non-terminal nodes")

// Scheduler executes task DAGs.
type Scheduler struct {
	logger   *slog.Logger
	reporter Reporter
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for per-task progress and the run summary.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(s *Scheduler) { s.reporter = r }
}

// New creates a Scheduler. By default it logs nowhere and reports nowhere.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:   slog.New(slog.DiscardHandler),
		reporter: nopReporter{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives every node of the DAG to a terminal status and reports the
// outcome per task. cfg is forwarded verbatim to every Run and Cleanup
// invocation. Task failures land in the report, never in the returned error;
// the error is non-nil only for cancellation or an internal invariant
// violation. A DAG is consumed by Run and must not be executed twice.
//
// There is no scheduler-imposed concurrency limit. Throttling belongs to the
// caller's executor or a resource pool travelling through cfg.
func (s *Scheduler) Run(ctx context.Context, d *graph.DAG, cfg task.Config) (*Report, error) {
	state := s.newRunState(ctx, d, cfg)
	state.runLoop()

	report := state.report()
	s.logSummary(report)

	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	for n := range d.Walk() {
		if !n.Status.Terminal() {
			return report, zerr.With(ErrStalled, "task", n.Key.String())
		}
	}
	return report, nil
}

type result struct {
	node    *graph.Node
	cleanup bool
	err     error
}

type runState struct {
	s   *Scheduler
	ctx context.Context
	cfg task.Config
	d   *graph.DAG

	waiting     map[*graph.Node]int // dependencies not yet terminal-ok
	outstanding map[*graph.Node]int // dependents not yet terminal
	ready       []*graph.Node
	active      int
	cleaned     map[*graph.Node]bool
	failures    map[*graph.Node]error
	cleanupErrs map[*graph.Node]error
	resultsCh   chan result
}

func (s *Scheduler) newRunState(ctx context.Context, d *graph.DAG, cfg task.Config) *runState {
	state := &runState{
		s:           s,
		ctx:         ctx,
		cfg:         cfg,
		d:           d,
		waiting:     make(map[*graph.Node]int, d.Len()),
		outstanding: make(map[*graph.Node]int, d.Len()),
		cleaned:     make(map[*graph.Node]bool),
		failures:    make(map[*graph.Node]error),
		cleanupErrs: make(map[*graph.Node]error),
		resultsCh:   make(chan result, d.Len()),
	}

	for n := range d.Walk() {
		state.waiting[n] = len(n.Deps)
		state.outstanding[n] = len(n.Dependents)
		if len(n.Deps) == 0 {
			state.ready = append(state.ready, n)
		}
	}
	return state
}

// runLoop is the single coordinating loop. All status and counter mutation
// happens here, between channel receives; worker goroutines only run task
// bodies and report back.
func (state *runState) runLoop() {
	for !state.isDone() {
		if state.ctx.Err() != nil {
			// Cancelled: launch nothing new, drain in-flight work.
			if state.active == 0 {
				return
			}
			state.handleResult(<-state.resultsCh)
			continue
		}

		state.schedule()
		if state.isDone() {
			return
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		}
	}
}

func (state *runState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.ctx.Err() == nil {
		n := state.ready[0]
		state.ready = state.ready[1:]

		if n.Status == graph.StatusDoneAlready {
			// No work to do; terminal for propagation purposes.
			state.s.logger.Info("task already done", "task", n.Key.String())
			state.s.reporter.TaskFinished(n, nil)
			state.onTerminal(n)
			continue
		}

		n.Status = graph.StatusRunning
		state.s.logger.Info("task started", "task", n.Key.String())
		state.s.reporter.TaskStarted(n)

		state.active++
		go state.execute(n)
	}
}

// execute runs one node's body off the loop and reports back.
func (state *runState) execute(n *graph.Node) {
	inputs := make([]target.Target, len(n.Deps))
	for i, dep := range n.Deps {
		inputs[i] = dep.Task.Output()
	}

	err := n.Task.Run(state.ctx, inputs, state.cfg)
	state.resultsCh <- result{node: n, err: err}
}

func (state *runState) executeCleanup(n *graph.Node, cleaner task.Cleaner) {
	err := cleaner.Cleanup(state.ctx, state.cfg)
	state.resultsCh <- result{node: n, cleanup: true, err: err}
}

func (state *runState) handleResult(res result) {
	state.active--

	if res.cleanup {
		state.finishCleanup(res.node, res.err)
		return
	}

	if res.err != nil {
		state.fail(res.node, res.err)
		return
	}

	res.node.Status = graph.StatusSucceeded
	state.s.logger.Info("task succeeded", "task", res.node.Key.String())
	state.s.reporter.TaskFinished(res.node, nil)
	state.onTerminal(res.node)
}

// fail marks the node Failed and every transitive dependent Skipped. None of
// the skipped nodes ever has Run invoked.
func (state *runState) fail(n *graph.Node, runErr error) {
	failure := &TaskFailure{Key: n.Key, Err: runErr}
	n.Status = graph.StatusFailed
	state.failures[n] = failure
	state.s.logger.Error("task failed", "task", n.Key.String(), "error", runErr)
	state.s.reporter.TaskFinished(n, failure)
	state.onTerminal(n)

	state.skipDependents(n, failure)
}

func (state *runState) skipDependents(n *graph.Node, cause *TaskFailure) {
	for _, dep := range n.Dependents {
		if dep.Status.Terminal() {
			continue
		}
		dep.Status = graph.StatusSkipped
		failure := &DependencyFailure{Key: dep.Key, Cause: cause}
		state.failures[dep] = failure
		state.s.logger.Warn("task skipped", "task", dep.Key.String(), "cause", cause.Key.String())
		state.s.reporter.TaskFinished(dep, failure)
		state.onTerminal(dep)

		state.skipDependents(dep, cause)
	}
}

// onTerminal performs the bookkeeping due when a node reaches any terminal
// status: readying dependents when the output is available, and decrementing
// outstanding-dependent counters toward cleanup.
func (state *runState) onTerminal(n *graph.Node) {
	if n.Status.Ok() {
		for _, dep := range n.Dependents {
			state.waiting[dep]--
			if state.waiting[dep] == 0 {
				state.ready = append(state.ready, dep)
			}
		}
	}

	for _, dep := range n.Deps {
		state.outstanding[dep]--
		state.maybeCleanup(dep)
	}
	state.maybeCleanup(n)
}

// maybeCleanup dispatches a node's cleanup exactly once, as soon as the node
// is terminal and no dependent is still pending. This deliberately includes
// zero-dependent roots, whose cleanup fires right after their own completion;
// see task.Cleaner.
func (state *runState) maybeCleanup(n *graph.Node) {
	if state.cleaned[n] || state.outstanding[n] != 0 || !n.Status.Terminal() {
		return
	}
	state.cleaned[n] = true

	cleaner, ok := n.Task.(task.Cleaner)
	if !ok {
		return
	}
	if !n.Status.Ok() {
		// Nothing was produced, nothing to release.
		state.s.logger.Warn("cleanup skipped", "task", n.Key.String())
		return
	}
	if state.ctx.Err() != nil {
		// Cancelled runs make no cleanup guarantee.
		state.s.logger.Warn("cleanup skipped", "task", n.Key.String(), "error", state.ctx.Err())
		return
	}

	state.s.logger.Info("cleanup started", "task", n.Key.String())
	state.active++
	go state.executeCleanup(n, cleaner)
}

func (state *runState) finishCleanup(n *graph.Node, err error) {
	if err != nil {
		failure := &CleanupFailure{Key: n.Key, Err: err}
		state.cleanupErrs[n] = failure
		state.s.logger.Error("cleanup failed", "task", n.Key.String(), "error", err)
		state.s.reporter.CleanupFinished(n, failure)
		return
	}
	state.s.logger.Info("cleanup done", "task", n.Key.String())
	state.s.reporter.CleanupFinished(n, nil)
}

func (state *runState) report() *Report {
	r := &Report{outcomes: make(map[bundle.Key]*Outcome, state.d.Len())}
	for n := range state.d.Walk() {
		o := &Outcome{
			Task:       n.Task,
			Status:     n.Status,
			Err:        state.failures[n],
			CleanupErr: state.cleanupErrs[n],
		}
		if o.Status == graph.StatusRunning {
			// Cancelled mid-flight; the task never reached a terminal
			// status and is reported as not completed.
			o.Status = graph.StatusPending
		}
		r.outcomes[n.Key] = o
		r.order = append(r.order, o)
	}
	return r
}

func (s *Scheduler) logSummary(r *Report) {
	c := r.Counts()
	s.logger.Info("run finished",
		"already_done", c.DoneAlready,
		"succeeded", c.Succeeded,
		"failed", c.Failed,
		"skipped", c.Skipped,
		"not_started", c.Pending,
		"cleanup_failures", c.CleanupsFailed,
	)
}
