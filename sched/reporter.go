package sched

import "go.trai.ch/flow/graph"

// Reporter observes scheduler progress. Implementations must be safe for
// calls from the scheduling loop only; the scheduler never calls a Reporter
// from more than one goroutine.
//
//go:generate go run go.uber.org/mock/mockgen -source=reporter.go -destination=mocks/mock_reporter.go -package=mocks
type Reporter interface {
	// TaskStarted is called when a node's Run is dispatched.
	TaskStarted(n *graph.Node)

	// TaskFinished is called when a node reaches a terminal status. err is
	// nil for Succeeded and DoneAlready nodes, a *TaskFailure for Failed
	// nodes and a *DependencyFailure for Skipped ones.
	TaskFinished(n *graph.Node, err error)

	// CleanupFinished is called when a node's Cleanup returns. err is a
	// *CleanupFailure when the cleanup failed.
	CleanupFinished(n *graph.Node, err error)
}

type nopReporter struct{}

func (nopReporter) TaskStarted(*graph.Node)            {}
func (nopReporter) TaskFinished(*graph.Node, error)    {}
func (nopReporter) CleanupFinished(*graph.Node, error) {}
