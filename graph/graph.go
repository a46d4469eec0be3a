// Package graph discovers the task DAG reachable from a set of root tasks.
// Tasks are deduplicated by value identity, subtrees whose root is already
// done are pruned without expansion, and construction fails on cycles.
package graph

import (
	"iter"

	"go.trai.ch/flow/bundle"
	"go.trai.ch/flow/task"
)

// Status is the lifecycle state of a node. It is set by the builder
// (Pending or DoneAlready) and afterwards mutated only by the scheduler.
type Status string

const (
	// StatusPending indicates the node is waiting to be executed.
	StatusPending Status = "Pending"
	// StatusDoneAlready indicates the node's output existed at discovery
	// time; it is never executed and its requirements were never expanded.
	StatusDoneAlready Status = "DoneAlready"
	// StatusRunning indicates the node is currently executing.
	StatusRunning Status = "Running"
	// StatusSucceeded indicates the node's run finished successfully.
	StatusSucceeded Status = "Succeeded"
	// StatusFailed indicates the node's run returned an error.
	StatusFailed Status = "Failed"
	// StatusSkipped indicates the node was never run because a transitive
	// dependency failed.
	StatusSkipped Status = "Skipped"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	switch s {
	case StatusDoneAlready, StatusSucceeded, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// Ok reports whether the status satisfies dependents: the node's output is
// available either because the run succeeded or because it already existed.
func (s Status) Ok() bool {
	return s == StatusSucceeded || s == StatusDoneAlready
}

// Node wraps one deduplicated task inside a DAG.
type Node struct {
	// Task is the task value this node stands for.
	Task task.Task

	// Key is the task's structural identity.
	Key bundle.Key

	// Status is the node's lifecycle state.
	Status Status

	// Deps are the dependency nodes in Requires order, first occurrence
	// per distinct task.
	Deps []*Node

	// Dependents are the nodes that consume this node's output.
	Dependents []*Node

	depSet map[*Node]struct{}
}

func (n *Node) addDep(dep *Node) {
	if _, ok := n.depSet[dep]; ok {
		return
	}
	if n.depSet == nil {
		n.depSet = make(map[*Node]struct{})
	}
	n.depSet[dep] = struct{}{}
	n.Deps = append(n.Deps, dep)
	dep.Dependents = append(dep.Dependents, n)
}

// DAG is the deduplicated, cycle-free dependency graph discovered from a set
// of root tasks, together with a topological ordering of its nodes.
type DAG struct {
	nodes map[bundle.Key]*Node
	order []*Node
	roots []*Node
}

// Len returns the number of nodes.
func (d *DAG) Len() int { return len(d.nodes) }

// Node returns the node representing the given task value, if any.
func (d *DAG) Node(t task.Task) (*Node, bool) {
	key, err := bundle.KeyOf(t)
	if err != nil {
		return nil, false
	}
	n, ok := d.nodes[key]
	return n, ok
}

// Roots returns the nodes for the tasks the DAG was built from.
func (d *DAG) Roots() []*Node { return d.roots }

// Walk returns an iterator over the nodes in topological order: every
// dependency is yielded before each of its dependents. Nodes with no
// dependency relationship have no defined relative order.
func (d *DAG) Walk() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, n := range d.order {
			if !yield(n) {
				return
			}
		}
	}
}
