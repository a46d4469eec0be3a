package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/flow/graph"
	"go.trai.ch/flow/target"
	"go.trai.ch/flow/task"
)

// job is a minimal task whose identity is its name. Dependencies and probes
// live in unexported fields so they stay out of identity.
type job struct {
	Name string `json:"name"`

	deps           []task.Task
	out            target.Target
	requiresCalled *bool
}

func (j *job) Requires() []task.Task {
	if j.requiresCalled != nil {
		*j.requiresCalled = true
	}
	return j.deps
}

func (j *job) Output() target.Target {
	if j.out != nil {
		return j.out
	}
	return target.None{}
}

func (j *job) Run(context.Context, []target.Target, task.Config) error { return nil }

// doneJob overrides the done probe.
type doneJob struct {
	job
	done bool
}

func (d *doneJob) Done() (bool, error) { return d.done, nil }

type brokenTarget struct{ err error }

func (b brokenTarget) Exists() (bool, error) { return false, b.err }

func orderIndex(t *testing.T, d *graph.DAG) map[string]int {
	t.Helper()
	idx := make(map[string]int)
	i := 0
	for n := range d.Walk() {
		switch v := n.Task.(type) {
		case *job:
			idx[v.Name] = i
		case *doneJob:
			idx[v.Name] = i
		default:
			t.Fatalf("unexpected task type %T", n.Task)
		}
		i++
	}
	return idx
}

func TestBuild_TopologicalOrder(t *testing.T) {
	// Diamond: d needs b and c, which both need a.
	a := &job{Name: "a"}
	b := &job{Name: "b", deps: []task.Task{a}}
	c := &job{Name: "c", deps: []task.Task{a}}
	d := &job{Name: "d", deps: []task.Task{b, c}}

	dag, err := graph.Build(d)
	require.NoError(t, err)
	require.Equal(t, 4, dag.Len())

	idx := orderIndex(t, dag)
	assert.Less(t, idx["a"], idx["b"])
	assert.Less(t, idx["a"], idx["c"])
	assert.Less(t, idx["b"], idx["d"])
	assert.Less(t, idx["c"], idx["d"])
}

func TestBuild_ChainOrder(t *testing.T) {
	a := &job{Name: "a"}
	b := &job{Name: "b", deps: []task.Task{a}}
	c := &job{Name: "c", deps: []task.Task{b}}

	dag, err := graph.Build(c)
	require.NoError(t, err)

	idx := orderIndex(t, dag)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, idx)
}

func TestBuild_DeduplicatesEqualTasks(t *testing.T) {
	// Two distinct values with equal fields are the same task.
	shared1 := &job{Name: "shared"}
	shared2 := &job{Name: "shared"}
	left := &job{Name: "left", deps: []task.Task{shared1}}
	right := &job{Name: "right", deps: []task.Task{shared2}}

	dag, err := graph.Build(left, right)
	require.NoError(t, err)
	assert.Equal(t, 3, dag.Len())

	n, ok := dag.Node(shared1)
	require.True(t, ok)
	assert.Len(t, n.Dependents, 2)
}

func TestBuild_DeduplicatesRoots(t *testing.T) {
	a := &job{Name: "a"}
	dag, err := graph.Build(a, &job{Name: "a"})
	require.NoError(t, err)

	assert.Equal(t, 1, dag.Len())
	assert.Len(t, dag.Roots(), 1)
}

func TestBuild_DoneSubtreeIsNotExpanded(t *testing.T) {
	expanded := false
	hidden := &job{Name: "hidden"}
	done := &doneJob{job: job{Name: "done", deps: []task.Task{hidden}, requiresCalled: &expanded}, done: true}
	root := &job{Name: "root", deps: []task.Task{done}}

	dag, err := graph.Build(root)
	require.NoError(t, err)

	assert.Equal(t, 2, dag.Len(), "the done task's requirements must not enter the DAG")
	assert.False(t, expanded, "Requires must never be called on a done task")

	n, ok := dag.Node(done)
	require.True(t, ok)
	assert.Equal(t, graph.StatusDoneAlready, n.Status)
	assert.Empty(t, n.Deps)
}

func TestBuild_CycleFails(t *testing.T) {
	a := &job{Name: "a"}
	b := &job{Name: "b"}
	a.deps = []task.Task{b}
	b.deps = []task.Task{a}

	dag, err := graph.Build(a)
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrCycleDetected)
	assert.Nil(t, dag, "no partial DAG on cycle")
}

func TestBuild_SelfCycleFails(t *testing.T) {
	a := &job{Name: "a"}
	a.deps = []task.Task{a}

	_, err := graph.Build(a)
	assert.ErrorIs(t, err, graph.ErrCycleDetected)
}

func TestBuild_DoneProbeErrorAborts(t *testing.T) {
	boom := errors.New("stat failed")
	bad := &job{Name: "bad", out: brokenTarget{err: boom}}
	root := &job{Name: "root", deps: []task.Task{bad}}

	dag, err := graph.Build(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, dag)
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, graph.StatusDoneAlready.Terminal())
	assert.True(t, graph.StatusSucceeded.Terminal())
	assert.True(t, graph.StatusFailed.Terminal())
	assert.True(t, graph.StatusSkipped.Terminal())
	assert.False(t, graph.StatusPending.Terminal())
	assert.False(t, graph.StatusRunning.Terminal())
}
