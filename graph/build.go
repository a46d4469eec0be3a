package graph

import (
	"strings"

	"go.trai.ch/flow/bundle"
	"go.trai.ch/flow/task"
	"go.trai.ch/zerr"
)

// ErrCycleDetected is returned when the dependency chain under construction
// revisits a task. The offending chain is attached as "cycle" metadata.
var ErrCycleDetected = zerr.New("cyclic dependency")

// Build discovers the DAG reachable from the given root tasks. Equal task
// values collapse to one node; tasks that report done at discovery time are
// kept as DoneAlready nodes but never expanded. Build fails on a dependency
// cycle and on any error raised while probing a task's identity or done
// state, so a returned DAG is always executable.
func Build(roots ...task.Task) (*DAG, error) {
	b := &builder{
		nodes:  make(map[bundle.Key]*Node),
		onPath: make(map[bundle.Key]bool),
	}

	d := &DAG{nodes: b.nodes}
	seen := make(map[*Node]bool)
	for _, t := range roots {
		n, err := b.visit(t)
		if err != nil {
			return nil, err
		}
		if !seen[n] {
			seen[n] = true
			d.roots = append(d.roots, n)
		}
	}

	d.order = b.order
	return d, nil
}

type builder struct {
	nodes  map[bundle.Key]*Node
	order  []*Node
	onPath map[bundle.Key]bool
	path   []bundle.Key
}

// visit expands one task depth-first. Nodes are appended to the order after
// their dependencies, so the postorder is already topological.
func (b *builder) visit(t task.Task) (*Node, error) {
	key, err := bundle.KeyOf(t)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to derive task identity")
	}

	if n, ok := b.nodes[key]; ok {
		if b.onPath[key] {
			return nil, b.cycleError(key)
		}
		return n, nil
	}

	n := &Node{Task: t, Key: key}
	b.nodes[key] = n

	done, err := task.Done(t)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "task discovery failed"), "task", key.String())
	}
	if done {
		// Pruned subtree: Requires is never evaluated for a done task.
		n.Status = StatusDoneAlready
		b.order = append(b.order, n)
		return n, nil
	}
	n.Status = StatusPending

	b.onPath[key] = true
	b.path = append(b.path, key)

	for _, req := range t.Requires() {
		dep, err := b.visit(req)
		if err != nil {
			return nil, err
		}
		n.addDep(dep)
	}

	delete(b.onPath, key)
	b.path = b.path[:len(b.path)-1]

	b.order = append(b.order, n)
	return n, nil
}

// cycleError renders the active chain from the first occurrence of the
// revisited task back to itself.
func (b *builder) cycleError(key bundle.Key) error {
	start := 0
	for i, k := range b.path {
		if k == key {
			start = i
			break
		}
	}

	var sb strings.Builder
	for _, k := range b.path[start:] {
		sb.WriteString(k.String())
		sb.WriteString(" -> ")
	}
	sb.WriteString(key.String())

	return zerr.With(ErrCycleDetected, "cycle", sb.String())
}
