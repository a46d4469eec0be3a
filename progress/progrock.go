// Package progress renders scheduler progress onto a Progrock tape: one
// vertex per task, marked cached for already-done nodes and errored for
// failed or skipped ones.
package progress

import (
	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"

	"go.trai.ch/flow/bundle"
	"go.trai.ch/flow/graph"
	"go.trai.ch/flow/sched"
)

var _ sched.Reporter = (*Recorder)(nil)

// Recorder implements sched.Reporter using the progrock library.
type Recorder struct {
	w        progrock.Writer
	rec      *progrock.Recorder
	vertices map[bundle.Key]*progrock.VertexRecorder
}

// New creates a Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a Recorder on the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:        w,
		rec:      progrock.NewRecorder(w),
		vertices: make(map[bundle.Key]*progrock.VertexRecorder),
	}
}

func (r *Recorder) vertex(n *graph.Node) *progrock.VertexRecorder {
	v, ok := r.vertices[n.Key]
	if !ok {
		v = r.rec.Vertex(digest.FromString(n.Key.String()), n.Key.String())
		r.vertices[n.Key] = v
	}
	return v
}

// TaskStarted opens the node's vertex.
func (r *Recorder) TaskStarted(n *graph.Node) {
	r.vertex(n)
}

// TaskFinished completes the node's vertex.
func (r *Recorder) TaskFinished(n *graph.Node, err error) {
	v := r.vertex(n)
	if n.Status == graph.StatusDoneAlready {
		v.Cached()
	}
	v.Done(err)
}

// CleanupFinished records the node's cleanup as its own vertex.
func (r *Recorder) CleanupFinished(n *graph.Node, err error) {
	name := n.Key.String() + " (cleanup)"
	v := r.rec.Vertex(digest.FromString(name), name)
	v.Done(err)
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
