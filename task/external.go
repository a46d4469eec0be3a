package task

import (
	"context"

	"go.trai.ch/flow/target"
	"go.trai.ch/zerr"
)

// ErrExternalMissing is returned when an External task is scheduled, meaning
// the artifact it stands for was not there at discovery time.
var ErrExternalMissing = zerr.New("external input does not exist")

// External stands for an artifact produced outside the pipeline. It is done
// exactly when its target exists; it cannot produce the artifact itself.
type External struct {
	Target target.Target `json:"target"`
}

// Requires returns no dependencies.
func (e External) Requires() []Task { return nil }

// Output returns the wrapped target.
func (e External) Output() target.Target { return e.Target }

// Run fails: an external artifact cannot be produced by the pipeline.
func (e External) Run(context.Context, []target.Target, Config) error {
	return ErrExternalMissing
}
