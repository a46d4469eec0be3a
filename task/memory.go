package task

import (
	"context"

	"go.trai.ch/flow/target"
)

// Memory is an embeddable base for tasks that hand their result to downstream
// tasks through an in-process slot instead of a file. The slot is excluded
// from identity, so two tasks with equal declared fields share one node no
// matter which slot instance they carry.
//
// Embedders implement Requires and Run and call Set from Run; consumers read
// the slot from the input target. Construct with NewMemory so the slot is
// allocated.
type Memory struct {
	Slot *target.Memory `json:"-"`
}

// NewMemory creates a Memory base with an allocated slot.
func NewMemory() Memory {
	return Memory{Slot: target.NewMemory()}
}

// Output returns the memory slot.
func (m Memory) Output() target.Target { return m.Slot }

// Set stores the task's result in the slot.
func (m Memory) Set(val any) error { return m.Slot.Set(val) }

// Get reads the task's result from the slot.
func (m Memory) Get() (any, error) { return m.Slot.Get() }

// Cleanup releases the slot once no pending task needs it.
func (m Memory) Cleanup(context.Context, Config) error {
	return m.Slot.Delete()
}
