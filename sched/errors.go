package sched

import (
	"fmt"

	"go.trai.ch/flow/bundle"
)

// TaskFailure is the error recorded on a node whose Run returned an error.
// It does not abort the run; independent branches continue to completion.
type TaskFailure struct {
	Key bundle.Key
	Err error
}

// Error implements the error interface.
func (e *TaskFailure) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.Key, e.Err)
}

// Unwrap returns the run error.
func (e *TaskFailure) Unwrap() error { return e.Err }

// DependencyFailure is the error recorded on every transitive dependent of a
// failed node. Cause is the originating TaskFailure; the dependent's Run is
// never invoked.
type DependencyFailure struct {
	Key   bundle.Key
	Cause *TaskFailure
}

// Error implements the error interface.
func (e *DependencyFailure) Error() string {
	return fmt.Sprintf("task %s skipped: %v", e.Key, e.Cause)
}

// Unwrap returns the originating failure.
func (e *DependencyFailure) Unwrap() error { return e.Cause }

// CleanupFailure is the error recorded when a node's Cleanup returns an
// error. It never changes the node's own terminal status and never
// propagates to dependents.
type CleanupFailure struct {
	Key bundle.Key
	Err error
}

// Error implements the error interface.
func (e *CleanupFailure) Error() string {
	return fmt.Sprintf("cleanup of task %s failed: %v", e.Key, e.Err)
}

// Unwrap returns the cleanup error.
func (e *CleanupFailure) Unwrap() error { return e.Err }
